package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Resolver extracts the originating client address of a request.
// Proxy headers are consulted only when trusted; otherwise a client could
// pick its own address and dodge per-IP rate limits.
type Resolver struct {
	headers []string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTrustedHeaders lists the proxy headers to consult, highest priority
// first, e.g. "CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP".
// X-Forwarded-For style lists use the first valid entry.
func WithTrustedHeaders(headers ...string) Option {
	return func(res *Resolver) {
		for _, h := range headers {
			if h = strings.TrimSpace(h); h != "" {
				res.headers = append(res.headers, http.CanonicalHeaderKey(h))
			}
		}
	}
}

// New creates a Resolver. Without options only RemoteAddr is used.
func New(opts ...Option) *Resolver {
	res := &Resolver{}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

// IP returns the normalized client address or "" when none is valid.
func (res *Resolver) IP(r *http.Request) string {
	for _, h := range res.headers {
		for candidate := range strings.SplitSeq(r.Header.Get(h), ",") {
			if ip := parseIP(candidate); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

// Middleware stores the resolved address in the request context.
func (res *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), res.IP(r))))
	})
}

func parseIP(s string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	return addr.Unmap().String()
}

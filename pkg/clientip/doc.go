// Package clientip resolves the originating client address of a request.
//
// By default only the TCP peer address is used. Deployments behind a proxy
// name the headers that proxy sets:
//
//	ips := clientip.New(clientip.WithTrustedHeaders("CF-Connecting-IP", "X-Forwarded-For"))
//	r.Use(ips.Middleware)
//
// Downstream code reads the address with FromContext or Key, and
// LoggerExtractor adds it to log records as client_ip.
package clientip

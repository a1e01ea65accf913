package handler

import "net/http"

type redirectResponse struct {
	url    string
	status int
}

func (rr redirectResponse) Render(w http.ResponseWriter, r *http.Request) error {
	http.Redirect(w, r, rr.url, rr.status)
	return nil
}

// Redirect creates a 302 Found redirect.
func Redirect(url string) Response {
	return redirectResponse{url: url, status: http.StatusFound}
}

// RedirectWithStatus creates a redirect with a custom 3xx status.
func RedirectWithStatus(url string, status int) Response {
	if status < 300 || status > 399 {
		status = http.StatusFound
	}
	return redirectResponse{url: url, status: status}
}

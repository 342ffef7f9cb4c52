package types

import "net/http"

// ProxyResponse is a normalized upstream response.
// Content-Type and Content-Length are stripped from Headers on translation;
// ContentType holds the original Content-Type value and is authoritative for
// re-emission (the transport recomputes the length for the new body).
type ProxyResponse struct {
	StatusCode  int
	Headers     http.Header
	Body        []byte
	ContentType string
}

package main

import (
	"net/http"
)

// The card host serves watered-down error pages to clients without a
// browser user agent, so every original-image download announces one.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// HttpTransportWithUserAgent is a custom http.RoundTripper that sets a
// fixed User-Agent header on every request.
type HttpTransportWithUserAgent struct {
	BaseTransport http.RoundTripper
	UserAgent     string
}

// RoundTrip implements the http.RoundTripper interface
func (t *HttpTransportWithUserAgent) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	reqClone := req.Clone(req.Context())
	reqClone.Header.Set("User-Agent", t.UserAgent)
	return t.BaseTransport.RoundTrip(reqClone)
}

// NewHttpTransportWithUserAgent wraps base with the given User-Agent header.
// A nil base falls back to http.DefaultTransport.
func NewHttpTransportWithUserAgent(base http.RoundTripper, userAgent string) *HttpTransportWithUserAgent {
	if base == nil {
		base = http.DefaultTransport
	}
	return &HttpTransportWithUserAgent{
		BaseTransport: base,
		UserAgent:     userAgent,
	}
}

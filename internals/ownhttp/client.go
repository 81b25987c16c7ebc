package ownhttp

import (
	"net"
	"net/http"
	"time"
)

const userAgent = "mclc (https://github.com/mclc/mclc)"

// New returns a new http.Client with the AddHeaderTransport (setting the
// User-Agent header) and sane timeouts for long running downloads
func New() *http.Client {
	return &http.Client{Transport: NewAddHeaderTransport(newBaseTransport())}
}

func newBaseTransport() *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   20 * time.Second,
		ResponseHeaderTimeout: 60 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// AddHeaderTransport sets our User-Agent header on every request
type AddHeaderTransport struct {
	T http.RoundTripper
}

func (t *AddHeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}
	return t.T.RoundTrip(req)
}

// NewAddHeaderTransport wraps the given transport (or the default one)
func NewAddHeaderTransport(T http.RoundTripper) *AddHeaderTransport {
	if T == nil {
		T = http.DefaultTransport
	}
	return &AddHeaderTransport{T}
}

package ownhttp

import (
	"net/http"

	"golang.org/x/time/rate"
)

// NewThrottled returns a client like New that issues at most rps
// requests per second
func NewThrottled(rps float64) *http.Client {
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	transport := NewThrottleTransport(NewAddHeaderTransport(newBaseTransport()), limiter)
	return &http.Client{Transport: transport}
}

// ThrottleTransport rate limits outgoing requests. It is used to stay
// friendly with the asset mirror when installing thousands of objects.
type ThrottleTransport struct {
	T       http.RoundTripper
	limiter *rate.Limiter
}

func (tt *ThrottleTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	err := tt.limiter.Wait(req.Context())
	if err != nil {
		return nil, err
	}

	return tt.T.RoundTrip(req)
}

func NewThrottleTransport(T http.RoundTripper, limiter *rate.Limiter) *ThrottleTransport {
	if T == nil {
		T = http.DefaultTransport
	}
	return &ThrottleTransport{T, limiter}
}

package transport

import (
	"net/http"
	"sync"
	"time"
)

// ModifyHeadersOption is a function type used to modify HTTP headers in a request.
// It takes a function that sets a header key and value, allowing for flexible header modification.
type ModifyHeadersOption func(func(key string, value string))

type modifyHeadersRoundTripper struct {
	roundTripper http.RoundTripper
	options      []ModifyHeadersOption
}

// NewModifyHeadersRoundTripper will add headers to a request.
func NewModifyHeadersRoundTripper(rt http.RoundTripper, opts ...ModifyHeadersOption) http.RoundTripper {
	return &modifyHeadersRoundTripper{roundTripper: rt, options: opts}
}

func (rt *modifyHeadersRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not mutate the caller's request
	req = req.Clone(req.Context())
	for _, opt := range rt.options {
		opt(req.Header.Set)
	}
	return rt.roundTripper.RoundTrip(req)
}

// WithUserAgent is a functional option to set the HTTP client user agent.
func WithUserAgent(userAgent string) ModifyHeadersOption {
	return func(f func(key string, value string)) {
		if userAgent != "" {
			f("User-Agent", userAgent)
		}
	}
}

// WithAcceptLanguage is a functional option to set the HTTP client accept language.
func WithAcceptLanguage(acceptLanguage string) ModifyHeadersOption {
	return func(f func(key string, value string)) {
		f("Accept-Language", acceptLanguage)
	}
}

// WithHeader sets an arbitrary header.
func WithHeader(key, value string) ModifyHeadersOption {
	return func(f func(key string, value string)) {
		f(key, value)
	}
}

type throttleRoundTripper struct {
	roundTripper http.RoundTripper
	interval     time.Duration

	mu   sync.Mutex
	next time.Time
	now  func() time.Time
	wait func(req *http.Request, d time.Duration) error
}

// NewThrottleRoundTripper spaces the start of consecutive requests by at least interval.
// Waiting honours the request context.
func NewThrottleRoundTripper(rt http.RoundTripper, interval time.Duration) http.RoundTripper {
	return &throttleRoundTripper{
		roundTripper: rt,
		interval:     interval,
		now:          time.Now,
		wait:         sleepContext,
	}
}

func (rt *throttleRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.mu.Lock()
	now := rt.now()
	start := rt.next
	if start.Before(now) {
		start = now
	}
	rt.next = start.Add(rt.interval)
	rt.mu.Unlock()

	if d := start.Sub(now); d > 0 {
		if err := rt.wait(req, d); err != nil {
			return nil, err
		}
	}
	return rt.roundTripper.RoundTrip(req)
}

func sleepContext(req *http.Request, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-req.Context().Done():
		return req.Context().Err()
	case <-t.C:
		return nil
	}
}

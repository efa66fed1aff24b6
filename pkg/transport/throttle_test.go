package transport

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopRoundTripper struct{ calls int }

func (n *nopRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	n.calls++
	return &http.Response{StatusCode: http.StatusOK}, nil
}

func TestThrottleRoundTripper(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var waits []time.Duration

	next := &nopRoundTripper{}
	rt := NewThrottleRoundTripper(next, 500*time.Millisecond).(*throttleRoundTripper)
	rt.now = func() time.Time { return clock }
	rt.wait = func(_ *http.Request, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	req, err := http.NewRequest(http.MethodGet, "http://example.com", nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := rt.RoundTrip(req)
		require.NoError(t, err)
	}
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, waits)
	assert.Equal(t, 3, next.calls)

	// after a long pause no wait is needed
	clock = clock.Add(time.Minute)
	waits = nil
	_, err = rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Empty(t, waits)
}

func TestThrottleRoundTripperCancelled(t *testing.T) {
	next := &nopRoundTripper{}
	rt := NewThrottleRoundTripper(next, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://example.com", nil)
	require.NoError(t, err)

	_, err = rt.RoundTrip(req)
	require.NoError(t, err)

	cancel()
	_, err = rt.RoundTrip(req)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, next.calls)
}

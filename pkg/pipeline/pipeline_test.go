package pipeline_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/somerandev/rpgmaker-site/pkg/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPreservesOrderAndIsolatesErrors(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	errOdd := errors.New("odd")

	for _, limit := range []int{0, 1, 3} {
		results := pipeline.Run(context.Background(), items, limit, func(_ context.Context, n int) (int, error) {
			if n%2 == 1 {
				return 0, errOdd
			}
			return n * 10, nil
		})

		require.Len(t, results, len(items))
		for i, r := range results {
			assert.Equal(t, i, r.Index)
			if items[i]%2 == 1 {
				assert.ErrorIs(t, r.Err, errOdd)
			} else {
				assert.NoError(t, r.Err)
				assert.Equal(t, items[i]*10, r.Value)
			}
		}
		assert.Equal(t, 3, pipeline.Failed(results))
	}
}

func TestRunRespectsLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	items := make([]int, 20)

	pipeline.Run(context.Background(), items, 1, func(_ context.Context, _ int) (struct{}, error) {
		n := inFlight.Add(1)
		if n > peak.Load() {
			peak.Store(n)
		}
		time.Sleep(time.Millisecond)
		inFlight.Add(-1)
		return struct{}{}, nil
	})

	assert.Equal(t, int32(1), peak.Load())
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	results := pipeline.Run(ctx, []string{"a", "b", "c"}, 1, func(_ context.Context, s string) (string, error) {
		calls++
		if s == "a" {
			cancel()
		}
		return s, nil
	})

	assert.Equal(t, 1, calls)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, context.Canceled)
	assert.ErrorIs(t, results[2].Err, context.Canceled)
}

func TestSleep(t *testing.T) {
	assert.NoError(t, pipeline.Sleep(context.Background(), 0))
	assert.NoError(t, pipeline.Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, pipeline.Sleep(ctx, time.Hour), context.Canceled)
}

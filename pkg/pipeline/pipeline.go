// Package pipeline runs per-entry work with a concurrency cap, isolating failures to the entry that caused them.
package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of processing one item.
type Result[R any] struct {
	Index int
	Value R
	Err   error
}

// Run calls fn for every item with at most limit calls in flight and returns one Result per item, in input order.
// A failing item never stops the others. Items not yet started when ctx is cancelled get ctx.Err().
// A limit below 1 is treated as 1, which processes the items strictly one after another.
func Run[T, R any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, item T) (R, error)) []Result[R] {
	if limit < 1 {
		limit = 1
	}

	results := make([]Result[R], len(items))
	var g errgroup.Group
	g.SetLimit(limit)

	for i, item := range items {
		results[i].Index = i
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Value, results[i].Err = fn(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Failed counts the results that carry an error.
func Failed[R any](results []Result[R]) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

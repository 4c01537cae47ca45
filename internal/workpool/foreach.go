package workpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ForEach runs fn for every item with at most limit calls in flight. A task
// cannot fail its siblings: fn reports its own outcome, and ForEach only
// stops early when ctx is cancelled, in which case it returns ctx.Err() after
// the running tasks return.
func ForEach[T any](ctx context.Context, limit int, items []T, fn func(ctx context.Context, index int, item T)) error {
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			fn(gctx, i, item)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

package sync

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// forEach applies fn to every item, one at a time or on the engine's worker
// pool. It stops at the first error: in parallel mode the context handed to
// fn is cancelled and in-flight calls are left to observe it. The results of
// the items that succeeded are returned in item order alongside that error.
func forEach[T, R any](ctx context.Context, e *Engine, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	out := make([]R, len(items))
	done := make([]bool, len(items))

	collect := func() []R {
		res := make([]R, 0, len(items))
		for i := range out {
			if done[i] {
				res = append(res, out[i])
			}
		}
		return res
	}

	if !e.parallel {
		for i, item := range items {
			r, err := fn(ctx, item)
			if err != nil {
				return collect(), err
			}
			out[i], done[i] = r, true
		}
		return collect(), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fn(gctx, item)
			if err != nil {
				return err
			}
			// Each worker owns slot i.
			out[i], done[i] = r, true
			return nil
		})
	}
	err := g.Wait()
	return collect(), err
}

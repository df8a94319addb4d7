package world

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// StepMany advances several worlds in parallel. Each world owns a
// private engine instance and is itself single-threaded, so stepping
// distinct worlds concurrently is safe; a world must not appear twice
// in the slice. Worlds not yet stepped when ctx is cancelled fail with
// the context's error.
func StepMany(ctx context.Context, worlds []*World, n int) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, w := range worlds {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return w.Step(n)
		})
	}
	return g.Wait()
}

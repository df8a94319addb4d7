package world

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStepMany(t *testing.T) {
	t.Run("steps every world", func(t *testing.T) {
		worlds := make([]*World, 4)
		for i := range worlds {
			worlds[i] = newArmWorld(t)
			require.NoError(t, worlds[i].Compile())
			defer worlds[i].Destroy()
		}

		require.NoError(t, StepMany(context.Background(), worlds, 10))
	})

	t.Run("surfaces the first failure", func(t *testing.T) {
		ready := newArmWorld(t)
		require.NoError(t, ready.Compile())
		defer ready.Destroy()
		cold := newArmWorld(t)

		err := StepMany(context.Background(), []*World{ready, cold}, 1)
		require.ErrorIs(t, err, ErrNotCompiled)
	})

	t.Run("cancelled context short-circuits", func(t *testing.T) {
		w := newArmWorld(t)
		require.NoError(t, w.Compile())
		defer w.Destroy()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := StepMany(ctx, []*World{w}, 1)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("empty slice", func(t *testing.T) {
		require.NoError(t, StepMany(context.Background(), nil, 1))
	})
}

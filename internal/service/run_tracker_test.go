package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Investment-Backtest-Backend/internal/apperrors"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/service"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/testutil"
)

func TestRunTracker(t *testing.T) {
	t.Run("begin cancels the previous run of the session", func(t *testing.T) {
		tracker := service.NewRunTracker()

		ctx1, gen1, release1 := tracker.Begin(context.Background(), "s")
		defer release1()
		ctx2, gen2, release2 := tracker.Begin(context.Background(), "s")
		defer release2()

		assert.Equal(t, uint64(1), gen1)
		assert.Equal(t, uint64(2), gen2)
		assert.ErrorIs(t, ctx1.Err(), context.Canceled)
		assert.NoError(t, ctx2.Err())
		assert.False(t, tracker.IsCurrent("s", gen1))
		assert.True(t, tracker.IsCurrent("s", gen2))
	})

	t.Run("sessions are independent", func(t *testing.T) {
		tracker := service.NewRunTracker()

		ctxA, genA, releaseA := tracker.Begin(context.Background(), "a")
		defer releaseA()
		_, genB, releaseB := tracker.Begin(context.Background(), "b")
		defer releaseB()

		assert.NoError(t, ctxA.Err())
		assert.True(t, tracker.IsCurrent("a", genA))
		assert.True(t, tracker.IsCurrent("b", genB))
		assert.NotEqual(t, genA, genB)
		assert.Equal(t, uint64(0), tracker.Generation("c"))
	})

	t.Run("only the newest generation publishes", func(t *testing.T) {
		tracker := service.NewRunTracker()

		_, gen1, release1 := tracker.Begin(context.Background(), "s")
		_, gen2, release2 := tracker.Begin(context.Background(), "s")
		defer release2()
		release1()

		stored := 0
		store := func() error { stored++; return nil }

		assert.ErrorIs(t, tracker.Publish("s", gen1, store), apperrors.ErrStaleRun)
		require.NoError(t, tracker.Publish("s", gen2, store))
		assert.Equal(t, 1, stored)
		assert.ErrorIs(t, tracker.Publish("unknown", 1, store), apperrors.ErrStaleRun)
	})

	t.Run("releasing an old run keeps the newer run cancellable", func(t *testing.T) {
		tracker := service.NewRunTracker()

		_, _, release1 := tracker.Begin(context.Background(), "s")
		ctx2, _, release2 := tracker.Begin(context.Background(), "s")
		defer release2()
		release1()

		_, _, release3 := tracker.Begin(context.Background(), "s")
		defer release3()

		assert.ErrorIs(t, ctx2.Err(), context.Canceled)
	})

	t.Run("release cancels the run context", func(t *testing.T) {
		tracker := service.NewRunTracker()

		ctx, _, release := tracker.Begin(context.Background(), "s")
		release()

		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	})

	t.Run("finished sessions are forgotten", func(t *testing.T) {
		tracker := service.NewRunTracker()

		for i := 0; i < 50; i++ {
			_, _, release := tracker.Begin(context.Background(), testutil.MakeID())
			release()
		}

		assert.Zero(t, tracker.ActiveSessions())
	})

	t.Run("a straggler never matches a later run of the same session", func(t *testing.T) {
		tracker := service.NewRunTracker()

		_, gen1, release1 := tracker.Begin(context.Background(), "s")
		defer release1()
		_, _, release2 := tracker.Begin(context.Background(), "s")
		release2()
		assert.Equal(t, 0, tracker.ActiveSessions())

		_, gen3, release3 := tracker.Begin(context.Background(), "s")
		defer release3()

		assert.NotEqual(t, gen1, gen3)
		assert.False(t, tracker.IsCurrent("s", gen1))
		assert.ErrorIs(t, tracker.Publish("s", gen1, func() error { return nil }), apperrors.ErrStaleRun)
		assert.Equal(t, 1, tracker.ActiveSessions())
	})
}

package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imtaco/rtc-room-client/internal/errors"
)

func TestWithEitherDone(t *testing.T) {
	t.Run("FirstDone", func(t *testing.T) {
		a, cancelA := context.WithCancel(context.Background())
		ctx, cancel := WithEitherDone(a, context.Background())
		defer cancel()

		cancelA()
		<-ctx.Done()
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	})

	t.Run("SecondDoneKeepsCause", func(t *testing.T) {
		shutdown := errors.PureNew("shutting down")
		b, cancelB := context.WithCancelCause(context.Background())
		ctx, cancel := WithEitherDone(context.Background(), b)
		defer cancel()

		cancelB(shutdown)
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
			require.FailNow(t, "context not cancelled")
		}
		assert.ErrorIs(t, context.Cause(ctx), shutdown)
	})

	t.Run("CancelReleases", func(t *testing.T) {
		ctx, cancel := WithEitherDone(context.Background(), context.Background())
		cancel()
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	})
}

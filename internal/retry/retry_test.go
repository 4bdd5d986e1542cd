package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imtaco/rtc-room-client/internal/log"
)

func newFast(t *testing.T) Retry {
	return New(log.NewTest(t), time.Millisecond, 5*time.Millisecond, 200*time.Millisecond)
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	r := newFast(t)
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	r := newFast(t)
	base := errors.New("bad config")
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return Permanent(base)
	})
	require.ErrorIs(t, err, base)
	assert.Equal(t, 1, calls)
}

func TestDo_GivesUpAfterMaxElapsed(t *testing.T) {
	r := New(log.NewNop(), time.Millisecond, 2*time.Millisecond, 20*time.Millisecond)
	base := errors.New("always")
	err := r.Do(context.Background(), func() error { return base })
	require.ErrorIs(t, err, base)
}

func TestDo_ContextCancelled(t *testing.T) {
	r := New(log.NewNop(), 50*time.Millisecond, 50*time.Millisecond, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := r.Do(ctx, func() error {
		calls++
		return errors.New("fail")
	})
	require.Error(t, err)
	assert.LessOrEqual(t, calls, 1)
}

func TestPermanentNil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}

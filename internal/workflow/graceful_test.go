package workflow

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/imtaco/rtc-room-client/internal/log"
)

func TestWaitGracefulShutdownOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	WaitGracefulShutdown(ctx, log.NewTest(t), func(ctx context.Context) {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		ran.Store(true)
	}, time.Second)

	assert.True(t, ran.Load())
}

func TestRunShutdownTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	runShutdown(log.NewTest(t), func(ctx context.Context) {
		<-release
	}, 20*time.Millisecond, nil)

	assert.Less(t, time.Since(start), time.Second)
}

func TestRunShutdownSecondSignal(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	sigs := make(chan os.Signal, 1)
	sigs <- os.Interrupt

	start := time.Now()
	runShutdown(log.NewTest(t), func(ctx context.Context) {
		<-release
	}, time.Minute, sigs)

	assert.Less(t, time.Since(start), time.Second)
}

func TestRunShutdownRecoversPanic(t *testing.T) {
	runShutdown(log.NewTest(t), func(context.Context) {
		panic("boom")
	}, time.Second, nil)
}

package workflow

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/imtaco/rtc-room-client/internal/log"
)

type GracefulShutdownAction func(ctx context.Context)

// WaitGracefulShutdown blocks until ctx is done or SIGINT/SIGTERM arrives,
// then runs action with a timeout. A second signal stops waiting for it.
func WaitGracefulShutdown(
	ctx context.Context,
	logger *log.Logger,
	action GracefulShutdownAction,
	timeout time.Duration,
) {
	if ctx == nil {
		ctx = context.Background()
	}
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	logger.Info("Graceful shutdown handler registered")
	select {
	case sig := <-sigs:
		logger.Info("Received signal", log.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context done", log.Error(context.Cause(ctx)))
	}

	runShutdown(logger, action, timeout, sigs)
}

func runShutdown(logger *log.Logger, action GracefulShutdownAction, timeout time.Duration, sigs <-chan os.Signal) {
	ctxClean, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logger.Info("Starting graceful shutdown", log.Duration("timeout", timeout))
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic during graceful shutdown", log.Any("error", r))
			}
		}()
		action(ctxClean)
	}()

	select {
	case <-done:
		logger.Info("Graceful shutdown completed")
	case <-ctxClean.Done():
		logger.Warn("Shutdown timeout exceeded, forcing exit")
	case sig := <-sigs:
		logger.Warn("Second signal, forcing exit", log.String("signal", sig.String()))
	}
}

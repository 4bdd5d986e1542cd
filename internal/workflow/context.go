package workflow

import "context"

// WithEitherDone derives a context from a that is also cancelled once b is
// done. In that case context.Cause reports the cause of b.
func WithEitherDone(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(a)
	stop := context.AfterFunc(b, func() {
		cancel(context.Cause(b))
	})
	return ctx, func() {
		stop()
		cancel(context.Canceled)
	}
}

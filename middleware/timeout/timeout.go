package timeout

import (
	"context"
	"time"

	"github.com/go-slark/pipeline/errors"
	"github.com/go-slark/pipeline/middleware"
)

// Timeout gives the rest of the pipeline a context that expires after d. Links must
// honor ctx; a failure after the deadline is reported as a timeout.
func Timeout[C any](d time.Duration) middleware.Middleware[C] {
	return func(handler middleware.Handler[C]) middleware.Handler[C] {
		if d <= 0 {
			return handler
		}
		return func(ctx context.Context, c C) error {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			err := handler(ctx, c)
			if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return errors.Timeout(errors.DeadlineExceeded, "pipeline deadline exceeded").WithError(err)
			}
			return err
		}
	}
}

package retry

import (
	"context"

	"github.com/go-slark/pipeline/middleware"
	"github.com/go-slark/pipeline/pkg/retry"
)

// Retry calls the rest of the pipeline again while it fails, with backoff between
// attempts. Every attempt sees the same context object, so downstream steps must be
// safe to repeat.
func Retry[C any](opts ...retry.Opt) middleware.Middleware[C] {
	policy := retry.New(opts...)
	return func(handler middleware.Handler[C]) middleware.Handler[C] {
		return func(ctx context.Context, c C) error {
			return policy.Do(ctx, func(ctx context.Context) error {
				return handler(ctx, c)
			})
		}
	}
}

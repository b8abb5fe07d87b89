package limit

import (
	"context"

	"github.com/go-slark/pipeline/errors"
	"github.com/go-slark/pipeline/middleware"
	"golang.org/x/time/rate"
)

type Limiter struct {
	limiter *rate.Limiter
	wait    bool
}

type Option func(limiter *Limiter)

func WithLimiter(limiter *rate.Limiter) Option {
	return func(l *Limiter) {
		l.limiter = limiter
	}
}

// Rate allows r invocations per second with bursts of burst.
func Rate(r float64, burst int) Option {
	return func(l *Limiter) {
		l.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

// Wait blocks until a token is available or ctx is done instead of rejecting.
func Wait(wait bool) Option {
	return func(l *Limiter) {
		l.wait = wait
	}
}

// Limit bounds how often the rest of the pipeline runs, across all concurrent invocations.
func Limit[C any](opts ...Option) middleware.Middleware[C] {
	l := &Limiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	for _, opt := range opts {
		opt(l)
	}
	return func(handler middleware.Handler[C]) middleware.Handler[C] {
		return func(ctx context.Context, c C) error {
			if l.wait {
				if err := l.limiter.Wait(ctx); err != nil {
					return errors.TooManyRequests(errors.RateLimited, "rate limit wait").WithError(err)
				}
			} else if !l.limiter.Allow() {
				return errors.TooManyRequests(errors.RateLimited, "rate limit exceeded")
			}
			return handler(ctx, c)
		}
	}
}

package breaker

import (
	"context"
	"time"

	"github.com/go-slark/pipeline/errors"
	"github.com/go-slark/pipeline/logger"
	"github.com/go-slark/pipeline/middleware"
	"github.com/sony/gobreaker"
)

type options struct {
	maxRequests uint32
	interval    time.Duration
	timeout     time.Duration
	minRequests uint32
	threshold   float64
	failure     func(error) bool
	logger      logger.Logger
}

type Option func(*options)

// MaxRequests is how many invocations pass while half open.
func MaxRequests(n uint32) Option {
	return func(o *options) {
		o.maxRequests = n
	}
}

// Interval is the closed state period after which counts reset.
func Interval(d time.Duration) Option {
	return func(o *options) {
		o.interval = d
	}
}

// Timeout is how long the breaker stays open.
func Timeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// Trip opens the breaker once at least min invocations were counted and the failure
// ratio reaches threshold.
func Trip(min uint32, threshold float64) Option {
	return func(o *options) {
		o.minRequests = min
		o.threshold = threshold
	}
}

// Failure decides which errors count against the breaker.
func Failure(fn func(error) bool) Option {
	return func(o *options) {
		o.failure = fn
	}
}

func Logger(l logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func serverFailure(err error) bool {
	return errors.IsServiceUnavailable(err) || errors.IsInternalServer(err) || errors.IsTimeout(err)
}

// Breaker stops calling the rest of the pipeline while it keeps failing.
func Breaker[C any](name string, opts ...Option) middleware.Middleware[C] {
	o := &options{
		maxRequests: 1,
		interval:    30 * time.Second,
		timeout:     60 * time.Second,
		minRequests: 5,
		threshold:   0.8,
		failure:     serverFailure,
		logger:      logger.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: o.maxRequests,
		Interval:    o.interval,
		Timeout:     o.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < o.minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= o.threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			o.logger.Log(context.Background(), logger.WarnLevel, map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}, "breaker state change")
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !o.failure(err)
		},
	})
	return func(handler middleware.Handler[C]) middleware.Handler[C] {
		return func(ctx context.Context, c C) error {
			_, err := cb.Execute(func() (interface{}, error) {
				return nil, handler(ctx, c)
			})
			switch err {
			case gobreaker.ErrOpenState, gobreaker.ErrTooManyRequests:
				return errors.ServiceUnavailable(errors.Unavailable, "circuit breaker "+name+" rejected").WithError(err)
			}
			return err
		}
	}
}

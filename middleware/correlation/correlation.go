package correlation

import (
	"context"

	"github.com/go-slark/pipeline/middleware"
	utils "github.com/go-slark/pipeline/pkg"
	"github.com/go-slark/pipeline/pkg/uid"
)

type config[C any] struct {
	generator uid.Generator
	setter    func(C, string)
}

type Option[C any] func(*config[C])

func WithGenerator[C any](g uid.Generator) Option[C] {
	return func(cfg *config[C]) {
		cfg.generator = g
	}
}

// WithSetter also records the id on the context object.
func WithSetter[C any](set func(C, string)) Option[C] {
	return func(cfg *config[C]) {
		cfg.setter = set
	}
}

// Correlation makes sure every invocation carries an id in ctx. An id already present
// is kept.
func Correlation[C any](opts ...Option[C]) middleware.Middleware[C] {
	cfg := &config[C]{
		generator: uid.GenerateID,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return func(handler middleware.Handler[C]) middleware.Handler[C] {
		return func(ctx context.Context, c C) error {
			id := utils.InvocationIDFrom(ctx)
			if len(id) == 0 {
				id = cfg.generator()
				ctx = utils.WithInvocationID(ctx, id)
			}
			if cfg.setter != nil {
				cfg.setter(c, id)
			}
			return handler(ctx, c)
		}
	}
}

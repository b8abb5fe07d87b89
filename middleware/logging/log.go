package logging

import (
	"context"
	"fmt"
	"time"

	"github.com/go-slark/pipeline/logger"
	"github.com/go-slark/pipeline/middleware"
)

type options struct {
	name    string
	swallow bool
	level   uint
}

type Option func(*options)

// Name labels entries with the pipeline name.
func Name(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// Swallow logs a failure of the rest of the pipeline and reports success instead.
func Swallow(swallow bool) Option {
	return func(o *options) {
		o.swallow = swallow
	}
}

// Level sets the level of the start and finish entries. Failures are always logged at error.
func Level(level uint) Option {
	return func(o *options) {
		o.level = level
	}
}

func Log[C any](l logger.Logger, opts ...Option) middleware.Middleware[C] {
	o := &options{
		name:  "pipeline",
		level: logger.DebugLevel,
	}
	for _, opt := range opts {
		opt(o)
	}
	return func(handler middleware.Handler[C]) middleware.Handler[C] {
		return func(ctx context.Context, c C) error {
			start := time.Now()
			l.Log(ctx, o.level, map[string]interface{}{
				"pipeline": o.name,
				"context":  fmt.Sprintf("%+v", c),
				"start":    start.Format(time.RFC3339),
			}, "invocation start")
			err := handler(ctx, c)
			fields := map[string]interface{}{
				"pipeline": o.name,
				"latency":  time.Since(start).Milliseconds(),
			}
			if err == nil {
				l.Log(ctx, o.level, fields, "invocation finish")
				return nil
			}
			fields["error"] = fmt.Errorf("%+v", err)
			fields["swallowed"] = o.swallow
			l.Log(ctx, logger.ErrorLevel, fields, "invocation failed")
			if o.swallow {
				return nil
			}
			return err
		}
	}
}

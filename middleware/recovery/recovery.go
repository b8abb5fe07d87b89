package recovery

import (
	"context"
	"fmt"
	"runtime"

	"github.com/go-slark/pipeline/errors"
	"github.com/go-slark/pipeline/logger"
	"github.com/go-slark/pipeline/middleware"
)

// Recovery turns a panic further down the pipeline into an internal error.
func Recovery[C any](l logger.Logger) middleware.Middleware[C] {
	return func(handler middleware.Handler[C]) middleware.Handler[C] {
		return func(ctx context.Context, c C) (err error) {
			defer func() {
				if e := recover(); e != nil {
					buf := make([]byte, 64<<10) // buf size : 64k
					buf = buf[:runtime.Stack(buf, false)]
					v, ok := e.(error)
					if !ok || !errors.HasStack(v) {
						v = errors.NewError(errors.PanicCode, errors.Panic, fmt.Sprintf("%+v", e))
					}
					fields := map[string]interface{}{
						"error": fmt.Sprintf("%+v", v),
						"stack": string(buf),
					}
					l.Log(ctx, logger.ErrorLevel, fields, "recover")
					err = errors.InternalServer(errors.Panic, errors.Panic).WithError(v)
				}
			}()
			return handler(ctx, c)
		}
	}
}

package tracing

import (
	"context"

	"github.com/go-slark/pipeline/errors"
	"github.com/go-slark/pipeline/middleware"
	utils "github.com/go-slark/pipeline/pkg"
	tracing "github.com/go-slark/pipeline/pkg/trace"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	pipelineKey   = attribute.Key("pipeline.name")
	invocationKey = attribute.Key("pipeline.invocation_id")
	codeKey       = attribute.Key("pipeline.error.code")
	reasonKey     = attribute.Key("pipeline.error.reason")
)

// Trace wraps the rest of the pipeline in a span named after the pipeline.
func Trace[C any](pipeline string, opts ...tracing.Option) middleware.Middleware[C] {
	tracer := tracing.NewTracer(opts...)
	return func(handler middleware.Handler[C]) middleware.Handler[C] {
		return func(ctx context.Context, c C) error {
			attrs := []attribute.KeyValue{pipelineKey.String(pipeline)}
			if id := utils.InvocationIDFrom(ctx); id != "" {
				attrs = append(attrs, invocationKey.String(id))
			}
			ctx, span := tracer.Start(ctx, pipeline, trace.WithAttributes(attrs...))
			defer span.End()
			err := handler(ctx, c)
			if err != nil {
				e := errors.FromError(err)
				span.SetAttributes(codeKey.Int(int(e.Code)), reasonKey.String(e.Reason))
				span.RecordError(err)
				span.SetStatus(codes.Error, e.Reason)
			} else {
				span.SetStatus(codes.Ok, "")
			}
			return err
		}
	}
}

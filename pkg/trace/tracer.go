package trace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type Tracer struct {
	provider trace.TracerProvider
	tracer   trace.Tracer
	kind     trace.SpanKind
	name     string
}

type Option func(option *Tracer)

func Name(name string) Option {
	return func(option *Tracer) {
		option.name = name
	}
}

func Provider(provider trace.TracerProvider) Option {
	return func(option *Tracer) {
		option.provider = provider
	}
}

func Kind(kind trace.SpanKind) Option {
	return func(option *Tracer) {
		option.kind = kind
	}
}

// NewTracer uses the global provider unless one is given.
func NewTracer(opts ...Option) *Tracer {
	tracer := &Tracer{
		kind: trace.SpanKindInternal,
		name: "pipeline",
	}
	for _, opt := range opts {
		opt(tracer)
	}
	if tracer.provider == nil {
		tracer.provider = otel.GetTracerProvider()
	}
	tracer.tracer = tracer.provider.Tracer(tracer.name)
	return tracer
}

func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	opts = append([]trace.SpanStartOption{trace.WithSpanKind(t.kind)}, opts...)
	return t.tracer.Start(ctx, name, opts...)
}

func (t *Tracer) Kind() trace.SpanKind {
	return t.kind
}

func (t *Tracer) Name() string {
	return t.name
}

// ExtractTraceID returns the trace id of the span in ctx, or "".
func ExtractTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

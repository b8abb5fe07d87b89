package trace

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestTracer(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	tr := NewTracer(Provider(tp), Name("onboard"), Kind(trace.SpanKindServer))

	assert.Empty(t, ExtractTraceID(context.Background()))
	ctx, span := tr.Start(context.Background(), "signup")
	assert.NotEmpty(t, ExtractTraceID(ctx))
	span.End()

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "signup", spans[0].Name())
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind())
	assert.Equal(t, "onboard", spans[0].InstrumentationScope().Name)
}

func TestStdoutProvider(t *testing.T) {
	buf := &bytes.Buffer{}
	tp, err := NewStdoutProvider("onboard", buf)
	require.NoError(t, err)
	_, span := NewTracer(Provider(tp)).Start(context.Background(), "signup")
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name":"signup"`)
}

package tracing

import (
	"context"
	"testing"

	"github.com/go-slark/pipeline/errors"
	"github.com/go-slark/pipeline/middleware"
	utils "github.com/go-slark/pipeline/pkg"
	tracing "github.com/go-slark/pipeline/pkg/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type job struct{ fail bool }

func TestTrace(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	var inner string
	h := middleware.Handle(func(ctx context.Context, j *job) error {
		inner = tracing.ExtractTraceID(ctx)
		if j.fail {
			return errors.ServiceUnavailable(errors.Unavailable, "down")
		}
		return nil
	}, Trace[*job]("signup", tracing.Provider(tp)))

	ctx := utils.WithInvocationID(context.Background(), "inv-9")
	require.NoError(t, h(ctx, &job{}))
	assert.NotEmpty(t, inner)
	assert.Error(t, h(ctx, &job{fail: true}))

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "signup", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("pipeline.invocation_id", "inv-9"))

	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, errors.Unavailable, spans[1].Status().Description)
	assert.Contains(t, spans[1].Attributes(), attribute.Int("pipeline.error.code", 503))
	assert.Len(t, spans[1].Events(), 1)
}

package metrics

import (
	"context"
	"strings"
	"testing"

	"github.com/go-slark/pipeline/errors"
	"github.com/go-slark/pipeline/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct{ email string }

func TestCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCounter(Name("total"), Labels("pipeline", "reason"), Registerer(reg))
	c.With("signup", "OK").Inc()
	c.With("signup", "OK").Add(2)
	assert.Equal(t, float64(3), testutil.ToFloat64(c.With("signup", "OK")))

	// registering the same vector again reuses the first one
	again := NewCounter(Name("total"), Labels("pipeline", "reason"), Registerer(reg))
	again.With("signup", "OK").Inc()
	assert.Equal(t, float64(4), testutil.ToFloat64(c.With("signup", "OK")))
}

func TestGauge(t *testing.T) {
	g := NewGauge(Name("in_flight"), Registerer(prometheus.NewRegistry()))
	g.With("signup").Inc()
	g.With("signup").Add(1)
	assert.Equal(t, float64(2), testutil.ToFloat64(g))
}

func TestHistogram(t *testing.T) {
	h := NewHistogram(Namespace(""), SubSystem(""), Name("counts"), Help("pipeline invocation latency(ms)."),
		Buckets([]float64{1, 2, 3}), Labels("pipeline"), Registerer(prometheus.NewRegistry()))
	h.With("signup").Observe(2)
	expected := `
# HELP counts pipeline invocation latency(ms).
# TYPE counts histogram
counts_bucket{pipeline="signup",le="1"} 0
counts_bucket{pipeline="signup",le="2"} 1
counts_bucket{pipeline="signup",le="3"} 1
counts_bucket{pipeline="signup",le="+Inf"} 1
counts_sum{pipeline="signup"} 2
counts_count{pipeline="signup"} 1
`
	assert.NoError(t, testutil.CollectAndCompare(h, strings.NewReader(expected)))
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	opts := DefaultOptions(reg)
	var inFlight float64
	o := &Option{}
	for _, opt := range opts {
		opt(o)
	}

	calls := 0
	h := middleware.Handle(func(ctx context.Context, s *signup) error {
		calls++
		inFlight = testutil.ToFloat64(o.gauge.With("signup"))
		if s.email == "" {
			return errors.BadRequest(errors.InvalidParam, "email required")
		}
		return nil
	}, Metrics[*signup]("signup", opts...))

	require.NoError(t, h(context.Background(), &signup{email: "a@b.c"}))
	assert.Error(t, h(context.Background(), &signup{}))
	assert.Equal(t, 2, calls)
	assert.Equal(t, float64(1), inFlight)

	assert.Equal(t, float64(1), testutil.ToFloat64(o.counter.With("signup", okReason)))
	assert.Equal(t, float64(1), testutil.ToFloat64(o.counter.With("signup", errors.InvalidParam)))
	assert.Equal(t, float64(0), testutil.ToFloat64(o.gauge.With("signup")))
	assert.Equal(t, 1, testutil.CollectAndCount(o.histogram))
}

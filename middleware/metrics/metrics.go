package metrics

import (
	"context"
	"time"

	"github.com/go-slark/pipeline/errors"
	"github.com/go-slark/pipeline/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

type VecOptions struct {
	name       string
	help       string
	namespace  string
	subSystem  string
	labels     []string
	buckets    []float64
	registerer prometheus.Registerer
}

func newVecOptions(opts []VecOpts) *VecOptions {
	o := &VecOptions{
		name:       "vec",
		help:       "help",
		namespace:  "pipeline",
		subSystem:  "invocation",
		labels:     []string{"pipeline"},
		buckets:    []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		registerer: prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *VecOptions) opts() prometheus.Opts {
	return prometheus.Opts{
		Namespace: o.namespace,
		Subsystem: o.subSystem,
		Name:      o.name,
		Help:      o.help,
	}
}

type VecOpts func(options *VecOptions)

func Name(name string) VecOpts {
	return func(o *VecOptions) {
		o.name = name
	}
}

func Help(h string) VecOpts {
	return func(o *VecOptions) {
		o.help = h
	}
}

func Namespace(ns string) VecOpts {
	return func(o *VecOptions) {
		o.namespace = ns
	}
}

func SubSystem(s string) VecOpts {
	return func(o *VecOptions) {
		o.subSystem = s
	}
}

func Labels(labels ...string) VecOpts {
	return func(o *VecOptions) {
		o.labels = labels
	}
}

func Buckets(buckets []float64) VecOpts {
	return func(o *VecOptions) {
		o.buckets = buckets
	}
}

// Registerer registers the vector with r instead of the default registry.
func Registerer(r prometheus.Registerer) VecOpts {
	return func(o *VecOptions) {
		o.registerer = r
	}
}

// register returns the collector already registered under the same descriptor, if any.
func register[T prometheus.Collector](r prometheus.Registerer, c T) T {
	if r == nil {
		return c
	}
	if err := r.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

type Option struct {
	counter   *Counter
	gauge     *Gauge
	histogram *Histogram
}

type Options func(*Option)

func WithCounter(c *Counter) Options {
	return func(o *Option) {
		o.counter = c
	}
}

func WithGauge(g *Gauge) Options {
	return func(o *Option) {
		o.gauge = g
	}
}

func WithHistogram(h *Histogram) Options {
	return func(o *Option) {
		o.histogram = h
	}
}

// DefaultOptions registers the standard vectors with r: invocations by pipeline and
// result reason, latency in milliseconds, and invocations in flight.
func DefaultOptions(r prometheus.Registerer) []Options {
	return []Options{
		WithCounter(NewCounter(Name("total"), Help("pipeline invocations"), Labels("pipeline", "reason"), Registerer(r))),
		WithHistogram(NewHistogram(Name("duration_ms"), Help("pipeline invocation latency(ms)"), Registerer(r))),
		WithGauge(NewGauge(Name("in_flight"), Help("pipeline invocations in progress"), Registerer(r))),
	}
}

const okReason = "OK"

// Metrics records every invocation of the rest of the pipeline under the pipeline label.
func Metrics[C any](pipeline string, opts ...Options) middleware.Middleware[C] {
	o := &Option{}
	if len(opts) == 0 {
		opts = DefaultOptions(prometheus.DefaultRegisterer)
	}
	for _, opt := range opts {
		opt(o)
	}
	return func(handler middleware.Handler[C]) middleware.Handler[C] {
		return func(ctx context.Context, c C) error {
			if o.gauge != nil {
				g := o.gauge.With(pipeline)
				g.Inc()
				defer g.Dec()
			}
			start := time.Now()
			err := handler(ctx, c)
			if o.histogram != nil {
				o.histogram.With(pipeline).Observe(float64(time.Since(start).Milliseconds()))
			}
			if o.counter != nil {
				reason := okReason
				if err != nil {
					reason = errors.Reason(err)
				}
				o.counter.With(pipeline, reason).Inc()
			}
			return err
		}
	}
}

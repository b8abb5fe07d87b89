package metrics

import "github.com/prometheus/client_golang/prometheus"

type vector[M any] interface {
	prometheus.Collector
	WithLabelValues(values ...string) M
}

// Vec is a registered metric vector. With picks the child for the given label values,
// in the order the labels were declared.
type Vec[M any] struct {
	vector[M]
}

func (v *Vec[M]) With(values ...string) M {
	return v.WithLabelValues(values...)
}

type (
	Counter   = Vec[prometheus.Counter]
	Gauge     = Vec[prometheus.Gauge]
	Histogram = Vec[prometheus.Observer]
)

func NewCounter(opts ...VecOpts) *Counter {
	o := newVecOptions(opts)
	vec := prometheus.NewCounterVec(prometheus.CounterOpts(o.opts()), o.labels)
	return &Counter{vector: register(o.registerer, vec)}
}

func NewGauge(opts ...VecOpts) *Gauge {
	o := newVecOptions(opts)
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts(o.opts()), o.labels)
	return &Gauge{vector: register(o.registerer, vec)}
}

func NewHistogram(opts ...VecOpts) *Histogram {
	o := newVecOptions(opts)
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: o.namespace,
		Subsystem: o.subSystem,
		Name:      o.name,
		Help:      o.help,
		Buckets:   o.buckets,
	}, o.labels)
	return &Histogram{vector: register(o.registerer, vec)}
}

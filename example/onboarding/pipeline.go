package onboarding

import (
	"time"

	"github.com/go-slark/pipeline"
	"github.com/go-slark/pipeline/config"
	"github.com/go-slark/pipeline/di"
	"github.com/go-slark/pipeline/errors"
	"github.com/go-slark/pipeline/logger"
	"github.com/go-slark/pipeline/middleware"
	"github.com/go-slark/pipeline/middleware/breaker"
	"github.com/go-slark/pipeline/middleware/correlation"
	"github.com/go-slark/pipeline/middleware/limit"
	"github.com/go-slark/pipeline/middleware/logging"
	"github.com/go-slark/pipeline/middleware/metrics"
	"github.com/go-slark/pipeline/middleware/recovery"
	"github.com/go-slark/pipeline/middleware/retry"
	"github.com/go-slark/pipeline/middleware/tracing"
	"github.com/go-slark/pipeline/middleware/validate"
	pkgretry "github.com/go-slark/pipeline/pkg/retry"
	"github.com/go-slark/pipeline/pkg/trace"
	"github.com/prometheus/client_golang/prometheus"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const Name = "onboard"

// Catalog entry names.
const (
	Logging   = "operation_logging"
	Log       = "log"
	Recover   = "recovery"
	Correlate = "correlation"
	Trace     = "tracing"
	Measure   = "metrics"
	Throttle  = "limit"
	Protect   = "breaker"
	Validate  = "validate"
	Save      = "save_record"
	Welcome   = "welcome_email"
	Retry     = "retry"
	Provision = "provision_storage"
)

// DefaultPipeline is used when the config defines no onboard pipeline.
var DefaultPipeline = config.Pipeline{
	Name:        Name,
	Middlewares: []string{Logging, Recover, Correlate, Validate, Save, Welcome, Provision},
}

type options struct {
	logger     logger.Logger
	registerer prometheus.Registerer
	provider   oteltrace.TracerProvider
	rate       float64
	burst      int
	retries    int
	breaker    time.Duration
}

type Option func(*options)

func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = r
	}
}

func WithTracerProvider(p oteltrace.TracerProvider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithRate limits onboarding to r per second, waiting for a token.
func WithRate(r float64, burst int) Option {
	return func(o *options) {
		o.rate, o.burst = r, burst
	}
}

// WithRetries sets the attempts made at provisioning while storage is unavailable.
func WithRetries(n int) Option {
	return func(o *options) {
		o.retries = n
	}
}

// WithBreakerTimeout sets how long the breaker stays open.
func WithBreakerTimeout(d time.Duration) Option {
	return func(o *options) {
		o.breaker = d
	}
}

// NewServices registers the onboarding collaborators. Typed tasks get them through
// lookup.
func NewServices(repo Repository, n Notifier, s Storage, l logger.Logger) *di.Container {
	c := di.NewContainer()
	di.Value[Repository](c, repo)
	di.Value[Notifier](c, n)
	di.Value[Storage](c, s)
	di.Value[logger.Logger](c, l)
	return c
}

// NewCatalog registers the onboarding tasks and the generic middleware they can be
// combined with. Constructor dependencies of the tasks are resolved from services.
func NewCatalog(services di.Resolver, opts ...Option) *pipeline.Catalog[*Request] {
	o := &options{
		logger:     logger.Default(),
		registerer: prometheus.NewRegistry(),
		rate:       100,
		burst:      10,
		retries:    3,
		breaker:    30 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}

	return pipeline.NewCatalog[*Request]().
		Register(Logging, func(b *pipeline.Builder[*Request]) {
			b.UseTypeWith(NewOperationLogging, services)
		}).
		Register(Log, func(b *pipeline.Builder[*Request]) {
			b.Use(logging.Log[*Request](o.logger, logging.Name(Name)))
		}).
		Register(Recover, func(b *pipeline.Builder[*Request]) {
			b.Use(recovery.Recovery[*Request](o.logger))
		}).
		Register(Correlate, func(b *pipeline.Builder[*Request]) {
			b.Use(correlation.Correlation(correlation.WithSetter(func(r *Request, id string) {
				r.InvocationID = id
			})))
		}).
		Register(Trace, func(b *pipeline.Builder[*Request]) {
			b.Use(tracing.Trace[*Request](Name, trace.Provider(o.provider)))
		}).
		Register(Measure, func(b *pipeline.Builder[*Request]) {
			b.Use(metrics.Metrics[*Request](Name, metrics.DefaultOptions(o.registerer)...))
		}).
		Register(Throttle, func(b *pipeline.Builder[*Request]) {
			b.Use(limit.Limit[*Request](limit.Rate(o.rate, o.burst), limit.Wait(true)))
		}).
		Register(Protect, func(b *pipeline.Builder[*Request]) {
			b.Use(breaker.Breaker[*Request](Name, breaker.Timeout(o.breaker), breaker.Logger(o.logger)))
		}).
		Register(Validate, func(b *pipeline.Builder[*Request]) {
			b.Use(validate.Validate[*Request]())
		}).
		Register(Save, func(b *pipeline.Builder[*Request]) {
			b.UseTypeWith(NewSaveCustomerRecord, services)
		}).
		Register(Welcome, func(b *pipeline.Builder[*Request]) {
			b.UseTypeWith(NewSendWelcomeEmail, services)
		}).
		Register(Retry, func(b *pipeline.Builder[*Request]) {
			b.Use(retry.Retry[*Request](pkgretry.Retry(o.retries), pkgretry.Retryable(errors.IsServiceUnavailable)))
		}).
		Register(Provision, func(b *pipeline.Builder[*Request]) {
			b.UseTypeWith(NewProvisionStorage, services)
		})
}

// Build assembles def, or DefaultPipeline when def lists no middleware.
func Build(services di.Resolver, def config.Pipeline, opts ...Option) (middleware.Handler[*Request], error) {
	if len(def.Middlewares) == 0 {
		def.Middlewares = DefaultPipeline.Middlewares
	}
	if def.Name == "" {
		def.Name = Name
	}
	o := &options{logger: logger.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return NewCatalog(services, opts...).Build(def, pipeline.WithLogger(o.logger))
}

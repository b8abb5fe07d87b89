package main

import (
	"context"
	"os"

	"github.com/go-slark/pipeline/di"
	"github.com/go-slark/pipeline/example/onboarding"
	"github.com/go-slark/pipeline/infra/redis"
	"github.com/go-slark/pipeline/logger"
	"github.com/go-slark/pipeline/pkg/trace"
	"github.com/go-slark/pipeline/pkg/uid"
	"github.com/prometheus/client_golang/prometheus"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Onboard is what one run needs.
type Onboard struct {
	Handler  onboarding.Handler
	Services *di.Container
	Notifier *onboarding.LogNotifier
	Storage  *onboarding.MemoryStorage
	Registry *prometheus.Registry
	Logger   logger.Logger
}

func ProvideLogger(s *Settings) (logger.Logger, func(), error) {
	if s.LogBackend == "zap" {
		level, err := zap.ParseAtomicLevel(s.LogLevel)
		if err != nil {
			return nil, nil, err
		}
		cfg := zap.NewProductionConfig()
		cfg.Level = level
		z, err := cfg.Build()
		if err != nil {
			return nil, nil, err
		}
		l := logger.NewZap(z.Named("onboard"))
		logger.SetDefault(l)
		return l, func() { _ = z.Sync() }, nil
	}
	l := logger.NewLog(logger.WithSrvName("onboard"), logger.WithLevel(s.LogLevel), logger.WithWriter(os.Stderr))
	logger.SetDefault(l)
	return l, func() {}, nil
}

func ProvideGenerator() (uid.Generator, error) {
	node, err := uid.NewNode()
	if err != nil {
		return nil, err
	}
	return node.Generator(), nil
}

// ProvideRepository keeps customers in redis when an address is configured.
func ProvideRepository(ctx context.Context, s *Settings, gen uid.Generator) (onboarding.Repository, func(), error) {
	if s.Redis.Address == "" {
		return onboarding.NewMemoryRepository(gen), func() {}, nil
	}
	c, err := redis.NewClient(ctx, &s.Redis)
	if err != nil {
		return nil, nil, err
	}
	return onboarding.NewRedisRepository(c.Client, gen, "onboard:"), func() { _ = c.Close() }, nil
}

func ProvideNotifier(l logger.Logger) *onboarding.LogNotifier {
	return onboarding.NewLogNotifier(l)
}

func ProvideStorage(s *Settings) *onboarding.MemoryStorage {
	return onboarding.NewMemoryStorage(s.FailStorage)
}

func ProvideServices(repo onboarding.Repository, n onboarding.Notifier, st onboarding.Storage, l logger.Logger) *di.Container {
	return onboarding.NewServices(repo, n, st, l)
}

func ProvideRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// ProvideTracerProvider prints spans to stdout when tracing is on.
func ProvideTracerProvider(s *Settings) (oteltrace.TracerProvider, func(), error) {
	if !s.Trace {
		return noop.NewTracerProvider(), func() {}, nil
	}
	tp, err := trace.NewStdoutProvider("onboard", os.Stdout)
	if err != nil {
		return nil, nil, err
	}
	return tp, func() { _ = tp.Shutdown(context.Background()) }, nil
}

func ProvideHandler(s *Settings, services *di.Container, l logger.Logger, reg *prometheus.Registry, tp oteltrace.TracerProvider) (onboarding.Handler, error) {
	return onboarding.Build(services, s.Pipeline,
		onboarding.WithLogger(l),
		onboarding.WithRegisterer(reg),
		onboarding.WithTracerProvider(tp),
		onboarding.WithRate(s.Rate, s.Burst),
		onboarding.WithRetries(s.Retries),
	)
}

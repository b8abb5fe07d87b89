package main

import (
	"github.com/go-slark/pipeline/config"
	"github.com/go-slark/pipeline/config/source/env"
	"github.com/go-slark/pipeline/config/source/file"
	"github.com/go-slark/pipeline/example/onboarding"
	"github.com/go-slark/pipeline/infra/redis"
	"github.com/pkg/errors"
)

type Settings struct {
	Count       int
	Workers     int
	FailStorage bool
	Trace       bool
	LogLevel    string
	LogBackend  string
	Rate        float64
	Burst       int
	Retries     int
	Redis       redis.Config
	Pipeline    config.Pipeline
}

// loadSettings reads path (optional) then PIPELINE_ prefixed env. Flags set on the
// command line win over both.
func loadSettings(path string, flags *Settings) (*Settings, *config.Config, error) {
	var srcs []config.Source
	if path != "" {
		srcs = append(srcs, file.NewFile(path))
	}
	srcs = append(srcs, env.New())
	cfg := config.New(config.WithSource(srcs...))
	if err := cfg.Load(); err != nil {
		return nil, nil, err
	}

	s := &Settings{
		Count:      flags.Count,
		Workers:    4,
		LogLevel:   "info",
		LogBackend: "logrus",
		Rate:       100,
		Burst:      10,
		Retries:    3,
	}
	if cfg.Has("onboard.workers") {
		s.Workers = cfg.GetInt("onboard.workers")
	}
	if cfg.Has("onboard.log.level") {
		s.LogLevel = cfg.GetString("onboard.log.level")
	}
	if cfg.Has("onboard.log.backend") {
		s.LogBackend = cfg.GetString("onboard.log.backend")
	}
	if cfg.Has("onboard.rate") {
		s.Rate = cfg.GetFloat64("onboard.rate")
	}
	if cfg.Has("onboard.burst") {
		s.Burst = cfg.GetInt("onboard.burst")
	}
	if cfg.Has("onboard.retries") {
		s.Retries = cfg.GetInt("onboard.retries")
	}
	s.Trace = flags.Trace || cfg.GetBool("onboard.trace")
	s.FailStorage = flags.FailStorage || cfg.GetBool("onboard.fail_storage")

	if cfg.Has("redis") {
		if err := cfg.Scan("redis", &s.Redis); err != nil {
			return nil, nil, errors.Wrap(err, "redis settings")
		}
	}

	def, err := cfg.Pipeline(onboarding.Name)
	switch {
	case err == nil:
		s.Pipeline = def
	case errors.Is(err, config.ErrNotFound):
		s.Pipeline = onboarding.DefaultPipeline
	default:
		return nil, nil, err
	}
	return s, cfg, nil
}

//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/go-slark/pipeline/example/onboarding"
	"github.com/google/wire"
)

var providerSet = wire.NewSet(
	ProvideLogger,
	ProvideGenerator,
	ProvideRepository,
	ProvideNotifier,
	ProvideStorage,
	ProvideServices,
	ProvideRegistry,
	ProvideTracerProvider,
	ProvideHandler,
	wire.Bind(new(onboarding.Notifier), new(*onboarding.LogNotifier)),
	wire.Bind(new(onboarding.Storage), new(*onboarding.MemoryStorage)),
	wire.Struct(new(Onboard), "*"),
)

func initOnboard(ctx context.Context, s *Settings) (*Onboard, func(), error) {
	wire.Build(providerSet)
	return nil, nil, nil
}

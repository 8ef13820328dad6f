//go:build wireinject

package main

import (
	"context"
	"log/slog"

	"github.com/google/wire"
	"github.com/onkernel/appliancectl/cmd/appliancectl/config"
	"github.com/onkernel/appliancectl/lib/paths"
	"github.com/onkernel/appliancectl/lib/providers"
	"github.com/onkernel/appliancectl/lib/settings"
	"github.com/onkernel/appliancectl/lib/switcher"
	"github.com/onkernel/appliancectl/lib/vmrun"
)

// application struct to hold initialized components
type application struct {
	Ctx             context.Context
	Logger          *slog.Logger
	Config          *config.Config
	Settings        *settings.Store
	Paths           *paths.Paths
	Driver          *vmrun.Driver
	SwitcherOptions switcher.Options
}

// initializeApp is the injector function
func initializeApp(yes providers.AssumeYes) (*application, func(), error) {
	panic(wire.Build(
		providers.ProvideConfig,
		providers.ProvideTelemetry,
		providers.ProvideLogger,
		providers.ProvideContext,
		providers.ProvideSettings,
		providers.ProvidePlatform,
		providers.ProvidePaths,
		providers.ProvideRunner,
		providers.ProvideHandle,
		providers.ProvideDriver,
		providers.ProvideDNSAdapter,
		providers.ProvideConfirmer,
		providers.ProvideSwitcherOptions,
		wire.Struct(new(application), "*"),
	))
}

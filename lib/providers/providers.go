package providers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/onkernel/appliancectl/cmd/appliancectl/config"
	"github.com/onkernel/appliancectl/lib/exec"
	"github.com/onkernel/appliancectl/lib/hostdns"
	"github.com/onkernel/appliancectl/lib/logger"
	"github.com/onkernel/appliancectl/lib/otel"
	"github.com/onkernel/appliancectl/lib/paths"
	"github.com/onkernel/appliancectl/lib/platform"
	"github.com/onkernel/appliancectl/lib/prompt"
	"github.com/onkernel/appliancectl/lib/settings"
	"github.com/onkernel/appliancectl/lib/switcher"
	"github.com/onkernel/appliancectl/lib/vmrun"
)

// AssumeYes answers every confirmation with yes when true.
type AssumeYes bool

// ProvideConfig provides the application configuration
func ProvideConfig() *config.Config {
	return config.Load()
}

// ProvideTelemetry initializes OpenTelemetry and package metrics.
// Telemetry failures are logged and never stop a command.
func ProvideTelemetry(cfg *config.Config) (*otel.Provider, func()) {
	provider, shutdown, err := otel.Init(context.Background(), otel.Config{
		Enabled:     cfg.OtelEnabled,
		Endpoint:    cfg.OtelEndpoint,
		ServiceName: cfg.OtelServiceName,
		Insecure:    cfg.OtelInsecure,
		Version:     cfg.Version,
		Env:         cfg.Env,
	})
	if err != nil {
		slog.Warn("failed to initialize OpenTelemetry, continuing without telemetry", "error", err)
		return &otel.Provider{}, func() {}
	}

	if meter := provider.MeterFor("exec"); meter != nil {
		if m, err := exec.NewMetrics(meter); err == nil {
			exec.SetMetrics(m)
		}
	}
	if meter := provider.MeterFor("switcher"); meter != nil {
		if m, err := switcher.NewMetrics(meter); err == nil {
			switcher.SetMetrics(m)
		}
	}

	return provider, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			slog.Warn("error shutting down OpenTelemetry", "error", err)
		}
	}
}

// ProvideLogger provides a structured logger
func ProvideLogger(cfg *config.Config, tel *otel.Provider) *slog.Logger {
	return logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Output: os.Stderr,
		Extra:  tel.LogHandler,
	})
}

// ProvideContext provides a context with logger attached
func ProvideContext(log *slog.Logger) context.Context {
	return logger.AddToContext(context.Background(), log)
}

// ProvideSettings opens the persisted settings file
func ProvideSettings(cfg *config.Config) (*settings.Store, error) {
	return settings.Open(cfg.SettingsPath)
}

// ProvidePlatform resolves the host platform: env, then settings, then the running OS
func ProvidePlatform(cfg *config.Config, store *settings.Store) (platform.Tag, error) {
	return platform.Parse(firstSet(cfg.Platform, get(store, settings.KeyPlatform)))
}

// ProvidePaths provides the host temp path builder
func ProvidePaths(cfg *config.Config) *paths.Paths {
	return paths.New(cfg.TempDir)
}

// ProvideRunner provides the host command runner used for vmrun and DNS changes
func ProvideRunner(cfg *config.Config) (exec.Runner, error) {
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}
	maxOutput, err := cfg.MaxOutput()
	if err != nil {
		return nil, err
	}
	return exec.NewHostRunner(exec.Options{
		Timeout:   timeout,
		MaxOutput: maxOutput,
		Secrets:   vmrun.SecretFlags,
	}), nil
}

// ProvideHandle assembles the appliance handle from env and settings.
// Environment values win over the settings file.
func ProvideHandle(cfg *config.Config, store *settings.Store, plat platform.Tag) (vmrun.Handle, error) {
	vmx := firstSet(cfg.VMX, get(store, settings.KeyVMX))
	if vmx == "" {
		return vmrun.Handle{}, config.ErrMissingVMX
	}

	utility := firstSet(cfg.VMRun, get(store, settings.KeyVMRun))
	if utility == "" {
		var err error
		if utility, err = vmrun.Locate(plat); err != nil {
			return vmrun.Handle{}, err
		}
	}

	return vmrun.Handle{
		VMRun:         utility,
		VMX:           vmx,
		GuestUser:     cfg.GuestUser,
		GuestPassword: firstSet(cfg.GuestPassword, get(store, settings.KeyPassword)),
		TempDir:       cfg.TempDir,
		Platform:      plat,
		ProbeBinary:   cfg.ProbeBinary,
	}, nil
}

// ProvideDriver provides the VM driver
func ProvideDriver(h vmrun.Handle, runner exec.Runner) *vmrun.Driver {
	return vmrun.New(h, runner)
}

// ProvideDNSAdapter provides the host DNS adapter for the platform
func ProvideDNSAdapter(cfg *config.Config, plat platform.Tag, runner exec.Runner) (hostdns.Adapter, error) {
	return hostdns.New(plat, hostdns.Options{
		Runner:  runner,
		TempDir: cfg.TempDir,
	})
}

// ProvideConfirmer asks on the terminal unless every answer is preset
func ProvideConfirmer(yes AssumeYes) switcher.Confirmer {
	if yes {
		return prompt.Auto{Answer: true, Out: os.Stderr}
	}
	return prompt.NewTerminal()
}

// ProvideSwitcherOptions bundles the switcher's collaborators.
// The switcher itself is built per command because construction may start the appliance.
func ProvideSwitcherOptions(driver *vmrun.Driver, dns hostdns.Adapter, store *settings.Store, confirm switcher.Confirmer) switcher.Options {
	return switcher.Options{
		Driver:   driver,
		DNS:      dns,
		Settings: store,
		Confirm:  confirm,
		CheckDNS: hostdns.Check,
	}
}

func get(store *settings.Store, key string) string {
	v, _ := store.Get(key)
	return v
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

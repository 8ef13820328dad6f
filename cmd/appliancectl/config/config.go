package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/joho/godotenv"
)

// ErrMissingVMX is returned when no appliance image is configured anywhere.
var ErrMissingVMX = errors.New("no appliance configured: set VMX or the vmx setting")

type Config struct {
	SettingsPath   string
	Platform       string
	VMRun          string
	VMX            string
	GuestUser      string
	GuestPassword  string
	TempDir        string
	ProbeBinary    string
	VMRunTimeout   string
	VMRunMaxOutput string

	LogLevel  string
	LogFormat string

	OtelEnabled     bool
	OtelEndpoint    string
	OtelServiceName string
	OtelInsecure    bool
	Version         string
	Env             string
}

// Load loads configuration from environment variables
// Automatically loads .env file if present
func Load() *Config {
	// Try to load .env file (fail silently if not present)
	_ = godotenv.Load()

	cfg := &Config{
		SettingsPath:   getEnv("APPLIANCE_SETTINGS", defaultSettingsPath()),
		Platform:       getEnv("PLATFORM", ""),
		VMRun:          getEnv("VMRUN", ""),
		VMX:            getEnv("VMX", ""),
		GuestUser:      getEnv("GUEST_USER", "vcap"),
		GuestPassword:  getEnv("GUEST_PASSWORD", ""),
		TempDir:        getEnv("TEMP_DIR", os.TempDir()),
		ProbeBinary:    getEnv("PROBE_BINARY", ""),
		VMRunTimeout:   getEnv("VMRUN_TIMEOUT", "5m"),
		VMRunMaxOutput: getEnv("VMRUN_MAX_OUTPUT", "4MB"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		OtelEnabled:     getEnvBool("OTEL_ENABLED", false),
		OtelEndpoint:    getEnv("OTEL_ENDPOINT", "localhost:4317"),
		OtelServiceName: getEnv("OTEL_SERVICE_NAME", "appliancectl"),
		OtelInsecure:    getEnvBool("OTEL_INSECURE", true),
		Version:         getEnv("VERSION", "dev"),
		Env:             getEnv("ENV", "development"),
	}

	return cfg
}

// Timeout parses VMRUN_TIMEOUT. Zero disables the limit.
func (c *Config) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.VMRunTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid VMRUN_TIMEOUT %q: %w", c.VMRunTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid VMRUN_TIMEOUT %q: must not be negative", c.VMRunTimeout)
	}
	return d, nil
}

// MaxOutput parses VMRUN_MAX_OUTPUT into bytes.
func (c *Config) MaxOutput() (int64, error) {
	var ds datasize.ByteSize
	if err := ds.UnmarshalText([]byte(c.VMRunMaxOutput)); err != nil {
		return 0, fmt.Errorf("invalid VMRUN_MAX_OUTPUT %q: %w", c.VMRunMaxOutput, err)
	}
	return int64(ds.Bytes()), nil
}

func defaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".appliancectl", "settings.yml")
	}
	return filepath.Join(home, ".appliancectl", "settings.yml")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

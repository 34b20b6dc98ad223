// Package config provides centralized configuration management for sblpd.
// Settings merge in three layers: built-in defaults, an optional YAML config
// file, and SBLPD_* environment variables (highest precedence).
package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	apperrors "github.com/sblp/sblpd/internal/errors"
)

var (
	appConfig *Config
	configMu  sync.RWMutex
)

// EnvPrefix is the environment variable prefix, e.g. SBLPD_SERVER_PORT.
const EnvPrefix = "SBLPD"

// SetDefaults installs the built-in defaults on the given viper instance.
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Protocol defaults. The SBLP reference cooldown is one hour.
	v.SetDefault("bump.cooldown", "1h")
	v.SetDefault("bump.bot_name", "sblpd")

	// Auth defaults
	v.SetDefault("auth.token", "")

	// Discord entity resolution is opt-in
	v.SetDefault("discord.token", "")

	// Flood guard defaults: generous enough for legitimate list traffic,
	// zero disables the guard
	v.SetDefault("flood_guard.rps", 5.0)
	v.SetDefault("flood_guard.burst", 10)
	v.SetDefault("flood_guard.trust_x_forwarded_for", false)
	v.SetDefault("flood_guard.retry_after_seconds", 1)

	// Logging defaults
	v.SetDefault("logging.level", "info")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	// Health check defaults
	v.SetDefault("health.enabled", true)
}

// Load unmarshals the merged viper state into a typed Config and validates
// it. The result is also stored for GetConfig.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))

	if err := v.Unmarshal(cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return apperrors.NewConfigInvalidError(
			fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if c.Bump.Cooldown < 0 {
		return apperrors.NewConfigInvalidError("bump.cooldown must not be negative")
	}
	if c.FloodGuard.RPS < 0 {
		return apperrors.NewConfigInvalidError("flood_guard.rps must not be negative")
	}
	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return apperrors.NewConfigInvalidError(
			fmt.Sprintf("metrics.port %d is out of range", c.Metrics.Port))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
	default:
		return apperrors.NewConfigInvalidError(
			fmt.Sprintf("logging.level %q is not a known level", c.Logging.Level))
	}

	return nil
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

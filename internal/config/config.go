package config

import "time"

// Config represents the complete application configuration, merged from
// defaults, an optional YAML config file, and SBLPD_* environment variables.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Bump       BumpConfig       `mapstructure:"bump"`
	Auth       AuthConfig       `mapstructure:"auth"`
	FloodGuard FloodGuardConfig `mapstructure:"flood_guard"`
	Discord    DiscordConfig    `mapstructure:"discord"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Health     HealthConfig     `mapstructure:"health"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// BumpConfig contains the SBLP protocol settings.
type BumpConfig struct {
	// Cooldown is the minimum interval between accepted bumps.
	// Zero disables the gate entirely.
	Cooldown time.Duration `mapstructure:"cooldown"`

	// BotName is quoted in bump acknowledgement messages.
	BotName string `mapstructure:"bot_name"`
}

// AuthConfig contains bearer token authentication settings.
type AuthConfig struct {
	// Token protects the bump endpoints. Empty disables auth (a warning is
	// logged at startup).
	Token string `mapstructure:"token"`
}

// FloodGuardConfig contains the per-client transport rate limit. This sits in
// front of the protocol cooldown gate and only exists to shed abusive
// clients.
type FloodGuardConfig struct {
	RPS                float64 `mapstructure:"rps"`
	Burst              int     `mapstructure:"burst"`
	TrustXForwardedFor bool    `mapstructure:"trust_x_forwarded_for"`
	RetryAfterSeconds  int     `mapstructure:"retry_after_seconds"`
}

// DiscordConfig connects the listener to the host bot's gateway session so
// mapped bumps carry resolved guild, channel and member entities. Optional;
// without a token the mapper falls back to numeric snowflakes.
type DiscordConfig struct {
	Token string `mapstructure:"token"`
}

// LoggingConfig contains logging configuration.
// Valid levels: trace, debug, info, warn, error.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Enabled controls whether the exporter is started
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated metrics endpoint port (Prometheus format)
	// Metrics are also proxied at /metrics on the main HTTP port
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	// Enabled controls whether health endpoints are exposed
	Enabled bool `mapstructure:"enabled"`
}

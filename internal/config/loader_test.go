package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViperWithDefaults() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViperWithDefaults())
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

	assert.Equal(t, time.Hour, cfg.Bump.Cooldown)
	assert.Equal(t, "sblpd", cfg.Bump.BotName)
	assert.Empty(t, cfg.Auth.Token)

	assert.Equal(t, 5.0, cfg.FloodGuard.RPS)
	assert.Equal(t, 10, cfg.FloodGuard.Burst)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.True(t, cfg.Health.Enabled)
}

func TestLoadAppliesOverrides(t *testing.T) {
	v := newViperWithDefaults()
	v.Set("server.port", 9999)
	v.Set("bump.cooldown", "30m")
	v.Set("bump.bot_name", "BumperBot")
	v.Set("auth.token", "secret")
	v.Set("flood_guard.rps", 0)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Bump.Cooldown)
	assert.Equal(t, "BumperBot", cfg.Bump.BotName)
	assert.Equal(t, "secret", cfg.Auth.Token)
	assert.Zero(t, cfg.FloodGuard.RPS)
}

func TestLoadParsesDurationStrings(t *testing.T) {
	v := newViperWithDefaults()
	v.Set("server.read_timeout", "45s")
	v.Set("bump.cooldown", "2h30m")

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 2*time.Hour+30*time.Minute, cfg.Bump.Cooldown)
}

func TestLoadStoresConfigForGetConfig(t *testing.T) {
	cfg, err := Load(newViperWithDefaults())
	require.NoError(t, err)

	assert.Same(t, cfg, GetConfig())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		set  func(v *viper.Viper)
	}{
		{"port out of range", func(v *viper.Viper) { v.Set("server.port", 99999) }},
		{"negative cooldown", func(v *viper.Viper) { v.Set("bump.cooldown", "-1h") }},
		{"negative flood guard", func(v *viper.Viper) { v.Set("flood_guard.rps", -1) }},
		{"unknown log level", func(v *viper.Viper) { v.Set("logging.level", "loud") }},
		{"metrics port out of range", func(v *viper.Viper) { v.Set("metrics.port", -2) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := newViperWithDefaults()
			tc.set(v)

			_, err := Load(v)
			require.Error(t, err)
		})
	}
}

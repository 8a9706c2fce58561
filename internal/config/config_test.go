package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "records.events", cfg.Events.Channel)
	assert.False(t, cfg.Events.Enabled)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=patient_records sslmode=disable", cfg.Database.DSN())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte(`
server:
  port: 9000
  read_timeout: 5s
database:
  driver: memory
cors:
  allowed_origins:
    - https://records.example.com
`), 0o600)
	require.NoError(t, err)

	t.Setenv("RECORDS_SERVER_PORT", "9090")
	t.Setenv("RECORDS_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"https://records.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestDSNPrefersURL(t *testing.T) {
	c := DatabaseConfig{URL: "postgres://u:p@db:5432/records", Host: "ignored"}
	assert.Equal(t, "postgres://u:p@db:5432/records", c.DSN())
}

func TestValidate(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"driver", func(c *Config) { c.Database.Driver = "sqlite" }},
		{"port", func(c *Config) { c.Server.Port = 0 }},
		{"upload size", func(c *Config) { c.Server.MaxUploadBytes = 0 }},
		{"rate limit", func(c *Config) { c.RateLimit.RPS = 0 }},
		{"events without channel", func(c *Config) {
			c.Events.Enabled = true
			c.Events.Channel = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *base
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "USD", cfg.Currency.Code)
	assert.Equal(t, int32(2), cfg.Currency.MinorUnits)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 24*time.Hour, cfg.JWT.TokenDuration)
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	t.Chdir(t.TempDir())

	path := writeConfig(t, `
server:
  port: 9000
database:
  path: /tmp/trips.db
currency:
  code: JPY
  minor_units: 0
redis:
  lock_ttl: 5s
log:
  level: debug
  format: json
`)
	t.Setenv("PORT", "9100")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "env overrides YAML")
	assert.Equal(t, "/tmp/trips.db", cfg.Database.Path)
	assert.Equal(t, "JPY", cfg.Currency.Code)
	assert.Equal(t, int32(0), cfg.Currency.Policy().MinorUnits)
	assert.Equal(t, 5*time.Second, cfg.Redis.LockTTL)
	assert.Equal(t, 10*time.Minute, cfg.Redis.CacheTTL, "unset YAML keys keep defaults")
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CURRENCY_CODE=EUR\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CURRENCY_CODE") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "EUR", cfg.Currency.Code)
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown currency", map[string]string{"CURRENCY_CODE": "XXZ"}},
		{"too many minor units", map[string]string{"CURRENCY_MINOR_UNITS": "7"}},
		{"bad port", map[string]string{"PORT": "eighty"}},
		{"short secret", map[string]string{"JWT_SECRET": "short"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "verbose"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// unsetenv clears a variable for the test while letting t.Setenv restore
// the original value afterwards.
func unsetenv(t *testing.T, key string) {
	t.Setenv(key, "")
	_ = os.Unsetenv(key)
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"APP_PORT", "APP_ENV", "DATABASE_URL", "DEVMASTER_API_KEY"} {
		unsetenv(t, key)
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.AppPort, "APP_PORT always has a usable default")
	assert.Equal(t, "development", cfg.AppEnv)
	assert.False(t, cfg.IsProduction())
	assert.NotEmpty(t, cfg.DatabaseURL)
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://localhost/sorelly_test")

	cfg := Load()

	assert.Equal(t, "9090", cfg.AppPort)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "postgres://localhost/sorelly_test", cfg.DatabaseURL)
}

func TestIsProduction(t *testing.T) {
	assert.False(t, (&Config{AppEnv: "development"}).IsProduction())
	assert.False(t, (&Config{AppEnv: "test"}).IsProduction())
	assert.True(t, (&Config{AppEnv: "production"}).IsProduction())
}

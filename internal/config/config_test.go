package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("GIN_MODE", "")

	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, DriverPostgres, cfg.DBDriver)
	require.Equal(t, 5*time.Second, cfg.StoreTimeout)
	require.Equal(t, int64(10<<20), cfg.MaxUploadSize)
	require.Equal(t, []string{"*"}, cfg.CORSOrigins)
	require.NotEmpty(t, cfg.JWTSecret)
}

func TestLoadEnvAndFlags(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file:agora.db")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_TIMEOUT", "250ms")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PORT", "9000")

	cfg, err := Load([]string{"--port", "9100"})
	require.NoError(t, err)
	require.Equal(t, "9100", cfg.Port, "flag wins over env")
	require.Equal(t, DriverSQLite, cfg.DBDriver)
	require.Equal(t, "file:agora.db", cfg.DatabaseURL)
	require.Equal(t, "s3cret", cfg.JWTSecret)
	require.Equal(t, 250*time.Millisecond, cfg.StoreTimeout)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestValidate(t *testing.T) {
	cfg := &Config{DBDriver: "mysql", DatabaseURL: "x", StoreTimeout: time.Second, MaxUploadSize: 1}
	require.Error(t, cfg.Validate())

	cfg = &Config{DBDriver: DriverSQLite, DatabaseURL: "x", StoreTimeout: time.Second, MaxUploadSize: 1, GinMode: "release"}
	require.Error(t, cfg.Validate(), "release mode requires a secret")

	cfg.JWTSecret = "k"
	require.NoError(t, cfg.Validate())
	require.Equal(t, uint(1), cfg.VoteRetryAttempts)
}

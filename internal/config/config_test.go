package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, "dev", cfg.Server.Env)
	assert.True(t, cfg.Server.IsDevelopment())
	assert.Equal(t, TokenBackendJWT, cfg.Auth.TokenBackend)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenDuration)
	assert.True(t, cfg.Database.Required)
	assert.Equal(t, 5, cfg.Database.ConnectAttempts)
	assert.Equal(t, 2*time.Second, cfg.Database.ConnectBackoff)
}

func TestLoad_MissingJWTSecretFails(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_PasetoBackend(t *testing.T) {
	t.Setenv("TOKEN_BACKEND", "paseto")
	t.Setenv("PASETO_KEY", "01234567890123456789012345678901")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, TokenBackendPaseto, cfg.Auth.TokenBackend)
}

func TestLoad_PasetoKeyLengthValidated(t *testing.T) {
	t.Setenv("TOKEN_BACKEND", "paseto")
	t.Setenv("PASETO_KEY", "too-short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PASETO_KEY")
}

func TestLoad_UnknownTokenBackend(t *testing.T) {
	t.Setenv("TOKEN_BACKEND", "sessions")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_DegradedModeOptIn(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_REQUIRED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Database.Required)
}

func TestConnectionString(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		User:     "finpilot",
		Password: "pw",
		DBName:   "finpilot",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"host=db port=5432 user=finpilot password=pw dbname=finpilot sslmode=disable",
		cfg.ConnectionString(),
	)
}

func TestGetDurationEnv(t *testing.T) {
	setRequiredEnv(t)

	// Go duration syntax
	t.Setenv("TOKEN_DURATION", "48h")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, cfg.Auth.TokenDuration)

	// Bare seconds
	t.Setenv("SERVER_READ_TIMEOUT", "30")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
}

func TestGetSliceEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TRUSTED_ORIGINS", "https://app.finpilot.io, https://staging.finpilot.io")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"https://app.finpilot.io", "https://staging.finpilot.io"},
		cfg.Server.TrustedOrigins,
	)
}

package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable FromEnv reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"WORKOUTS_ADDR", "WORKOUTS_ENV", "WORKOUTS_DB_DRIVER", "WORKOUTS_DATABASE_URL", "WORKOUTS_LOG_LEVEL",
		"WORKOUTS_JWT_SECRET", "WORKOUTS_JWT_ISSUER", "WORKOUTS_TOKEN_TTL", "WORKOUTS_CSRF_KEY",
		"WORKOUTS_TRUSTED_ORIGINS", "WORKOUTS_RESEND_KEY", "WORKOUTS_EMAIL_FROM", "WORKOUTS_REPLY_TO",
		"WORKOUTS_ADMIN_EMAIL", "WORKOUTS_ADMIN_PASSWORD", "WORKOUTS_RATE_LIMIT",
		"WORKOUTS_SLOW_QUERY_MS", "WORKOUTS_SLOW_REQUEST_MS",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, EnvDevelopment, cfg.Env)
	require.Equal(t, "sqlite", cfg.DBDriver)
	require.Equal(t, "workouts.db", cfg.DatabaseURL)
	require.Equal(t, slog.LevelInfo, cfg.LogLevel)
	require.Equal(t, 24*time.Hour, cfg.TokenTTL)
	require.Equal(t, 10, cfg.RateLimit)
	require.Equal(t, 50*time.Millisecond, cfg.SlowQuery)
	require.Equal(t, 200*time.Millisecond, cfg.SlowRequest)
	require.Len(t, cfg.CSRFKey, 32)
	require.True(t, cfg.CSRFKeyGenerated)
	require.NotEmpty(t, cfg.JWTSecret)
	require.False(t, cfg.IsProduction())
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("WORKOUTS_ADDR", ":9090")
	t.Setenv("WORKOUTS_ENV", "prod")
	t.Setenv("WORKOUTS_DB_DRIVER", "postgres")
	t.Setenv("WORKOUTS_DATABASE_URL", "postgres://localhost/workouts")
	t.Setenv("WORKOUTS_LOG_LEVEL", "debug")
	t.Setenv("WORKOUTS_JWT_SECRET", "s3cret")
	t.Setenv("WORKOUTS_TOKEN_TTL", "2h")
	t.Setenv("WORKOUTS_CSRF_KEY", strings.Repeat("ab", 32))
	t.Setenv("WORKOUTS_TRUSTED_ORIGINS", "app.example.com, admin.example.com")
	t.Setenv("WORKOUTS_RATE_LIMIT", "0")
	t.Setenv("WORKOUTS_SLOW_REQUEST_MS", "500")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Addr)
	require.True(t, cfg.IsProduction())
	require.Equal(t, "postgres", cfg.DBDriver)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel)
	require.Equal(t, "s3cret", cfg.JWTSecret)
	require.Equal(t, 2*time.Hour, cfg.TokenTTL)
	require.False(t, cfg.CSRFKeyGenerated)
	require.Equal(t, byte(0xab), cfg.CSRFKey[0])
	require.Equal(t, []string{"app.example.com", "admin.example.com"}, cfg.TrustedOrigins)
	require.Zero(t, cfg.RateLimit)
	require.Equal(t, 500*time.Millisecond, cfg.SlowRequest)
}

func TestFromEnvProductionRequiresSecrets(t *testing.T) {
	clearEnv(t)
	t.Setenv("WORKOUTS_ENV", "production")

	_, err := FromEnv()
	require.ErrorContains(t, err, "WORKOUTS_CSRF_KEY")

	t.Setenv("WORKOUTS_CSRF_KEY", strings.Repeat("00", 32))
	_, err = FromEnv()
	require.ErrorContains(t, err, "WORKOUTS_JWT_SECRET")
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"WORKOUTS_CSRF_KEY", "not-hex"},
		{"WORKOUTS_CSRF_KEY", "abcd"},
		{"WORKOUTS_TOKEN_TTL", "forever"},
		{"WORKOUTS_RATE_LIMIT", "-1"},
		{"WORKOUTS_SLOW_QUERY_MS", "fast"},
		{"WORKOUTS_LOG_LEVEL", "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			require.Error(t, err)
		})
	}
}

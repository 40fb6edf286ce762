// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Addr        string
	Env         string
	DBDriver    string // sqlite or postgres
	DatabaseURL string
	LogLevel    slog.Level

	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration

	CSRFKey          []byte // 32 bytes
	CSRFKeyGenerated bool   // true when no key was configured
	TrustedOrigins   []string

	ResendKey string
	EmailFrom string
	ReplyTo   string

	AdminEmail    string
	AdminPassword string

	RateLimit   int // requests per second per IP; 0 disables
	SlowQuery   time.Duration
	SlowRequest time.Duration
}

// Load reads .env (if present) and then the WORKOUTS_* environment variables.
// PRE: none
// POST: returns a Config with defaults applied, or an error naming the bad variable
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Addr:          getEnv("WORKOUTS_ADDR", ":8080"),
		Env:           normalizeEnv(getEnv("WORKOUTS_ENV", EnvDevelopment)),
		DBDriver:      getEnv("WORKOUTS_DB_DRIVER", "sqlite"),
		DatabaseURL:   getEnv("WORKOUTS_DATABASE_URL", "workouts.db"),
		JWTSecret:     os.Getenv("WORKOUTS_JWT_SECRET"),
		JWTIssuer:     getEnv("WORKOUTS_JWT_ISSUER", "workouts"),
		ResendKey:     os.Getenv("WORKOUTS_RESEND_KEY"),
		EmailFrom:     getEnv("WORKOUTS_EMAIL_FROM", "Workouts <noreply@example.com>"),
		ReplyTo:       os.Getenv("WORKOUTS_REPLY_TO"),
		AdminEmail:    os.Getenv("WORKOUTS_ADMIN_EMAIL"),
		AdminPassword: os.Getenv("WORKOUTS_ADMIN_PASSWORD"),
	}

	var err error
	if cfg.LogLevel, err = parseLevel(getEnv("WORKOUTS_LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	if cfg.TokenTTL, err = getDuration("WORKOUTS_TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = getInt("WORKOUTS_RATE_LIMIT", 10); err != nil {
		return nil, err
	}
	slowQueryMs, err := getInt("WORKOUTS_SLOW_QUERY_MS", 50)
	if err != nil {
		return nil, err
	}
	cfg.SlowQuery = time.Duration(slowQueryMs) * time.Millisecond
	slowRequestMs, err := getInt("WORKOUTS_SLOW_REQUEST_MS", 200)
	if err != nil {
		return nil, err
	}
	cfg.SlowRequest = time.Duration(slowRequestMs) * time.Millisecond

	if origins := os.Getenv("WORKOUTS_TRUSTED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.TrustedOrigins = append(cfg.TrustedOrigins, o)
			}
		}
	}

	if cfg.CSRFKey, cfg.CSRFKeyGenerated, err = loadCSRFKey(cfg.Env); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("WORKOUTS_JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-secret-change-me"
	}
	return cfg, nil
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c != nil && c.Env == EnvProduction
}

// loadCSRFKey decodes WORKOUTS_CSRF_KEY, or generates a random key outside production.
func loadCSRFKey(env string) ([]byte, bool, error) {
	if keyHex := os.Getenv("WORKOUTS_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, false, errors.New("WORKOUTS_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key, false, nil
	}
	if env == EnvProduction {
		return nil, false, errors.New("WORKOUTS_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("generate CSRF key: %w", err)
	}
	return key, true, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, value)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration such as 24h, got %q", key, value)
	}
	return d, nil
}

func parseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return 0, fmt.Errorf("WORKOUTS_LOG_LEVEL: %w", err)
	}
	return level, nil
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return EnvDevelopment
	case "prod", "production":
		return EnvProduction
	case "test", "testing":
		return EnvTest
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

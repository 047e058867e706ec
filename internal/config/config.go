package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	TokenBackendJWT    = "jwt"
	TokenBackendPaseto = "paseto"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port            string
	Env             string // dev or prod
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedOrigins  []string // CORS allowed origins for the SPA
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	// Required controls what happens when the startup connectivity
	// retries are exhausted: exit non-zero, or keep serving with the
	// user store disabled.
	Required        bool
	ConnectAttempts int
	ConnectBackoff  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type AuthConfig struct {
	// TokenBackend selects the session token implementation: "jwt"
	// (HS256, default) or "paseto" (v4.local).
	TokenBackend string
	JWTSecret    string
	// PasetoKey must be exactly 32 bytes when the paseto backend is used.
	PasetoKey     []byte
	TokenDuration time.Duration
}

// Load reads configuration from environment variables.
// A .env file is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "5000"),
			Env:             getEnv("APP_ENV", "dev"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustedOrigins:  getSliceEnv("TRUSTED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "finpilot"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			Required:        getBoolEnv("DB_REQUIRED", true),
			ConnectAttempts: getIntEnv("DB_CONNECT_ATTEMPTS", 5),
			ConnectBackoff:  getDurationEnv("DB_CONNECT_BACKOFF", 2*time.Second),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			TokenBackend:  getEnv("TOKEN_BACKEND", TokenBackendJWT),
			JWTSecret:     os.Getenv("JWT_SECRET"),
			PasetoKey:     []byte(os.Getenv("PASETO_KEY")),
			TokenDuration: getDurationEnv("TOKEN_DURATION", 7*24*time.Hour),
		},
	}

	// A missing signing secret is a startup error, never a silent default.
	switch cfg.Auth.TokenBackend {
	case TokenBackendJWT:
		if cfg.Auth.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET must be set")
		}
	case TokenBackendPaseto:
		if len(cfg.Auth.PasetoKey) != 32 {
			return nil, fmt.Errorf("PASETO_KEY must be exactly 32 bytes, got %d", len(cfg.Auth.PasetoKey))
		}
	default:
		return nil, fmt.Errorf("unknown TOKEN_BACKEND %q", cfg.Auth.TokenBackend)
	}

	if cfg.Database.ConnectAttempts < 1 {
		return nil, fmt.Errorf("DB_CONNECT_ATTEMPTS must be at least 1, got %d", cfg.Database.ConnectAttempts)
	}

	return cfg, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Address returns the Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if d, err := time.ParseDuration(value); err == nil {
		return d
	}

	// Bare numbers are treated as seconds.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}

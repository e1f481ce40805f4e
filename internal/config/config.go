package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type NotFoundPolicy string

const (
	// NotFoundLegacy answers misses with 200 and a null body (or "Deleted").
	NotFoundLegacy NotFoundPolicy = "legacy"
	// NotFoundStrict answers misses with 404.
	NotFoundStrict NotFoundPolicy = "strict"
)

var ErrMissingDSN = errors.New("POSTGRES_DSN is not set")

type AppConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	NotFoundPolicy  NotFoundPolicy
	RateLimit       int
	RateLimitWindow time.Duration
	// ValidatePayloads enables field rules on create and update bodies.
	// Off by default: any well-formed person is stored as sent.
	ValidatePayloads   bool
	CORSAllowedOrigins []string
}

type DbConfig struct {
	DSN             string
	PersistenceUnit string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	Migrate         bool
}

type Config struct {
	AppConfig *AppConfig
	DbConfig  *DbConfig
}

// LoadConfig reads an optional .env file and then the process environment.
// The file path comes from CONFIG_ENV_FILE and defaults to ".env".
func LoadConfig(logger *zap.Logger) (*Config, error) {
	envFile := os.Getenv("CONFIG_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		logger.Warn("no .env file loaded, using process environment",
			zap.String("path", envFile),
			zap.Error(err),
		)
	}

	/** db config */
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		return nil, ErrMissingDSN
	}

	maxOpenConns, err := intEnv("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return nil, err
	}
	maxIdleConns, err := intEnv("DB_MAX_IDLE_CONNS", 5)
	if err != nil {
		return nil, err
	}
	maxConnLifetime, err := durationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	migrate, err := boolEnv("DB_MIGRATE", true)
	if err != nil {
		return nil, err
	}

	dbConfig := &DbConfig{
		DSN:             dsn,
		PersistenceUnit: stringEnv("DB_PERSISTENCE_UNIT", "personPU"),
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		MaxConnLifetime: maxConnLifetime,
		Migrate:         migrate,
	}

	/** app config */
	readTimeout, err := durationEnv("APP_READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	writeTimeout, err := durationEnv("APP_WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	idleTimeout, err := durationEnv("APP_IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}
	requestTimeout, err := durationEnv("APP_REQUEST_TIMEOUT", 3*time.Second)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := durationEnv("APP_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	rateLimit, err := intEnv("APP_RATE_LIMIT_REQUESTS", 100)
	if err != nil {
		return nil, err
	}
	rateLimitWindow, err := durationEnv("APP_RATE_LIMIT_WINDOW", time.Minute)
	if err != nil {
		return nil, err
	}

	validatePayloads, err := boolEnv("APP_VALIDATE_PAYLOADS", false)
	if err != nil {
		return nil, err
	}

	policy := NotFoundPolicy(stringEnv("APP_NOT_FOUND_POLICY", string(NotFoundLegacy)))
	switch policy {
	case NotFoundLegacy, NotFoundStrict:
	default:
		return nil, fmt.Errorf("APP_NOT_FOUND_POLICY: unknown policy %q", policy)
	}

	appConfig := &AppConfig{
		Port:            stringEnv("APP_PORT", "8080"),
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		IdleTimeout:     idleTimeout,
		RequestTimeout:  requestTimeout,
		ShutdownTimeout: shutdownTimeout,
		NotFoundPolicy:  policy,
		RateLimit:       rateLimit,
		RateLimitWindow: rateLimitWindow,

		ValidatePayloads:   validatePayloads,
		CORSAllowedOrigins: listEnv("APP_CORS_ALLOWED_ORIGINS"),
	}

	return &Config{
		AppConfig: appConfig,
		DbConfig:  dbConfig,
	}, nil
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// listEnv splits a comma separated value, dropping blanks.
func listEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

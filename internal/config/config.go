package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	DriverSQLite = "sqlite3"
	DriverBadger = "badger"
	DriverRedis  = "redis"
)

var validate = validator.New()

// Config holds all configuration for the application.
type Config struct {
	AppEnv string `validate:"oneof=development production test"`

	DBDriver   string `validate:"oneof=sqlite3 badger redis"`
	DBPath     string `validate:"required_if=DBDriver sqlite3"`
	BadgerPath string `validate:"required_if=DBDriver badger"`

	RedisAddr     string `validate:"required_if=DBDriver redis,omitempty,hostname_port"`
	RedisPassword string
	RedisDB       int `validate:"gte=0,lte=15"`

	CacheEnabled bool
	CacheTTL     time.Duration `validate:"gt=0"`

	GRPCPort              int `validate:"gte=0,lte=65535"`
	GRPCReflectionEnabled bool
	// MetricsPort of 0 disables the metrics listener.
	MetricsPort int `validate:"gte=0,lte=65535"`

	Timezone string `validate:"required,timezone"`

	ClassifierAPIKey  string
	ClassifierBaseURL string `validate:"omitempty,url"`
	ClassifierModel   string

	FoldMaxAttempts      int `validate:"gte=1,lte=100"`
	AssessmentMaxAnswers int `validate:"gte=1,lte=50"`
}

// LoadFromEnv loads configuration from environment variables and validates it.
func LoadFromEnv() (*Config, error) {
	var errs []error
	intVar := func(key string, fallback int) int {
		v, err := getEnvInt(key, fallback)
		errs = append(errs, err)
		return v
	}
	boolVar := func(key string, fallback bool) bool {
		v, err := getEnvBool(key, fallback)
		errs = append(errs, err)
		return v
	}

	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "10m"))
	if err != nil {
		errs = append(errs, fmt.Errorf("CACHE_TTL: %w", err))
	}

	cfg := &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		DBDriver:              getEnv("DB_DRIVER", DriverSQLite),
		DBPath:                getEnv("DB_PATH", "./data/wellbeing.db"),
		BadgerPath:            getEnv("BADGER_PATH", "./data/badger"),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		RedisDB:               intVar("REDIS_DB", 0),
		CacheEnabled:          boolVar("CACHE_ENABLED", false),
		CacheTTL:              cacheTTL,
		GRPCPort:              intVar("GRPC_PORT", 50052),
		GRPCReflectionEnabled: boolVar("GRPC_REFLECTION_ENABLED", false),
		MetricsPort:           intVar("METRICS_PORT", 9090),
		Timezone:              getEnv("TIMEZONE", "UTC"),
		ClassifierAPIKey:      getEnv("CLASSIFIER_API_KEY", ""),
		ClassifierBaseURL:     getEnv("CLASSIFIER_BASE_URL", ""),
		ClassifierModel:       getEnv("CLASSIFIER_MODEL", ""),
		FoldMaxAttempts:       intVar("FOLD_MAX_ATTEMPTS", 5),
		AssessmentMaxAnswers:  intVar("ASSESSMENT_MAX_ANSWERS", 5),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Location returns the zone that decides each observation's calendar day.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

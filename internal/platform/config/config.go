package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultTokenTTL bounds how long a token keeps a role or account state that has
// since changed; claims are not re-read from the store.
const DefaultTokenTTL = time.Hour

const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

type Config struct {
	Addr                 string
	Environment          string
	Timezone             string
	DatabaseURL          string
	DBMaxConns           int
	DBTimeout            time.Duration
	RunMigrations        bool
	RunSeed              bool
	SeedAdminEmail       string
	SeedAdminPassword    string
	SeedAdminName        string
	JWTSecret            string
	TokenTTL             time.Duration
	MaxBodyBytes         int64
	RateLimitPerMinute   int
	RateLimitWindow      time.Duration
	RateLimitBackend     string
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	LogLevel             string
	MetricsEnabled       bool
	DailyOvertimeHours   float64
	MonthlyOvertimeHours float64
	SalariedReportHours  float64
	WorkWindowDays       int
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first; variables already set in the environment win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:                 getEnv("APP_ADDR", ":8080"),
		Environment:          getEnv("APP_ENV", "development"),
		Timezone:             getEnv("APP_TIMEZONE", "Local"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		DBMaxConns:           getEnvInt("DB_MAX_CONNS", 10),
		DBTimeout:            getEnvDuration("DB_TIMEOUT", 5*time.Second),
		RunMigrations:        getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:              getEnvBool("RUN_SEED", true),
		SeedAdminEmail:       getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword:    getEnv("SEED_ADMIN_PASSWORD", ""),
		SeedAdminName:        getEnv("SEED_ADMIN_NAME", "Administrator"),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		TokenTTL:             getEnvDuration("TOKEN_TTL", DefaultTokenTTL),
		MaxBodyBytes:         int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute:   getEnvInt("RATE_LIMIT_PER_MINUTE", 100),
		RateLimitWindow:      getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitBackend:     strings.ToLower(getEnv("RATE_LIMIT_BACKEND", RateLimitBackendMemory)),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		MetricsEnabled:       getEnvBool("METRICS_ENABLED", true),
		DailyOvertimeHours:   getEnvFloat("DAILY_OVERTIME_HOURS", 8),
		MonthlyOvertimeHours: getEnvFloat("MONTHLY_OVERTIME_HOURS", 160),
		SalariedReportHours:  getEnvFloat("SALARIED_REPORT_HOURS", 160),
		WorkWindowDays:       getEnvInt("WORK_WINDOW_DAYS", 30),
	}
}

// Location resolves the configured timezone used for the calendar day boundary.
func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.TokenTTL < 0 {
		return fmt.Errorf("TOKEN_TTL must not be negative")
	}
	if c.DBTimeout <= 0 {
		return fmt.Errorf("DB_TIMEOUT must be positive")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	switch c.RateLimitBackend {
	case RateLimitBackendMemory:
	case RateLimitBackendRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return fmt.Errorf("REDIS_ADDR must be set when RATE_LIMIT_BACKEND is redis")
		}
	default:
		return fmt.Errorf("RATE_LIMIT_BACKEND must be %q or %q", RateLimitBackendMemory, RateLimitBackendRedis)
	}
	if c.DailyOvertimeHours <= 0 || c.MonthlyOvertimeHours <= 0 {
		return fmt.Errorf("overtime thresholds must be positive")
	}
	if c.SalariedReportHours < 0 {
		return fmt.Errorf("SALARIED_REPORT_HOURS must not be negative")
	}
	if c.WorkWindowDays <= 0 {
		return fmt.Errorf("WORK_WINDOW_DAYS must be positive")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("APP_TIMEZONE is invalid: %w", err)
	}
	return nil
}

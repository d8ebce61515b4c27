package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port        string
	Env         string
	JWTSecret   string
	CORSOrigins []string

	DB      DatabaseConfig
	Redis   RedisConfig
	Pricing PricingConfig
	Worker  WorkerConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// PricingConfig contains tunables for pricing and deadline computation.
type PricingConfig struct {
	BufferDays       int
	AgentSearchLimit int
	Timezone         string
	CacheTTL         time.Duration
	MutationLockTTL  time.Duration
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	CampaignSweepInterval time.Duration
}

// Location resolves the business time zone used for date-only arithmetic.
func (p PricingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.FixedZone("WIB", 7*3600)
	}
	return loc
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Missing .env is fine: production relies on real environment variables.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.CORSOrigins = splitList(getEnv("CORS_ALLOWED_HOSTS", "localhost:3000,127.0.0.1:3000"))

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Pricing
	cfg.Pricing = PricingConfig{
		BufferDays:       getEnvInt("PRICING_BUFFER_DAYS", 7),
		AgentSearchLimit: getEnvInt("AGENT_SEARCH_LIMIT", 10),
		Timezone:         getEnv("BUSINESS_TIMEZONE", "Asia/Jakarta"),
	}

	var err error
	if cfg.Pricing.CacheTTL, err = parseDurationEnv("PRICING_CACHE_TTL", "5m"); err != nil {
		return nil, fmt.Errorf("invalid PRICING_CACHE_TTL: %w", err)
	}
	if cfg.Pricing.MutationLockTTL, err = parseDurationEnv("MUTATION_LOCK_TTL", "30s"); err != nil {
		return nil, fmt.Errorf("invalid MUTATION_LOCK_TTL: %w", err)
	}
	if cfg.Worker.CampaignSweepInterval, err = parseDurationEnv("CAMPAIGN_SWEEP_INTERVAL", "1h"); err != nil {
		return nil, fmt.Errorf("invalid CAMPAIGN_SWEEP_INTERVAL: %w", err)
	}

	if cfg.Pricing.BufferDays < 0 {
		return nil, errors.New("PRICING_BUFFER_DAYS must be >= 0")
	}
	if cfg.Pricing.AgentSearchLimit <= 0 {
		cfg.Pricing.AgentSearchLimit = 10
	}
	if _, err := time.LoadLocation(cfg.Pricing.Timezone); err != nil {
		return nil, fmt.Errorf("invalid BUSINESS_TIMEZONE: %w", err)
	}

	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for authentication")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}

// splitList splits a comma-separated variable, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}

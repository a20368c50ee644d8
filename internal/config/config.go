package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Backend identifies which catalog store implementation DATABASE_URL selects.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendMongo    Backend = "mongo"
	BackendMemory   Backend = "memory"
)

// Config holds all runtime settings of the API process.
type Config struct {
	DatabaseURL   string        `env:"DATABASE_URL,required"`
	MongoDatabase string        `env:"MONGODB_DATABASE,default=plantshop"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	CacheTTL      time.Duration `env:"CACHE_TTL,default=5m"`

	Port     string `env:"APP_PORT,default=4000"`
	Env      string `env:"APP_ENV,default=development"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	JWTSecret         string `env:"JWT_SECRET"`
	AdminEmail        string `env:"ADMIN_EMAIL,default=admin@plantshop.local"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`

	RateLimitRPS   int `env:"RATE_LIMIT_RPS,default=20"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST,default=40"`
}

// Load reads an optional .env file and decodes the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not load .env: %v. Relying on system environment variables.", err)
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if _, err := cfg.Backend(); err != nil {
		return nil, err
	}
	if cfg.AdminPasswordHash != "" && cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required when ADMIN_PASSWORD_HASH is set")
	}
	return &cfg, nil
}

// Backend derives the store implementation from the DATABASE_URL scheme.
func (c *Config) Backend() (Backend, error) {
	return BackendFromURL(c.DatabaseURL)
}

// BackendFromURL maps a connection string to a Backend.
func BackendFromURL(raw string) (Backend, error) {
	scheme, _, ok := strings.Cut(raw, "://")
	if !ok {
		return "", fmt.Errorf("DATABASE_URL %q has no scheme", raw)
	}
	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		return BackendPostgres, nil
	case "mongodb", "mongodb+srv":
		return BackendMongo, nil
	case "memory":
		return BackendMemory, nil
	default:
		return "", fmt.Errorf("unsupported DATABASE_URL scheme %q", scheme)
	}
}

// Development reports whether the process runs with developer defaults.
func (c *Config) Development() bool {
	return c.Env == "development" || c.Env == "local"
}

// AuthEnabled reports whether write routes require an admin token.
func (c *Config) AuthEnabled() bool {
	return c.AdminPasswordHash != ""
}

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
	StorageModeSplit    = "split"
	StorageModePostgres = "postgres"
	StorageModeMemory   = "memory"
)

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration
	StoreTimeout            time.Duration

	StorageMode   string
	DatabaseURL   string
	DBMaxConns    int32
	DBMinConns    int32
	MongoURI      string
	MongoDatabase string
	RedisURL      string

	JWTSecret  string
	BcryptCost int

	CORSOrigins      []string
	RateLimitRPM     int
	AuthRateLimitRPM int
	StaticRoot       string

	PaymentWebhookSecret    string
	PaymentWebhookTolerance time.Duration

	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 30*time.Second),
		StoreTimeout:            getDuration("STORE_TIMEOUT", 5*time.Second),
		StorageMode:             strings.ToLower(getEnv("STORAGE_MODE", StorageModeSplit)),
		DatabaseURL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:              int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:              int32(getInt("DB_MIN_CONNS", 2)),
		MongoURI:                strings.TrimSpace(os.Getenv("MONGO_URI")),
		MongoDatabase:           getEnv("MONGO_DATABASE", "fittrack"),
		RedisURL:                strings.TrimSpace(os.Getenv("REDIS_URL")),
		JWTSecret:               strings.TrimSpace(os.Getenv("JWT_SECRET")),
		BcryptCost:              getInt("BCRYPT_COST", 12),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 100),
		AuthRateLimitRPM:        getInt("AUTH_RATE_LIMIT_RPM", 10),
		StaticRoot:              getEnv("STATIC_ROOT", "./static"),
		PaymentWebhookSecret:    strings.TrimSpace(os.Getenv("PAYMENT_WEBHOOK_SECRET")),
		PaymentWebhookTolerance: getDuration("PAYMENT_WEBHOOK_TOLERANCE", 5*time.Minute),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               getEnv("LOG_FORMAT", "pretty"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET is required and must be at least 32 bytes")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}

	switch c.StorageMode {
	case StorageModeSplit:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for storage mode %q", c.StorageMode)
		}
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for storage mode %q", c.StorageMode)
		}
	case StorageModePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for storage mode %q", c.StorageMode)
		}
	case StorageModeMemory:
	default:
		return fmt.Errorf("STORAGE_MODE must be one of split, postgres, memory")
	}

	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS")
	}

	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}

	if c.PaymentWebhookTolerance <= 0 {
		return fmt.Errorf("PAYMENT_WEBHOOK_TOLERANCE must be positive")
	}

	return nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}

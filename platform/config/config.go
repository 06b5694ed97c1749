// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetBookingRateLimit() (rps float64, burst int)
}

// RedisConfig provides the shared Redis connection used for caching.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// SchedulerConfig provides settings for the asynq background scheduler.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketServiceAttachments() string
	IsMinIOEnabled() bool
}

// BookingConfig provides tunables for the service booking engine.
type BookingConfig interface {
	GetSessionIdleTimeout() time.Duration
	GetScriptCacheTTL() time.Duration
}

// TelemetryConfig provides OpenTelemetry exporter settings.
type TelemetryConfig interface {
	GetOTLPEndpoint() string
	GetOTLPInsecure() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                           string
	HTTPAddr                      string
	DatabaseURL                   string
	JWTAccessSecret               string
	CORSAllowAll                  bool
	CORSOrigins                   []string
	CORSAllowCreds                bool
	BookingRateLimitRPS           float64
	BookingRateLimitBurst         int
	RedisURL                      string
	RedisTLSInsecure              bool
	AsynqQueueName                string
	AsynqConcurrency              int
	MinIOEndpoint                 string
	MinIOAccessKey                string
	MinIOSecretKey                string
	MinIOUseSSL                   bool
	MinIOMaxFileSize              int64
	MinioBucketServiceAttachments string
	SessionIdleTimeout            time.Duration
	ScriptCacheTTL                time.Duration
	OTLPEndpoint                  string
	OTLPInsecure                  bool
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }
func (c *Config) GetBookingRateLimit() (float64, int) {
	return c.BookingRateLimitRPS, c.BookingRateLimitBurst
}

// RedisConfig / SchedulerConfig implementation
func (c *Config) GetRedisURL() string        { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool  { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string  { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int   { return c.AsynqConcurrency }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string   { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string  { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string  { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool       { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64 { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketServiceAttachments() string {
	return c.MinioBucketServiceAttachments
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// BookingConfig implementation
func (c *Config) GetSessionIdleTimeout() time.Duration { return c.SessionIdleTimeout }
func (c *Config) GetScriptCacheTTL() time.Duration     { return c.ScriptCacheTTL }

// TelemetryConfig implementation
func (c *Config) GetOTLPEndpoint() string { return c.OTLPEndpoint }
func (c *Config) GetOTLPInsecure() bool   { return c.OTLPInsecure }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                           getEnv("APP_ENV", "development"),
		HTTPAddr:                      getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:                   getEnv("DATABASE_URL", ""),
		JWTAccessSecret:               getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:                  corsAllowAll,
		CORSOrigins:                   corsOrigins,
		CORSAllowCreds:                strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		BookingRateLimitRPS:           mustFloat(getEnv("BOOKING_RATE_LIMIT_RPS", "5")),
		BookingRateLimitBurst:         int(mustInt64(getEnv("BOOKING_RATE_LIMIT_BURST", "20"))),
		RedisURL:                      getEnv("REDIS_URL", ""),
		RedisTLSInsecure:              strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:                getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:              int(mustInt64(getEnv("ASYNQ_CONCURRENCY", "10"))),
		MinIOEndpoint:                 getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:                getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:                getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:                   strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:              mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "10485760")),
		MinioBucketServiceAttachments: getEnv("MINIO_BUCKET_SERVICE_ATTACHMENTS", "service-attachments"),
		SessionIdleTimeout:            mustDuration(getEnv("SESSION_IDLE_TIMEOUT", "24h")),
		ScriptCacheTTL:                mustDuration(getEnv("SCRIPT_CACHE_TTL", "24h")),
		OTLPEndpoint:                  getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:                  strings.EqualFold(getEnv("OTEL_EXPORTER_OTLP_INSECURE", "false"), "true"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.SessionIdleTimeout <= 0 {
		return nil, fmt.Errorf("SESSION_IDLE_TIMEOUT must be a positive duration")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}

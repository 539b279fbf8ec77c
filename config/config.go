/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L4
Logic:       Gateway configuration: listen address, store backend
             selection (Redis with in-memory fallback), sliding
             window parameters, and body-size/logging knobs.
Root Cause:  Sprint task — gateway configuration surface.
Context:     Narrowed from a multi-provider proxy config down to
             what the admission-controlled completion gateway
             actually needs.
Suitability: L4 model used for security-adjacent config design.
──────────────────────────────────────────────────────────────
*/

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// StoreBackend selects which Store implementation backs the admission
// controller.
type StoreBackend string

const (
	StoreBackendRedis  StoreBackend = "redis"
	StoreBackendMemory StoreBackend = "memory"
)

// Config holds all gateway configuration values.
type Config struct {
	// Server
	Addr            string
	Env             string
	GracefulTimeout time.Duration
	Workers         int

	// Redis
	RedisURL string

	// Credential header
	CredentialHeader string

	// Store backend: "redis" or "memory". Falls back to memory
	// automatically if Redis is unreachable at startup.
	StoreBackend StoreBackend

	// Sliding window parameters, as read from the environment. The
	// admission path does not consult them: it uses the fixed
	// ratelimit.Window (60s) and ratelimit.KeyTTL (3600s).
	WindowSeconds int64
	KeyTTLSeconds int64

	// Body limits
	MaxBodyBytes int64

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables and optional .env file.
func Load() *Config {
	_ = godotenv.Load()

	gracefulSec := getEnvInt("GATEWAY_GRACEFUL_TIMEOUT_SEC", 15)

	cfg := &Config{
		Addr:              getEnv("GATEWAY_PORT", ":8000"),
		Env:               getEnv("ENV", "development"),
		GracefulTimeout:   time.Duration(gracefulSec) * time.Second,
		Workers:           getEnvInt("GATEWAY_WORKERS", 1),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379"),
		CredentialHeader:  getEnv("API_KEY_HEADER", "Authorization"),
		StoreBackend:      StoreBackend(getEnv("STORE_BACKEND", string(StoreBackendRedis))),
		WindowSeconds:     int64(getEnvInt("RATE_LIMIT_WINDOW_SEC", 60)),
		KeyTTLSeconds:     int64(getEnvInt("RATE_LIMIT_TTL_SEC", 3600)),
		MaxBodyBytes:      int64(getEnvInt("GATEWAY_MAX_BODY_BYTES", 1*1024*1024)),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}
	if cfg.Addr != "" && cfg.Addr[0] != ':' {
		cfg.Addr = ":" + cfg.Addr
	}
	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

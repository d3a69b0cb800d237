package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	API      APIConfig
	Dev      DevConfig
	Cache    CacheConfig
	Purchase PurchaseConfig
	Debug    bool
}

type APIConfig struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
}

type DevConfig struct {
	Addr string
}

type CacheConfig struct {
	TTL time.Duration
}

type PurchaseConfig struct {
	// WhatsApp is the default number for ticket delivery. Empty skips it.
	WhatsApp string
}

// Load reads an optional .env file from the working directory and then the
// process environment. Values already set in the environment win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		API: APIConfig{
			BaseURL:     strings.TrimRight(getEnv("TAQUILLA_API_URL", "http://localhost:3000/api"), "/"),
			Timeout:     getEnvDuration("TAQUILLA_HTTP_TIMEOUT", 12*time.Second),
			MaxAttempts: getEnvInt("TAQUILLA_MAX_ATTEMPTS", 3),
		},
		Dev: DevConfig{
			Addr: getEnv("TAQUILLA_DEV_ADDR", ":3000"),
		},
		Cache: CacheConfig{
			TTL: getEnvDuration("TAQUILLA_CACHE_TTL", 10*time.Minute),
		},
		Purchase: PurchaseConfig{
			WhatsApp: strings.TrimSpace(getEnv("TAQUILLA_WHATSAPP", "")),
		},
		Debug: getEnvBool("TAQUILLA_DEBUG", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("15s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
		return parsed
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

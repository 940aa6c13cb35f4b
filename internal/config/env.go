// Package config provides centralized configuration management.
// All environment lookups live here instead of scattered os.Getenv calls.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// AppEnv holds all ZenSpace environment variables.
type AppEnv struct {
	// APIKey is the generative API key (ZENSPACE_API_KEY, falls back to
	// GEMINI_API_KEY then GOOGLE_API_KEY)
	APIKey string

	// Model is the generative model used for analysis and chat (ZENSPACE_MODEL)
	Model string

	// DataDir is where persisted state lives (ZENSPACE_DATA_DIR)
	DataDir string

	// MaxTokens is the rate limiter bucket capacity (ZENSPACE_RATE_MAX)
	MaxTokens float64

	// RefillRate is the rate limiter refill in tokens/second (ZENSPACE_RATE_REFILL)
	RefillRate float64

	// MaxRetries is the default remote-call retry budget (ZENSPACE_MAX_RETRIES)
	MaxRetries int

	// StorageQuota caps the persisted blob size in bytes, 0 = unlimited
	// (ZENSPACE_STORAGE_QUOTA)
	StorageQuota int64
}

// HasAPIKey reports whether a generative API key is configured.
func (e *AppEnv) HasAPIKey() bool {
	return e.APIKey != ""
}

var (
	env     *AppEnv
	envOnce sync.Once
)

// Env returns the singleton environment configuration.
// Thread-safe, loads once on first call.
func Env() *AppEnv {
	envOnce.Do(func() {
		env = &AppEnv{
			APIKey:       firstEnv("ZENSPACE_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"),
			Model:        getEnvDefault("ZENSPACE_MODEL", "gemini-2.0-flash-exp"),
			DataDir:      getEnvDefault("ZENSPACE_DATA_DIR", defaultDataDir()),
			MaxTokens:    getEnvFloat("ZENSPACE_RATE_MAX", 5),
			RefillRate:   getEnvFloat("ZENSPACE_RATE_REFILL", 10.0/60.0),
			MaxRetries:   getEnvInt("ZENSPACE_MAX_RETRIES", 3),
			StorageQuota: int64(getEnvInt("ZENSPACE_STORAGE_QUOTA", 0)),
		}
	})
	return env
}

// ResetEnv resets the cached environment (for testing).
func ResetEnv() {
	envOnce = sync.Once{}
	env = nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".zenspace")
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// Package config loads corekv's runtime settings from environment
// variables. There is no flag parsing and no config file: every knob is an
// env var with a documented default.
package config

import (
	"os"
	"strconv"
	"time"
)

// CacheServerConfig holds the cache HTTP adapter's settings.
type CacheServerConfig struct {
	Port                 int
	StorageServiceURL    string
	MaxCacheSize         int
	DefaultTTLSeconds    int64
	RateLimitMaxRequests int
	RateLimitWindow      time.Duration
}

// StoreServerConfig holds the store HTTP adapter's settings.
type StoreServerConfig struct {
	Port                 int
	DataPath             string
	BackupInterval       time.Duration
	MaxFileSizeBytes     int64
	RateLimitMaxRequests int
	RateLimitWindow      time.Duration
}

// LoadCacheServerConfig reads the cache adapter's env vars, applying
// defaults for anything unset or unparseable.
func LoadCacheServerConfig() CacheServerConfig {
	return CacheServerConfig{
		Port:                 envInt("PORT", 3001),
		StorageServiceURL:    envString("STORAGE_SERVICE_URL", "http://localhost:3002"),
		MaxCacheSize:         envInt("MAX_CACHE_SIZE", 1000),
		DefaultTTLSeconds:    envInt64("DEFAULT_TTL", 3600),
		RateLimitMaxRequests: envInt("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitWindow:      time.Duration(envInt64("RATE_LIMIT_WINDOW_MS", 60000)) * time.Millisecond,
	}
}

// LoadStoreServerConfig reads the store adapter's env vars, applying
// defaults for anything unset or unparseable.
func LoadStoreServerConfig() StoreServerConfig {
	return StoreServerConfig{
		Port:                 envInt("PORT", 3002),
		DataPath:             envString("DATA_PATH", "./data"),
		BackupInterval:       time.Duration(envInt64("BACKUP_INTERVAL", 300000)) * time.Millisecond,
		MaxFileSizeBytes:     envInt64("MAX_FILE_SIZE", 10485760),
		RateLimitMaxRequests: envInt("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitWindow:      time.Duration(envInt64("RATE_LIMIT_WINDOW_MS", 60000)) * time.Millisecond,
	}
}

func envString(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envInt64(name string, fallback int64) int64 {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

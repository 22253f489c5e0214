package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config carries everything the terminal needs at startup. All values come
// from the environment; BACKEND_URL is the only one an operator normally sets.
type Config struct {
	ServiceName string
	Env         string

	// BackendURL is the base URL of the store backend, without a trailing slash.
	BackendURL string

	// MetricsAddr enables the /metrics listener when non-empty.
	MetricsAddr string

	// TokenFile is where the bearer token is persisted between restarts.
	TokenFile string

	SearchDebounce time.Duration
	RequestTimeout time.Duration
}

func Load() Config {
	return Config{
		ServiceName:    getenvDefault("SERVICE_NAME", "grocerpos-terminal"),
		Env:            getenvDefault("ENV", "dev"),
		BackendURL:     getenvDefault("BACKEND_URL", "http://localhost:8000"),
		MetricsAddr:    os.Getenv("METRICS_ADDR"),
		TokenFile:      getenvDefault("TOKEN_FILE", defaultTokenFile()),
		SearchDebounce: getenvDuration("SEARCH_DEBOUNCE_MS", 300*time.Millisecond),
		RequestTimeout: getenvDuration("REQUEST_TIMEOUT_MS", 10*time.Second),
	}
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".grocerpos-token")
	}
	return filepath.Join(dir, "grocerpos", "token")
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

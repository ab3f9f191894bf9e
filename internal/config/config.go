// Package config reads client settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/mmynk/subtrack/internal/subscriptions"
)

type Config struct {
	API       APIConfig
	Session   SessionConfig
	List      ListConfig
	Dashboard DashboardConfig
	Metrics   MetricsConfig
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SessionConfig struct {
	DBPath string
}

type ListConfig struct {
	PageSize       int
	Sort           subscriptions.Sort
	SearchDebounce time.Duration
}

type DashboardConfig struct {
	FetchSize int
}

type MetricsConfig struct {
	// Addr is where /metrics is served. Empty disables the endpoint.
	Addr string
}

// DevServerConfig configures cmd/devserver.
type DevServerConfig struct {
	Addr      string
	JWTSecret string
	Seed      bool
}

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	timeout, err := getDuration("SUBTRACK_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	pageSize, err := getPositiveInt("SUBTRACK_PAGE_SIZE", 10)
	if err != nil {
		return nil, err
	}
	sort, err := subscriptions.ParseSort(getEnv("SUBTRACK_SORT", "id,asc"))
	if err != nil {
		return nil, fmt.Errorf("invalid SUBTRACK_SORT: %w", err)
	}
	debounce, err := getDuration("SUBTRACK_SEARCH_DEBOUNCE", 450*time.Millisecond)
	if err != nil {
		return nil, err
	}
	fetchSize, err := getPositiveInt("SUBTRACK_DASHBOARD_SIZE", 200)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL: getEnv("SUBTRACK_API_URL", "http://localhost:8080/api"),
			Timeout: timeout,
		},
		Session: SessionConfig{
			DBPath: getEnv("SUBTRACK_SESSION_DB", defaultSessionPath()),
		},
		List: ListConfig{
			PageSize:       pageSize,
			Sort:           sort,
			SearchDebounce: debounce,
		},
		Dashboard: DashboardConfig{
			FetchSize: fetchSize,
		},
		Metrics: MetricsConfig{
			Addr: getEnv("SUBTRACK_METRICS_ADDR", ""),
		},
	}
	return cfg, nil
}

// LoadDevServer reads the development server settings.
func LoadDevServer() (*DevServerConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	seed, err := strconv.ParseBool(getEnv("DEVSERVER_SEED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEVSERVER_SEED: %w", err)
	}
	return &DevServerConfig{
		Addr:      getEnv("DEVSERVER_ADDR", ":8080"),
		JWTSecret: getEnv("DEVSERVER_JWT_SECRET", "dev-secret-change-me"),
		Seed:      seed,
	}, nil
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".subtrack", "session.db")
	}
	return filepath.Join(home, ".subtrack", "session.db")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %s", key, d)
	}
	return d, nil
}

func getPositiveInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %d", key, n)
	}
	return n, nil
}

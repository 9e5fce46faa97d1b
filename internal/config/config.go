package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backend names accepted in STORAGE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendGitHub   = "github"
)

// Config holds all configuration for the application.
type Config struct {
	Host    string
	Port    string
	BaseURL string

	StorageBackend string
	DBFile         string // file backend
	SQLitePath     string
	DatabaseURL    string // postgres backend

	GitHubToken string
	GitHubOwner string
	GitHubRepo  string
	GitHubDir   string

	MaxScriptLength    int
	MaxScriptsPerOwner int

	RateLimitWindow time.Duration
	RateLimitMax    int

	CacheEnabled bool
	CacheTTL     time.Duration
	CacheSize    int

	AllowedClients []string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	// Check current directory first, then walk up to find project root (where go.mod is)
	_ = godotenv.Load() // Try current directory

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		Host:           getEnv("HOST", "0.0.0.0"),
		Port:           getEnv("PORT", "3000"),
		StorageBackend: getEnv("STORAGE_BACKEND", BackendMemory),
		DBFile:         getEnv("DB_FILE", "./data/scripts.json"),
		SQLitePath:     getEnv("SQLITE_PATH", "./data/scripts.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		GitHubToken:    getEnv("GITHUB_TOKEN", ""),
		GitHubOwner:    getEnv("GITHUB_OWNER", ""),
		GitHubRepo:     getEnv("GITHUB_REPO", ""),
		GitHubDir:      getEnv("GITHUB_DIR", "scripts"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
	}
	cfg.BaseURL = getEnv("BASE_URL", "http://localhost:"+cfg.Port)

	cfg.MaxScriptLength, err = getEnvInt("MAX_SCRIPT_LENGTH", 50000)
	if err != nil {
		return nil, err
	}
	cfg.MaxScriptsPerOwner, err = getEnvInt("MAX_SCRIPTS_PER_USER", 50)
	if err != nil {
		return nil, err
	}

	windowMS, err := getEnvInt("RATE_LIMIT_WINDOW_MS", 15*60*1000)
	if err != nil {
		return nil, err
	}
	cfg.RateLimitWindow = time.Duration(windowMS) * time.Millisecond
	cfg.RateLimitMax, err = getEnvInt("RATE_LIMIT_MAX_REQUESTS", 100)
	if err != nil {
		return nil, err
	}

	cfg.CacheEnabled = getEnv("CACHE_ENABLED", "true") == "true"
	ttlSeconds, err := getEnvInt("CACHE_TTL", 300)
	if err != nil {
		return nil, err
	}
	cfg.CacheTTL = time.Duration(ttlSeconds) * time.Second
	cfg.CacheSize, err = getEnvInt("CACHE_SIZE", 1024)
	if err != nil {
		return nil, err
	}

	for _, client := range strings.Split(getEnv("ALLOWED_CLIENTS", "Roblox,HttpGet"), ",") {
		if client = strings.TrimSpace(client); client != "" {
			cfg.AllowedClients = append(cfg.AllowedClients, client)
		}
	}

	// Validate backend selection and its required settings.
	switch cfg.StorageBackend {
	case BackendMemory:
	case BackendFile:
		if err := ensureParentDir(cfg.DBFile); err != nil {
			return nil, err
		}
	case BackendSQLite:
		if err := ensureParentDir(cfg.SQLitePath); err != nil {
			return nil, err
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	case BackendGitHub:
		if cfg.GitHubToken == "" || cfg.GitHubOwner == "" || cfg.GitHubRepo == "" {
			return nil, fmt.Errorf("GITHUB_TOKEN, GITHUB_OWNER and GITHUB_REPO are required for the github backend")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	if cfg.MaxScriptLength <= 0 {
		return nil, fmt.Errorf("MAX_SCRIPT_LENGTH must be greater than 0")
	}
	if cfg.MaxScriptsPerOwner <= 0 {
		return nil, fmt.Errorf("MAX_SCRIPTS_PER_USER must be greater than 0")
	}

	return cfg, nil
}

// Addr returns the host:port the HTTP server should listen on.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// ensureParentDir creates the directory holding path if it doesn't exist.
func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

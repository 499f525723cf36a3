package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port        int
	LogLevel    string
	LogFormat   string
	Environment string
	ServiceName string
	Version     string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	APIKey string // API key for user-facing endpoint authentication

	// TrustedProxies lists proxy IPs whose X-Forwarded-For is believed.
	TrustedProxies []string

	NodeID   string // this node's identity, exchanged during channel handshake
	NodeName string
	// NodePeers lists the trusted remote nodes as
	// "id=address=hex-secret" entries separated by commas.
	NodePeers string

	BlobDir      string        // root directory for recording file payloads
	PullTimeout  time.Duration // upper bound for one whole pull
	PullInterval time.Duration // 0 disables the background pull scheduler
	SyncPageSize int           // page size for entity export pagination
	SessionTTL   time.Duration // channel session lifetime
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		Environment: getEnv("ENVIRONMENT", "dev"),
		ServiceName: getEnv("SERVICE_NAME", "fieldnode"),
		Version:     getEnv("VERSION", "dev"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", "postgres"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBName:      getEnv("DB_NAME", "fieldnode"),
		APIKey:      getEnv("API_KEY", ""),
		NodeID:      getEnv("NODE_ID", ""),
		NodeName:    getEnv("NODE_NAME", ""),
		NodePeers:   getEnv("NODE_PEERS", ""),
		BlobDir:     getEnv("BLOB_DIR", "data/recordings"),
	}

	if raw := getEnv("TRUSTED_PROXIES", ""); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.TrustedProxies = append(cfg.TrustedProxies, p)
			}
		}
	}

	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	cfg.Port = port

	pageSize, err := getEnvInt("SYNC_PAGE_SIZE", 100)
	if err != nil {
		return nil, err
	}
	cfg.SyncPageSize = pageSize

	cfg.PullTimeout, err = getEnvDuration("PULL_TIMEOUT", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.PullInterval, err = getEnvDuration("PULL_INTERVAL", 0)
	if err != nil {
		return nil, err
	}
	cfg.SessionTTL, err = getEnvDuration("CHANNEL_SESSION_TTL", 30*time.Minute)
	if err != nil {
		return nil, err
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY environment variable must be set for security")
	}
	if cfg.NodeID == "" {
		return nil, fmt.Errorf("NODE_ID environment variable must be set")
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return v, nil
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration read from the environment
type Config struct {
	Env        string
	Version    string
	ServerPort string
	BaseURL    string

	// Database
	DBDriver string
	DBPath   string
	DBURL    string

	// Storage
	StorageProvider  string
	StoragePath      string
	StorageBaseURL   string
	StorageAPIKey    string
	StorageAPISecret string
	StorageEndpoint  string
	StorageBucket    string
	StorageRegion    string
	StorageAccountID string
	CDN              string

	// Page cache
	CacheBackend string

	// Search index
	SearchIndexPath     string
	SearchResultLimit   int
	SearchReindexCron   string
	SearchReindexOnBoot bool

	// Admin authentication
	JWTSecret     string
	JWTExpiration time.Duration
	AdminEmail    string
	AdminPassword string

	WebSocketEnabled bool

	Middleware MiddlewareConfig
}

// NewConfig reads the configuration from environment variables, applying
// defaults for everything that is unset
func NewConfig() *Config {
	return &Config{
		Env:        getEnv("ENV", "development"),
		Version:    getEnv("APP_VERSION", "1.0.0"),
		ServerPort: normalizePort(getEnv("SERVER_PORT", ":8100")),
		BaseURL:    getEnv("APP_URL", "http://localhost:8100"),

		DBDriver: getEnv("DB_DRIVER", "sqlite"),
		DBPath:   getEnv("DB_PATH", "storage/blog.db"),
		DBURL:    getEnv("DB_URL", ""),

		StorageProvider:  getEnv("STORAGE_PROVIDER", "local"),
		StoragePath:      getEnv("STORAGE_PATH", "storage"),
		StorageBaseURL:   getEnv("STORAGE_BASE_URL", "/storage"),
		StorageAPIKey:    getEnv("STORAGE_API_KEY", ""),
		StorageAPISecret: getEnv("STORAGE_API_SECRET", ""),
		StorageEndpoint:  getEnv("STORAGE_ENDPOINT", ""),
		StorageBucket:    getEnv("STORAGE_BUCKET", ""),
		StorageRegion:    getEnv("STORAGE_REGION", ""),
		StorageAccountID: getEnv("STORAGE_ACCOUNT_ID", ""),
		CDN:              getEnv("CDN", ""),

		CacheBackend: getEnv("CACHE_BACKEND", "memory"),

		SearchIndexPath:     getEnv("SEARCH_INDEX_PATH", "storage/index/posts.bleve"),
		SearchResultLimit:   getEnvInt("SEARCH_RESULT_LIMIT", 10),
		SearchReindexCron:   getEnv("SEARCH_REINDEX_CRON", "0 3 * * *"),
		SearchReindexOnBoot: getEnvBool("SEARCH_REINDEX_ON_BOOT", false),

		JWTSecret:     getEnv("JWT_SECRET", "change-me"),
		JWTExpiration: getEnvDuration("JWT_EXPIRATION", 24*time.Hour),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		WebSocketEnabled: getEnvBool("WEBSOCKET_ENABLED", true),

		Middleware: NewMiddlewareConfig(),
	}
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}

func normalizePort(port string) string {
	if port != "" && !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	OAuth      OAuthConfig
	Cloudinary CloudinaryConfig
	Cache      CacheConfig
	Geocoder   GeocoderConfig
	Logging    LoggingConfig
	Map        MapConfig
	Metrics    MetricsConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RateLimit    int
	RateWindow   time.Duration
}

type DatabaseConfig struct {
	Driver          string // mysql | postgres
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	AdminEmail      string
	AdminPassword   string
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// CacheConfig selects Redis when Enabled, otherwise an in-process cache.
type CacheConfig struct {
	Enabled   bool
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration

	// MemoryEntries bounds the in-process cache.
	MemoryEntries int
}

type GeocoderConfig struct {
	Enabled     bool
	Server      string
	MinInterval time.Duration
	NegativeTTL time.Duration
}

type LoggingConfig struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// MapConfig holds the values the map client needs to boot.
type MapConfig struct {
	APIBaseURL string
	TileToken  string
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnvString("PORT", "8099"),
			Env:          getEnvString("ENV", "development"),
			ReadTimeout:  getEnvDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getEnvDuration("WRITE_TIMEOUT", 10*time.Second),
			RateLimit:    getEnvInt("RATE_LIMIT", 100),
			RateWindow:   getEnvDuration("RATE_WINDOW", 60*time.Second),
		},
		Database: DatabaseConfig{
			Driver:          getEnvString("DB_DRIVER", "mysql"),
			DSN:             getEnvString("DB_DSN", "wayfare:wayfare@tcp(localhost:3306)/wayfare?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			AdminEmail:      getEnvString("ADMIN_EMAIL", ""),
			AdminPassword:   getEnvString("ADMIN_PASSWORD", ""),
		},
		JWT: JWTConfig{
			AccessSecret:  getEnvString("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: getEnvString("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  getEnvDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: getEnvDuration("JWT_REFRESH_EXPIRY", 168*time.Hour),
			Issuer:        "wayfare",
		},
		OAuth: OAuthConfig{
			GoogleClientID:     getEnvString("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnvString("GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectURL:  getEnvString("GOOGLE_REDIRECT_URL", "http://localhost:8099/api/v1/auth/google/callback"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: getEnvString("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    getEnvString("CLOUDINARY_API_KEY", ""),
			APISecret: getEnvString("CLOUDINARY_API_SECRET", ""),
			Folder:    getEnvString("CLOUDINARY_FOLDER", "wayfare"),
		},
		Cache: CacheConfig{
			Enabled:   getEnvBool("REDIS_ENABLED", false),
			Addr:      getEnvString("REDIS_ADDR", "localhost:6379"),
			Password:  getEnvString("REDIS_PASSWORD", ""),
			DB:        getEnvInt("REDIS_DB", 0),
			KeyPrefix: getEnvString("REDIS_KEY_PREFIX", "wayfare:"),
			TTL:       getEnvDuration("CACHE_TTL", 10*time.Minute),

			MemoryEntries: getEnvInt("CACHE_MEMORY_ENTRIES", 10000),
		},
		Geocoder: GeocoderConfig{
			Enabled:     getEnvBool("GEOCODER_ENABLED", true),
			Server:      getEnvString("GEOCODER_SERVER", "https://nominatim.openstreetmap.org"),
			MinInterval: getEnvDuration("GEOCODER_MIN_INTERVAL", time.Second),
			NegativeTTL: getEnvDuration("GEOCODER_NEGATIVE_TTL", time.Hour),
		},
		Logging: LoggingConfig{
			File:       getEnvString("LOG_FILE", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 50),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		},
		Map: MapConfig{
			APIBaseURL: getEnvString("API_BASE_URL", "http://localhost:8099/api/v1"),
			TileToken:  getEnvString("MAP_TILE_TOKEN", ""),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnvString("METRICS_PATH", "/metrics"),
		},
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

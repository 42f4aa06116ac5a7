package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"market-api/internal/infrastructure/database"
)

// Config chứa toàn bộ application configuration
// Struct này được populate từ environment variables
type Config struct {
	App       AppConfig
	Store     StoreConfig
	Database  database.DBConfig // dùng khi STORE_DRIVER=postgres
	Mongo     MongoConfig
	Redis     RedisConfig
	Cache     CacheConfig
	JWT       JWTConfig
	Search    SearchConfig
	S3        S3Config
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string

	// Proxy được tin X-Forwarded-For; rỗng = dùng địa chỉ kết nối
	TrustedProxies []string
}

// StoreConfig chọn backend lưu listings/users
type StoreConfig struct {
	Driver      string // postgres | mongo
	AutoMigrate bool
}

type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type CacheConfig struct {
	ListingTTL time.Duration
}

type JWTConfig struct {
	Secret            string
	AccessTokenExpiry int // hours
}

// SearchConfig quyết định cách map tham số q
// fulltext: text index của store; regex: substring không phân biệt hoa thường
type SearchConfig struct {
	Mode string
}

// S3Config - object store (S3 / MinIO)
type S3Config struct {
	Endpoint           string // s3.amazonaws.com, localhost:9000
	Region             string
	Bucket             string
	AccessKey          string
	SecretKey          string
	UseSSL             bool
	KeyPrefix          string // uploads
	PresignExpiry      time.Duration
	DeleteMode         string // presign | direct
	EnforceOwnerPrefix bool
}

// Configured báo object store có đủ config để ký URL hay không
func (c S3Config) Configured() bool {
	return c.Endpoint != "" && c.Region != "" && c.Bucket != "" &&
		c.AccessKey != "" && c.SecretKey != ""
}

// MissingFields trả về danh sách biến môi trường còn thiếu (để báo lỗi)
func (c S3Config) MissingFields() []string {
	var missing []string
	if c.Endpoint == "" {
		missing = append(missing, "S3_ENDPOINT")
	}
	if c.Region == "" {
		missing = append(missing, "S3_REGION")
	}
	if c.Bucket == "" {
		missing = append(missing, "S3_BUCKET")
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		missing = append(missing, "S3_ACCESS_KEY/S3_SECRET_KEY")
	}
	return missing
}

type RateLimitConfig struct {
	AuthRPS   float64
	AuthBurst int
}

type CORSConfig struct {
	AllowedOrigins []string
}

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"

	SearchModeFullText = "fulltext"
	SearchModeRegex    = "regex"

	DeleteModePresign = "presign"
	DeleteModeDirect  = "direct"

	defaultJWTSecret = "your-secret-key-change-in-production"
)

// Load đọc config từ environment variables
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "market-api"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", getEnv("PORT", "4000")),
			Version:     getEnv("APP_VERSION", "1.0.0"),

			TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),
		},
		Store: StoreConfig{
			Driver:      strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
			AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", true),
		},
		// DATABASE_URL (nếu có) override các biến DB_* riêng lẻ
		Database: database.DBConfig{
			URL:               getEnv("DATABASE_URL", ""),
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvInt("DB_PORT", 5432),
			Username:          getEnv("DB_USER", "market"),
			Password:          getEnv("DB_PASSWORD", "secret"),
			DBName:            getEnv("DB_NAME", "market"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvInt("DB_MAX_CONNECTIONS", 25)),
			MinConns:          int32(getEnvInt("DB_MIN_CONNECTIONS", 2)),
			MaxConnLifetime:   getEnvDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvDuration("DB_MAX_CONN_IDLE_TIME", time.Minute),
			HealthCheckPeriod: getEnvDuration("DB_HEALTH_CHECK_PERIOD", time.Minute),
			MaxRetries:        getEnvInt("DB_MAX_RETRIES", 5),
			RetryDelay:        getEnvDuration("DB_RETRY_DELAY", time.Second),
			ConnectTimeout:    getEnvDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DB", "market"),
			Timeout:  getEnvDuration("MONGO_TIMEOUT", 8*time.Second),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Cache: CacheConfig{
			ListingTTL: getEnvDuration("CACHE_LISTING_TTL", 60*time.Second),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenExpiry: getEnvInt("JWT_ACCESS_EXPIRY_HOURS", 7*24), // 7 days
		},
		Search: SearchConfig{
			Mode: strings.ToLower(getEnv("SEARCH_MODE", SearchModeFullText)),
		},
		S3: S3Config{
			Endpoint:           getEnv("S3_ENDPOINT", ""),
			Region:             getEnv("S3_REGION", getEnv("AWS_REGION", "")),
			Bucket:             getEnv("S3_BUCKET", getEnv("S3_BUCKET_NAME", "")),
			AccessKey:          getEnv("S3_ACCESS_KEY", getEnv("AWS_ACCESS_KEY_ID", "")),
			SecretKey:          getEnv("S3_SECRET_KEY", getEnv("AWS_SECRET_ACCESS_KEY", "")),
			UseSSL:             getEnvBool("S3_USE_SSL", true),
			KeyPrefix:          strings.Trim(getEnv("S3_KEY_PREFIX", "uploads"), "/"),
			PresignExpiry:      getEnvDuration("S3_PRESIGN_EXPIRY", 5*time.Minute),
			DeleteMode:         strings.ToLower(getEnv("S3_DELETE_MODE", DeleteModePresign)),
			EnforceOwnerPrefix: getEnvBool("S3_ENFORCE_OWNER_PREFIX", false),
		},
		RateLimit: RateLimitConfig{
			AuthRPS:   getEnvFloat("AUTH_RATE_LIMIT_RPS", 5),
			AuthBurst: getEnvInt("AUTH_RATE_LIMIT_BURST", 10),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		},
	}

	// AWS S3 không cần endpoint riêng - suy ra từ region
	if cfg.S3.Endpoint == "" && cfg.S3.Region != "" {
		cfg.S3.Endpoint = "s3." + cfg.S3.Region + ".amazonaws.com"
	}

	// Validate critical config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate kiểm tra config có hợp lệ không
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverMongo:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMongo, c.Store.Driver)
	}

	switch c.Search.Mode {
	case SearchModeFullText, SearchModeRegex:
	default:
		return fmt.Errorf("SEARCH_MODE must be %q or %q, got %q", SearchModeFullText, SearchModeRegex, c.Search.Mode)
	}

	switch c.S3.DeleteMode {
	case DeleteModePresign, DeleteModeDirect:
	default:
		return fmt.Errorf("S3_DELETE_MODE must be %q or %q, got %q", DeleteModePresign, DeleteModeDirect, c.S3.DeleteMode)
	}

	if c.Store.Driver == StoreDriverPostgres && c.Database.URL == "" {
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return fmt.Errorf("DB_PORT must be a valid port, got %d", c.Database.Port)
		}
		if c.Database.MinConns > c.Database.MaxConns {
			return fmt.Errorf("DB_MIN_CONNECTIONS (%d) exceeds DB_MAX_CONNECTIONS (%d)", c.Database.MinConns, c.Database.MaxConns)
		}
	}

	if c.JWT.AccessTokenExpiry <= 0 {
		return fmt.Errorf("JWT_ACCESS_EXPIRY_HOURS must be positive")
	}

	// Production environment phải có JWT secret
	if c.App.Environment == "production" {
		if c.JWT.Secret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if !c.S3.Configured() {
			fmt.Println("WARNING: object store not configured - /api/s3 endpoints will return 400")
		}
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort           string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
	CORSAllowedOrigins []string
	LogLevel           string

	MongoURI    string
	MongoDBName string

	RedisAddr       string
	RedisPassword   string
	CartCacheTTL    time.Duration
	CartCacheJitter time.Duration

	JWTSecret    string
	JWTExpiresIn time.Duration

	// AnonymousCartOwner is used for cart requests that carry neither a token
	// nor a userId. Empty disables the fallback.
	AnonymousCartOwner string
	AdminCatalogWrites bool

	RateLimitMax    int
	RateLimitWindow time.Duration

	KafkaBrokers     []string
	OrderEventsTopic string
	OutboxPollEvery  time.Duration
	OutboxBatchSize  int

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
	MinIOPublicURL string
}

// Load reads .env when present and falls back to the process environment.
// It reports whether a .env file was loaded.
func Load(envFile string) (*Config, bool) {
	loaded := godotenv.Load(envFile) == nil

	return &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:    getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxRequestBodySize: 10 << 20, // 10MB
		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		LogLevel:           getEnv("LOG_LEVEL", "info"),

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "laya_store"),

		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		CartCacheTTL:    getDuration("CART_CACHE_TTL", 15*time.Minute),
		CartCacheJitter: getDuration("CART_CACHE_JITTER", 5*time.Minute),

		JWTSecret:    getEnv("JWT_SECRET", "fallback-secret-key"),
		JWTExpiresIn: getDuration("JWT_EXPIRES_IN", 7*24*time.Hour),

		AnonymousCartOwner: lookupEnv("ANONYMOUS_CART_OWNER", "temp-user-123"),
		AdminCatalogWrites: getEnv("CATALOG_WRITES_REQUIRE_ADMIN", "false") == "true",

		RateLimitMax:    getInt("RATE_LIMIT_MAX", 1000),
		RateLimitWindow: getDuration("RATE_LIMIT_WINDOW", 15*time.Minute),

		KafkaBrokers:     getList("KAFKA_BROKERS", nil),
		OrderEventsTopic: getEnv("ORDER_EVENTS_TOPIC", "orders-outbox"),
		OutboxPollEvery:  getDuration("OUTBOX_POLL_INTERVAL", time.Second),
		OutboxBatchSize:  getInt("OUTBOX_BATCH_SIZE", 100),

		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinIOBucket:    getEnv("MINIO_BUCKET", "product-images"),
		MinIOUseSSL:    getEnv("MINIO_USE_SSL", "false") == "true",
		MinIOPublicURL: getEnv("MINIO_PUBLIC_URL", ""),
	}, loaded
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// lookupEnv differs from getEnv in that an explicitly empty variable wins
// over the default.
func lookupEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	ListenAddr string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	JWTSecret string

	// AdminEmails is the env-sourced half of the admin allow-list. It is
	// merged with rows from the admins table at request time.
	AdminEmails []string

	// DataDir holds locally persisted state (the favorites file).
	DataDir string

	// CatalogLimit caps catalog listings when the caller gives no limit.
	CatalogLimit int

	// SignedURLTTL is the lifetime of presigned playback URLs.
	SignedURLTTL time.Duration

	// CatalogFnURL points at a peer catalog function. Empty disables the
	// remote-function source of the resolver.
	CatalogFnURL string

	// FavoritesFnURL points at a peer favorites function tried before the
	// direct table operations. Empty skips straight to the table.
	FavoritesFnURL string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// splitEmails normalizes a comma separated email list: trimmed, lowercased,
// empties dropped.
func splitEmails(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		email := strings.ToLower(strings.TrimSpace(part))
		if email != "" {
			out = append(out, email)
		}
	}
	return out
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "ajnadfm"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "nasheed_play"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		JWTSecret: getEnv("JWT_SECRET", "ajnadfm-dev-secret"),

		AdminEmails: splitEmails(os.Getenv("ADMIN_EMAILS")),

		DataDir: getEnv("DATA_DIR", "data"),

		CatalogLimit: getEnvInt("CATALOG_LIMIT", 200),
		SignedURLTTL: time.Duration(getEnvInt("SIGNED_URL_TTL_SECONDS", 3600)) * time.Second,

		CatalogFnURL:   os.Getenv("CATALOG_FN_URL"),
		FavoritesFnURL: os.Getenv("FAVORITES_FN_URL"),
	}
}

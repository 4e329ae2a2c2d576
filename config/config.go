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
	Port string

	// Database
	DBDriver    string // sqlite or mysql
	DatabaseURL string

	// Session tokens
	JWTSecret    string
	JWTExpiresIn time.Duration
	BcryptCost   int

	// File storage
	StorageDriver  string // local or minio
	UploadDir      string // Root of the local file tree: UploadDir/audio, UploadDir/images
	MaxUploadBytes int64  // Upper bound on a whole multipart request body
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// Redis song cache
	CacheEnabled  bool
	CacheTTL      time.Duration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Client shell
	WebDir            string
	AdminDir          string
	CORSAllowedOrigin string

	// Logging
	LogLevel      string
	LogFile       string
	LogMaxSize    int
	LogMaxBackups int
	LogMaxAge     int
	LogCompress   bool
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
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
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
// The defaults target local development: sqlite database, local upload tree, no cache.
func Load() *Config {
	// godotenv.Load does not override variables that are already set.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	return &Config{
		Port: getEnv("PORT", "3000"),

		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DatabaseURL: getEnv("DATABASE_URL", "data/musicapp.db"),

		JWTSecret:    getEnv("JWT_SECRET", "your_super_secret_jwt_key_change_this_in_production"),
		JWTExpiresIn: getEnvDuration("JWT_EXPIRES_IN", 7*24*time.Hour),
		BcryptCost:   getEnvInt("BCRYPT_COST", 10),

		StorageDriver:  strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 16)) << 20,
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "musicapp"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		CacheEnabled:  getEnvBool("CACHE_ENABLED", false),
		CacheTTL:      getEnvDuration("CACHE_TTL", 5*time.Minute),
		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		WebDir:            getEnv("WEB_DIR", "frontend"),
		AdminDir:          getEnv("ADMIN_DIR", "admin"),
		CORSAllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "*"),

		LogLevel:      strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFile:       os.Getenv("LOG_FILE"),
		LogMaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAge:     getEnvInt("LOG_MAX_AGE", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", false),
	}
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

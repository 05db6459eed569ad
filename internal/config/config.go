package config

import (
	"os"
	"strconv"
	"time"

	"stagedoor/internal/cache"
	"stagedoor/internal/database"
	"stagedoor/internal/external"
	"stagedoor/internal/messaging"
	"stagedoor/internal/search"
)

// Auth holds token and password settings.
type Auth struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// Config holds the application configuration.
type Config struct {
	Port           string
	PublicURL      string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	Auth          Auth
	Database      database.Config
	Redis         cache.Config
	NATS          messaging.Config
	Elasticsearch search.Config
	Storage       external.StorageConfig
	Mailer        external.MailerConfig
}

// Load reads the configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8082"),
		PublicURL:      getEnv("PUBLIC_URL", "http://localhost:3000"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		Auth: Auth{
			JWTSecret:  getEnv("AUTH_JWT_SECRET", "dev-secret-change-me"),
			TokenTTL:   time.Duration(getEnvInt("AUTH_TOKEN_TTL_MIN", 60)) * time.Minute,
			BcryptCost: getEnvInt("AUTH_BCRYPT_COST", 10),
		},

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "stagedoor"),
			Password:           getEnv("DB_PASSWORD", "stagedoor123"),
			DBName:             getEnv("DB_NAME", "stagedoor"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		Redis: cache.Config{
			Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
			Password:     os.Getenv("REDIS_PASSWORD"),
			PrincipalTTL: time.Duration(getEnvInt("REDIS_PRINCIPAL_TTL_SEC", 60)) * time.Second,
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "stagedoor"),
			ClientID:  getEnv("NATS_CLIENT_ID", "stagedoor-api"),
		},

		Elasticsearch: search.Config{
			URL:        getEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
			Index:      getEnv("ELASTICSEARCH_INDEX", "events"),
			Username:   os.Getenv("ELASTICSEARCH_USERNAME"),
			Password:   os.Getenv("ELASTICSEARCH_PASSWORD"),
			MaxRetries: getEnvInt("ELASTICSEARCH_MAX_RETRIES", 3),
		},

		Storage: external.StorageConfig{
			BaseURL:   getEnv("STORAGE_URL", "http://localhost:9000"),
			Bucket:    getEnv("STORAGE_BUCKET", "event-images"),
			AccessKey: os.Getenv("STORAGE_ACCESS_KEY"),
			Timeout:   time.Duration(getEnvInt("STORAGE_TIMEOUT_SEC", 60)) * time.Second,
		},

		Mailer: external.MailerConfig{
			BaseURL: getEnv("MAILER_URL", "http://localhost:8025"),
			APIKey:  os.Getenv("MAILER_API_KEY"),
			From:    getEnv("MAILER_FROM", "no-reply@stagedoor.local"),
			Timeout: time.Duration(getEnvInt("MAILER_TIMEOUT_SEC", 15)) * time.Second,
		},
	}
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable value or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

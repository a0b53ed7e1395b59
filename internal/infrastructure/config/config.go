// internal/infrastructure/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Cache backends
const (
	CacheBackendMongo = "mongo"
	CacheBackendRedis = "redis"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string
	LogLevel   string

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MongoDB
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// PostgreSQL
	PostgresURI string

	// Cache
	CacheBackend       string
	CacheTTL           time.Duration
	CacheSweepInterval time.Duration
	CacheWriteTimeout  time.Duration
	RedisAddr          string
	RedisPassword      string
	RedisDB            int

	// Research backend
	PerplexityAPIKey  string
	PerplexityBaseURL string
	PerplexityModel   string
	ProducerTimeout   time.Duration

	// Synthesis backend
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	SynthesisTimeout time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		AppVersion:   getEnv("APP_VERSION", "3.0.0"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Port:         getEnv("PORT", "3001"),
		ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", 30, time.Second),
		WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 300, time.Second),

		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "portcall"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		PostgresURI: getEnv("POSTGRES_DSN", "host=localhost user=postgres dbname=portcall sslmode=disable"),

		CacheBackend:       getEnv("CACHE_BACKEND", CacheBackendMongo),
		CacheTTL:           getEnvAsDuration("CACHE_TTL_HOURS", 7*24, time.Hour),
		CacheSweepInterval: getEnvAsDuration("CACHE_SWEEP_INTERVAL", 60, time.Minute),
		CacheWriteTimeout:  getEnvAsDuration("CACHE_WRITE_TIMEOUT", 5, time.Second),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvAsInt("REDIS_DB", 0),

		PerplexityAPIKey:  getEnv("PERPLEXITY_API_KEY", ""),
		PerplexityBaseURL: getEnv("PERPLEXITY_BASE_URL", "https://api.perplexity.ai"),
		PerplexityModel:   getEnv("PERPLEXITY_MODEL", "llama-3.1-sonar-large-128k-online"),
		ProducerTimeout:   getEnvAsDuration("PRODUCER_TIMEOUT", 90, time.Second),

		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4-1106-preview"),
		SynthesisTimeout: getEnvAsDuration("SYNTHESIS_TIMEOUT", 120, time.Second),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects settings the service cannot run with
func (c *Config) Validate() error {
	if c.CacheBackend != CacheBackendMongo && c.CacheBackend != CacheBackendRedis {
		return fmt.Errorf("unsupported CACHE_BACKEND %q (want %q or %q)", c.CacheBackend, CacheBackendMongo, CacheBackendRedis)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL_HOURS must be positive")
	}
	return nil
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue int, unit time.Duration) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * unit
}

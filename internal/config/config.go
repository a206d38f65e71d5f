package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string

	// Database
	DBDriver    string // postgres | sqlite | memory
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	SQLitePath  string

	JWTSecret string

	// Graph cache. Empty RedisAddr keeps the cache in process.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	GraphCacheTTL time.Duration

	// Kafka. Empty KafkaBrokers disables the publisher.
	KafkaBrokers    []string
	KafkaTopicStock string
	KafkaClientID   string

	// Reporting
	WeekStart         time.Weekday
	Location          *time.Location
	ReportConcurrency int
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "3000"),
		Environment: getEnv("ENVIRONMENT", "development"),

		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", "postgres"),
		DBName:      getEnv("DB_NAME", "stock_ledger"),
		SQLitePath:  getEnv("SQLITE_PATH", "stock_ledger.db"),

		JWTSecret: getEnv("JWT_SECRET", "your-super-secret-key-change-in-production"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		GraphCacheTTL: time.Duration(getEnvAsInt("GRAPH_CACHE_TTL_SECONDS", 600)) * time.Second,

		KafkaBrokers:    splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopicStock: getEnv("KAFKA_TOPIC_STOCK", "ledger.stock"),
		KafkaClientID:   getEnv("KAFKA_CLIENT_ID", "go-stock-ledger"),

		WeekStart:         ParseWeekday(getEnv("WEEK_START", "sunday")),
		Location:          loadLocation(getEnv("TIMEZONE", "UTC")),
		ReportConcurrency: getEnvAsInt("REPORT_CONCURRENCY", 4),
	}
}

// ParseWeekday accepts "sunday" or "monday"; anything else falls back to Sunday.
func ParseWeekday(s string) time.Weekday {
	if strings.EqualFold(strings.TrimSpace(s), "monday") {
		return time.Monday
	}
	return time.Sunday
}

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return result
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package config

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string
	Env  string

	MongoURI     string
	DatabaseName string

	JWTSecret     string
	JWTExpiration time.Duration
	JWTIssuer     string

	RedisAddr          string
	RedisPassword      string
	PermissionCacheTTL time.Duration

	RabbitURI string

	TrashRetentionDays int
	TrashPurgeSchedule string

	AllowedOrigins []string
}

var AppConfig *Config

func LoadConfig() {
	AppConfig = &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DatabaseName: getEnv("DATABASE_NAME", "docveil"),

		JWTSecret:     getEnv("JWT_SECRET", "change-me-in-production"),
		JWTExpiration: parseDuration(getEnv("JWT_EXPIRATION", "24h")),
		JWTIssuer:     getEnv("JWT_ISSUER", "docveil"),

		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		PermissionCacheTTL: parseDuration(getEnv("PERMISSION_CACHE_TTL", "30s")),

		RabbitURI: getEnv("RABBITMQ_URI", ""),

		TrashRetentionDays: parseInt(getEnv("TRASH_RETENTION_DAYS", "30")),
		TrashPurgeSchedule: getEnv("TRASH_PURGE_SCHEDULE", "0 3 * * *"),

		AllowedOrigins: parseStringSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
	}

	logConfig()
	validateConfig()
}

func logConfig() {
	log.Println("Configuration loaded:")
	log.Printf("  Port: %s", AppConfig.Port)
	log.Printf("  Environment: %s", AppConfig.Env)
	log.Printf("  Database: %s", AppConfig.DatabaseName)
	log.Printf("  MongoDB URI: %s", maskConnectionString(AppConfig.MongoURI))
	log.Printf("  JWT Secret: %s", maskSecret(AppConfig.JWTSecret))
	log.Printf("  Redis: %s", orDisabled(AppConfig.RedisAddr))
	log.Printf("  RabbitMQ: %s", orDisabled(maskConnectionString(AppConfig.RabbitURI)))
	log.Printf("  Trash retention: %d days", AppConfig.TrashRetentionDays)
	log.Printf("  Trash purge schedule: %q", AppConfig.TrashPurgeSchedule)
}

func validateConfig() {
	if AppConfig.Env == "production" && AppConfig.JWTSecret == "change-me-in-production" {
		log.Fatal("JWT_SECRET must be set in production")
	}
	if AppConfig.TrashRetentionDays <= 0 {
		log.Fatal("TRASH_RETENTION_DAYS must be positive")
	}
}

// CreateContext returns a context with the given timeout.
func CreateContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseDuration(raw string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Fatalf("invalid duration %q: %v", raw, err)
	}
	return d
}

func parseInt(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Fatalf("invalid integer %q: %v", raw, err)
	}
	return n
}

func parseStringSlice(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func orDisabled(value string) string {
	if value == "" {
		return "(disabled)"
	}
	return value
}

func maskSecret(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:2] + "****" + secret[len(secret)-2:]
}

func maskConnectionString(uri string) string {
	if at := strings.LastIndex(uri, "@"); at != -1 {
		if scheme := strings.Index(uri, "://"); scheme != -1 {
			return uri[:scheme+3] + "****" + uri[at:]
		}
	}
	return uri
}

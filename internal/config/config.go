package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/gommon/random"
)

// Config holds all configuration for the server.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Minio     MinioConfig
	Audit     AuditConfig
	JWTSecret string
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	URL           string
	MigrationsDir string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type AuditConfig struct {
	Interval      time.Duration
	SampleTenants int
	ExemptTables  []string
}

// Load reads configuration from environment variables and returns a
// validated Config. DATABASE_URL is the only hard requirement.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("PORT", 8080),
		},
		Database: DatabaseConfig{
			URL:           os.Getenv("DATABASE_URL"),
			MigrationsDir: envString("MIGRATIONS_DIR", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     envString("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		},
		Minio: MinioConfig{
			Endpoint:  envString("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: envString("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: envString("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    envString("MINIO_AUDIT_BUCKET", "isolation-reports"),
			UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		},
		Audit: AuditConfig{
			Interval:      envDuration("AUDIT_INTERVAL", time.Hour),
			SampleTenants: envInt("AUDIT_SAMPLE_TENANTS", 10),
			ExemptTables:  envList("AUDIT_EXEMPT_TABLES"),
		},
		JWTSecret: os.Getenv("JWT_SECRET"),
	}

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: JWT_SECRET not set, using generated secret")
	}

	return cfg, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

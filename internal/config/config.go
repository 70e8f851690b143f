// Package config lê a configuração da aplicação a partir do ambiente.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port               string
	DatabaseDriver     string
	DatabaseURL        string
	JWTSecret          string
	SessionSecret      string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	UploadDir          string
	CORSOrigins        []string
	RedisAddr          string
	RateLimitPerMinute int
	KafkaBrokers       string
	KafkaTopic         string
	AdminEmail         string
	AdminPassword      string
	LogLevel           string
}

// LoadEnvFile carrega variáveis de um arquivo .env. A ausência do arquivo não é erro.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("erro ao carregar %s: %w", p, err)
		}
	}
	return nil
}

// Load monta a Config a partir das variáveis de ambiente.
func Load() (Config, error) {
	cfg := Config{
		Port:           getenv("PORT", "8080"),
		DatabaseDriver: strings.ToLower(getenv("DATABASE_DRIVER", DriverPostgres)),
		DatabaseURL:    getenv("DATABASE_URL", ""),
		JWTSecret:      getenv("JWT_SECRET", ""),
		SessionSecret:  getenv("SESSION_SECRET", ""),
		UploadDir:      getenv("UPLOAD_DIR", "uploads"),
		CORSOrigins:    splitCSV(getenv("CORS_ORIGINS", "*")),
		RedisAddr:      getenv("REDIS_ADDR", ""),
		KafkaBrokers:   getenv("KAFKA_BROKERS", ""),
		KafkaTopic:     getenv("KAFKA_TOPIC", "shopeasy.orders"),
		AdminEmail:     getenv("ADMIN_EMAIL", ""),
		AdminPassword:  getenv("ADMIN_PASSWORD", ""),
		LogLevel:       getenv("LOG_LEVEL", "info"),
	}

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if cfg.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("variáveis obrigatórias ausentes: %s", strings.Join(missing, ", "))
	}

	if cfg.DatabaseDriver != DriverPostgres && cfg.DatabaseDriver != DriverSQLite {
		return Config{}, fmt.Errorf("DATABASE_DRIVER inválido: %q", cfg.DatabaseDriver)
	}

	var err error
	if cfg.AccessTokenTTL, err = time.ParseDuration(getenv("ACCESS_TOKEN_TTL", "15m")); err != nil {
		return Config{}, fmt.Errorf("ACCESS_TOKEN_TTL inválido: %w", err)
	}
	if cfg.RefreshTokenTTL, err = time.ParseDuration(getenv("REFRESH_TOKEN_TTL", "168h")); err != nil {
		return Config{}, fmt.Errorf("REFRESH_TOKEN_TTL inválido: %w", err)
	}
	if cfg.RateLimitPerMinute, err = strconv.Atoi(getenv("RATE_LIMIT_PER_MINUTE", "5")); err != nil {
		return Config{}, fmt.Errorf("RATE_LIMIT_PER_MINUTE inválido: %w", err)
	}

	return cfg, nil
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Dosada05/dart-tournament/brackets"
	"github.com/Dosada05/dart-tournament/db"
)

type RedisConfig struct {
	URL      string
	Password string
	DB       int
	TTL      time.Duration
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
}

func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.BucketName != ""
}

type Config struct {
	DatabaseDriver string
	DatabaseURL    string
	ServerPort     int
	LogLevel       slog.Level

	MatchBaseTime brackets.Clock
	AutoActivate  bool
	ByePolicy     brackets.ByePolicy

	CORSAllowedOrigins []string

	Redis RedisConfig
	R2    R2Config
}

// Load reads the configuration from the environment, after an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function, so tests do not touch the process environment.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		DatabaseDriver: strings.ToLower(get("DATABASE_DRIVER", db.DriverPostgres)),
		DatabaseURL:    get("DATABASE_URL", ""),
		ByePolicy:      brackets.ByePolicy(strings.ToLower(get("BYE_POLICY", string(brackets.ByeManual)))),
		Redis: RedisConfig{
			URL:      get("REDIS_URL", ""),
			Password: getenv("REDIS_PASSWORD"),
		},
		R2: R2Config{
			AccountID:       get("R2_ACCOUNT_ID", ""),
			AccessKeyID:     get("R2_ACCESS_KEY_ID", ""),
			SecretAccessKey: get("R2_SECRET_ACCESS_KEY", ""),
			BucketName:      get("R2_BUCKET_NAME", ""),
			PublicBaseURL:   get("R2_PUBLIC_BASE_URL", ""),
		},
	}

	if cfg.DatabaseDriver != db.DriverPostgres && cfg.DatabaseDriver != db.DriverSQLite {
		return nil, fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", db.DriverPostgres, db.DriverSQLite, cfg.DatabaseDriver)
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	port, err := strconv.Atoi(get("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}
	cfg.ServerPort = port

	if err := cfg.LogLevel.UnmarshalText([]byte(get("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	cfg.MatchBaseTime, err = brackets.ParseClock(get("MATCH_BASE_TIME", "19:00"))
	if err != nil {
		return nil, fmt.Errorf("invalid MATCH_BASE_TIME: %w", err)
	}

	cfg.AutoActivate, err = strconv.ParseBool(get("AUTO_ACTIVATE_READY_MATCHES", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTO_ACTIVATE_READY_MATCHES: %w", err)
	}

	if !cfg.ByePolicy.IsValid() {
		return nil, fmt.Errorf("BYE_POLICY must be %q or %q, got %q", brackets.ByeManual, brackets.ByeAutoAdvance, cfg.ByePolicy)
	}

	for _, origin := range strings.Split(get("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	if cfg.Redis.DB, err = strconv.Atoi(get("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	if cfg.Redis.TTL, err = time.ParseDuration(get("BRACKET_CACHE_TTL", "30s")); err != nil {
		return nil, fmt.Errorf("invalid BRACKET_CACHE_TTL: %w", err)
	}

	return cfg, nil
}

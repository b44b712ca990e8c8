package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type OAuthProvider struct {
	Key         string
	Secret      string
	CallbackURL string
}

type Config struct {
	DBDriver       string
	DatabaseURL    string
	MigrationsPath string
	ServerPort     int
	LogLevel       slog.Level

	SessionLifetime time.Duration
	CORSOrigins     []string

	// Score entries allowed per second for a single volunteer, with a burst of
	// ScoreBurst.
	ScoreRatePerSecond float64
	ScoreBurst         int

	// GuestLogin enables the shared guest account, which has the volunteer role.
	GuestLogin bool
	// AdminEmails are promoted to administrator when they log in through OAuth.
	AdminEmails []string

	Discord OAuthProvider
	Google  OAuthProvider
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		DBDriver:       getEnv("DB_DRIVER", "sqlite3"),
		DatabaseURL:    getEnv("DATABASE_URL", "tournaments.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		AdminEmails:    splitList(os.Getenv("ADMIN_EMAILS")),
		Discord: OAuthProvider{
			Key:         os.Getenv("DISCORD_KEY"),
			Secret:      os.Getenv("DISCORD_SECRET"),
			CallbackURL: os.Getenv("DISCORD_CALLBACK_URL"),
		},
		Google: OAuthProvider{
			Key:         os.Getenv("GOOGLE_KEY"),
			Secret:      os.Getenv("GOOGLE_SECRET"),
			CallbackURL: os.Getenv("GOOGLE_CALLBACK_URL"),
		},
	}

	if cfg.DBDriver != "sqlite3" && cfg.DBDriver != "postgres" {
		return nil, fmt.Errorf("DB_DRIVER must be sqlite3 or postgres, got %q", cfg.DBDriver)
	}

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}
	cfg.ServerPort = port

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL environment variable: %w", err)
	}

	cfg.SessionLifetime, err = time.ParseDuration(getEnv("SESSION_LIFETIME", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_LIFETIME environment variable: %w", err)
	}

	cfg.ScoreRatePerSecond, err = strconv.ParseFloat(getEnv("SCORE_RATE_PER_SECOND", "5"), 64)
	if err != nil || cfg.ScoreRatePerSecond <= 0 {
		return nil, fmt.Errorf("SCORE_RATE_PER_SECOND must be a positive number")
	}

	cfg.GuestLogin, err = strconv.ParseBool(getEnv("GUEST_LOGIN", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid GUEST_LOGIN environment variable: %w", err)
	}

	cfg.ScoreBurst, err = strconv.Atoi(getEnv("SCORE_BURST", "10"))
	if err != nil || cfg.ScoreBurst < 1 {
		return nil, fmt.Errorf("SCORE_BURST must be a positive integer")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
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

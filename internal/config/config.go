package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	FrontendURL string
	CorsOrigins []string

	JWTSecret  string
	JWTTTL     time.Duration
	RefreshTTL time.Duration

	SMTP SMTPConfig

	ReminderSchedule string
	ReminderTimezone string

	LogFilePath     string
	MetricsUser     string
	MetricsPassword string
	RateLimit       int
	StatsCacheTTL   time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := &Config{
		Port:        getEnv("APP_PORT", "8080"),
		Environment: getEnv("APP_ENV", "development"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		CorsOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		JWTTTL:     time.Duration(getEnvAsInt("JWT_TTL_HOURS", 720)) * time.Hour,
		RefreshTTL: time.Duration(getEnvAsInt("REFRESH_TTL_HOURS", 168)) * time.Hour,

		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvAsInt("SMTP_PORT", 465),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		},

		// каждый день в 09:00
		ReminderSchedule: getEnv("REMINDER_SCHEDULE", "0 9 * * *"),
		ReminderTimezone: getEnv("REMINDER_TIMEZONE", "Local"),

		LogFilePath:     getEnv("LOG_FILE_PATH", "logs/subtrack.log"),
		MetricsUser:     getEnv("METRICS_USER", "metrics"),
		MetricsPassword: os.Getenv("METRICS_PASSWORD"),
		RateLimit:       getEnvAsInt("RATE_LIMIT_PER_MINUTE", 100),
		StatsCacheTTL:   time.Duration(getEnvAsInt("STATS_CACHE_TTL_SECONDS", 30)) * time.Second,
	}

	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.User
	}

	return cfg
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Location возвращает часовой пояс, в котором работает планировщик напоминаний
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.ReminderTimezone)
}

func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("JWT_SECRET is required in production"))
		} else {
			c.JWTSecret = "dev-secret"
		}
	}
	if strings.TrimSpace(c.ReminderSchedule) == "" {
		errs = append(errs, errors.New("REMINDER_SCHEDULE must not be empty"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("REMINDER_TIMEZONE: %w", err))
	}
	if c.RateLimit <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be positive"))
	}

	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

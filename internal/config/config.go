package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the API server and the bot.
type Config struct {
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	HTTP     HTTPConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Bot      BotConfig
}

type HTTPConfig struct {
	Addr         string        `env:"HTTP_ADDR" env-default:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
}

type DatabaseConfig struct {
	// URL is a SQLite file path or a postgres:// URL.
	URL string `env:"DATABASE_URL" env-default:"perfect_day.db"`
}

type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET" env-default:"change-me"`
	SessionTTL time.Duration `env:"SESSION_TTL" env-default:"168h"`
	// RateLimit is the number of login attempts per second allowed per client IP.
	RateLimit float64 `env:"AUTH_RATE_LIMIT" env-default:"1"`
	RateBurst int     `env:"AUTH_RATE_BURST" env-default:"5"`
}

type BotConfig struct {
	TelegramToken string        `env:"TELEGRAM_TOKEN"`
	APIBaseURL    string        `env:"API_BASE_URL" env-default:"http://localhost:8080"`
	APITimeout    time.Duration `env:"API_TIMEOUT" env-default:"10s"`
	// LocalDB is the SQLite file holding per-chat local storage.
	LocalDB string `env:"LOCAL_DB" env-default:"perfect_day_local.db"`
	// CacheURL switches local storage to Redis when set (redis://host:port/db).
	CacheURL string `env:"CACHE_URL"`

	ReportIntervalHours string `env:"REPORT_INTERVAL_HOURS"`
	ReportTime          string `env:"REPORT_TIME"`
}

// ReportInterval returns the periodic report interval, 0 when disabled.
func (b BotConfig) ReportInterval() time.Duration {
	return parseInterval(strings.TrimSpace(b.ReportIntervalHours))
}

// Load reads configuration from an optional .env file and environment variables.
func Load() (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return cfg, fmt.Errorf("JWT_SECRET must not be empty")
	}
	if cfg.Auth.SessionTTL <= 0 {
		return cfg, fmt.Errorf("SESSION_TTL must be positive")
	}
	return cfg, nil
}

// LoadBot is Load plus the checks only the bot needs.
func LoadBot() (Config, error) {
	cfg, err := Load()
	if err != nil {
		return cfg, err
	}
	if strings.TrimSpace(cfg.Bot.TelegramToken) == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return cfg, nil
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		return 0
	}
	return time.Duration(hours) * time.Hour
}

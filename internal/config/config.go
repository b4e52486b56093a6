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

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Source is one ad platform feed pulled by the ingest job.
type Source struct {
	Platform string
	URL      string
}

type Config struct {
	Port         string
	HTTPTimeout  time.Duration
	LogLevel     slog.Level
	StoreBackend string
	DatabaseURL  string
	RedisURL     string
	DemoUserID   string
	SeedDemo     bool
	MaxCampaigns int
	CORSOrigins  []string
	Sources      []Source
	SinkURL      string
	SinkSecret   string

	// IngestSchedule is a cron spec (seconds field first); empty disables it.
	IngestSchedule string
	SourceRPS      float64
}

// FromEnv reads the environment, after loading a .env file when one exists.
func FromEnv() Config {
	_ = godotenv.Load()

	to := 15 * time.Second
	if v := os.Getenv("HTTP_TIMEOUT_SECONDS"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			to = d
		}
	}
	return Config{
		Port:         envOr("PORT", "8080"),
		HTTPTimeout:  to,
		LogLevel:     parseLevel(os.Getenv("LOG_LEVEL")),
		StoreBackend: strings.ToLower(envOr("STORE_BACKEND", BackendMemory)),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),
		DemoUserID:   envOr("DEMO_USER_ID", "demo-user-1"),
		SeedDemo:     envBool("SEED_DEMO", true),
		MaxCampaigns: envInt("MAX_CAMPAIGNS", 5000),
		CORSOrigins:  csv(envOr("CORS_ORIGINS", "*")),
		Sources: []Source{
			{Platform: "facebook", URL: os.Getenv("FACEBOOK_SOURCE_URL")},
			{Platform: "google", URL: os.Getenv("GOOGLE_SOURCE_URL")},
			{Platform: "tiktok", URL: os.Getenv("TIKTOK_SOURCE_URL")},
		},
		SinkURL:        os.Getenv("SINK_URL"),
		SinkSecret:     os.Getenv("SINK_SECRET"),
		IngestSchedule: os.Getenv("INGEST_SCHEDULE"),
		SourceRPS:      envFloat("SOURCE_RPS", 5),
	}
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s backend", c.StoreBackend)
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the %s backend", c.StoreBackend)
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.MaxCampaigns <= 0 {
		return fmt.Errorf("MAX_CAMPAIGNS must be positive")
	}
	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return def
}

func envFloat(k string, def float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(k), 64); err == nil {
		return f
	}
	return def
}

func envBool(k string, def bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(k)); err == nil {
		return b
	}
	return def
}

func csv(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

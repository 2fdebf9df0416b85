package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	StoreBackend     string
	RedisURL         string
	MemoryHonorTTL   bool
	MinimaxAPIKey    string
	MinimaxBaseURL   string
	GenaiAPIKey      string
	GenaiBaseURL     string
	GenaiModel       string
	AssetRoot        string
	StorageBaseURL   string
	VideoCacheTTL    time.Duration
	TryonCacheTTL    time.Duration
	PollInterval     time.Duration
	JobBudget        time.Duration
	MaxGenerations   int64
	CORSOrigins      []string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from the environment (and an optional .env
// file) and applies defaults where needed.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8002"),
		StoreBackend:     strings.ToLower(getEnv("STORE_BACKEND", "redis")),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		MemoryHonorTTL:   getEnvBool("MEMORY_STORE_HONOR_TTL", true),
		MinimaxAPIKey:    os.Getenv("MINIMAX_API_KEY"),
		MinimaxBaseURL:   getEnv("MINIMAX_BASE_URL", "https://api.minimax.chat/v1"),
		GenaiAPIKey:      os.Getenv("GENAI_API_KEY"),
		GenaiBaseURL:     getEnv("GENAI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GenaiModel:       getEnv("GENAI_MODEL", "gemini-2.5-flash-image-preview"),
		AssetRoot:        getEnv("ASSET_ROOT", "data"),
		StorageBaseURL:   getEnv("STORAGE_BASE_URL", ""),
		VideoCacheTTL:    time.Second * time.Duration(getEnvInt("VIDEO_CACHE_TTL_SECONDS", 3600)),
		TryonCacheTTL:    time.Second * time.Duration(getEnvInt("TRYON_CACHE_TTL_SECONDS", 86400)),
		PollInterval:     time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 5)),
		JobBudget:        time.Second * time.Duration(getEnvInt("JOB_BUDGET_SECONDS", 300)),
		MaxGenerations:   int64(getEnvInt("MAX_CONCURRENT_GENERATIONS", 8)),
		CORSOrigins:      splitCSV(getEnv("CORS_ALLOW_ORIGINS", "*")),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		// The write timeout must outlive the job budget: animate requests
		// hold the connection open while a generation is in flight.
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 330)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.StorageBaseURL == "" {
		cfg.StorageBaseURL = "http://localhost:" + cfg.Port + "/static"
	}
	cfg.StorageBaseURL = strings.TrimRight(cfg.StorageBaseURL, "/")

	switch cfg.StoreBackend {
	case "redis", "memory":
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be redis or memory, got %q", cfg.StoreBackend)
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL_SECONDS must be positive")
	}
	if cfg.JobBudget <= 0 {
		return nil, fmt.Errorf("JOB_BUDGET_SECONDS must be positive")
	}
	if cfg.MaxGenerations <= 0 {
		cfg.MaxGenerations = 1
	}

	return cfg, nil
}

// VideoEnabled reports whether the remote video engine is configured.
func (c *Config) VideoEnabled() bool {
	return strings.TrimSpace(c.MinimaxAPIKey) != ""
}

// TryonEnabled reports whether the remote image-composition engine is configured.
func (c *Config) TryonEnabled() bool {
	return strings.TrimSpace(c.GenaiAPIKey) != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

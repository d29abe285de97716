package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

const maxHistoryDays = 30

type Config struct {
	Mode     Mode   `env:"GUIDEON_MODE" envDefault:"local"`
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StorageBackend    string `env:"GUIDEON_STORAGE_BACKEND" envDefault:"memory"` // "memory" or "firestore"
	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"`
	ContentSeedFile   string `env:"CONTENT_SEED_FILE"`

	RequireAuth bool   `env:"REQUIRE_AUTH" envDefault:"true"`
	CORSOrigin  string `env:"CORS_ORIGIN" envDefault:"*"`

	LLMProvider    string        `env:"LLM_PROVIDER" envDefault:"deepseek"` // "deepseek", "vertex" or "mock"
	DeepSeekAPIKey string        `env:"DEEPSEEK_API_KEY"`
	DeepSeekURL    string        `env:"DEEPSEEK_BASE_URL" envDefault:"https://api.deepseek.com"`
	DeepSeekModel  string        `env:"DEEPSEEK_MODEL" envDefault:"deepseek-chat"`
	Temperature    float32       `env:"LLM_TEMPERATURE" envDefault:"0.7"`
	MaxTokens      int           `env:"LLM_MAX_TOKENS" envDefault:"400"`
	LLMTimeout     time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`
	GCPLocation    string        `env:"GCP_LOCATION" envDefault:"us-central1"`
	VertexModel    string        `env:"VERTEX_MODEL" envDefault:"gemini-2.5-flash-lite"`

	EncryptionKey  string `env:"CHAT_ENCRYPTION_KEY"`
	PersistHistory bool   `env:"PERSIST_HISTORY" envDefault:"true"`
	HistoryMaxDays int    `env:"HISTORY_MAX_DAYS" envDefault:"30"`

	RedisAddr          string `env:"REDIS_ADDR"`
	RedisPassword      string `env:"REDIS_PASSWORD"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads an optional .env file, then all env vars, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse builds the config from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	switch Mode(strings.ToLower(string(cfg.Mode))) {
	case ModeGCP:
		cfg.Mode = ModeGCP
	default:
		cfg.Mode = ModeLocal
	}
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))

	if cfg.HistoryMaxDays <= 0 || cfg.HistoryMaxDays > maxHistoryDays {
		cfg.HistoryMaxDays = maxHistoryDays
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 400
	}

	// Minimal validation in GCP mode
	if cfg.Mode == ModeGCP && cfg.FirebaseProjectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID must be set in gcp mode")
	}
	if cfg.StorageBackend == "firestore" && cfg.FirebaseProjectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is required for the firestore storage backend")
	}
	if cfg.RequireAuth && cfg.FirebaseProjectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is required when REQUIRE_AUTH is true")
	}

	switch cfg.LLMProvider {
	case "deepseek":
		if cfg.DeepSeekAPIKey == "" {
			return nil, errors.New("DEEPSEEK_API_KEY must be set when LLM_PROVIDER=deepseek")
		}
	case "vertex":
		if cfg.FirebaseProjectID == "" {
			return nil, errors.New("FIREBASE_PROJECT_ID must be set when LLM_PROVIDER=vertex")
		}
	case "mock":
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}

	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

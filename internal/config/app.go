package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig is the top-level configuration for the ingestion/analytics
// engine described in spec.md §7: refresh cadence, per-source rate
// limits, and which optional cooperative providers (LLM, embeddings,
// transcript microservice, durable store backend) are wired in this
// deployment.
type AppConfig struct {
	RefreshIntervalMinutes int `yaml:"refresh_interval_minutes"`
	DeepRefreshHours       int `yaml:"deep_refresh_hours"`
	MaxRecords             int `yaml:"max_records"`

	RateLimits map[string]RateLimitConfig `yaml:"rate_limits"`

	LLMProvider       string `yaml:"llm_provider"`
	LLMModel          string `yaml:"llm_model"`
	EmbeddingProvider string `yaml:"embedding_provider"`
	EmbeddingModel    string `yaml:"embedding_model"`

	TranscriptServiceURL string `yaml:"transcript_service_url"`

	StoreBackend string `yaml:"store_backend"`
	StorePath    string `yaml:"store_path"`
	DatabaseURL  string `yaml:"database_url"`

	HTTP HTTPConfig `yaml:"http"`
}

// RateLimitConfig mirrors internal/ratelimit.Config's fields so the YAML
// shape matches the values ratelimit.NewLimiter expects directly.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Credentials holds the secrets loaded from the environment, kept
// separate from AppConfig so a config dump never accidentally
// serializes an API key.
type Credentials struct {
	AnthropicAPIKey  string
	OpenAIAPIKey     string
	GitHubToken      string
	PatentAPIKey     string
	YouTubeAPIKey    string
	TranscriptAPIKey string
	DatabaseURL      string
}

// DefaultAppConfig matches spec.md §4.6's stated cadence: a 10-minute
// catalog refresh and a 6-hour deep-window reset.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		RefreshIntervalMinutes: 10,
		DeepRefreshHours:       6,
		MaxRecords:             50000,
		LLMProvider:            "none",
		EmbeddingProvider:      "none",
		StoreBackend:           "memory",
		HTTP: HTTPConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
	}
}

// LoadAppConfig reads path, overlaying it on DefaultAppConfig so a
// partial file only overrides the fields it sets. A missing file is
// not an error: the zero-config deployment runs on defaults alone.
func LoadAppConfig(path string) (AppConfig, error) {
	cfg := DefaultAppConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read app config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse app config: %w", err)
	}
	return cfg, nil
}

func (c AppConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMinutes) * time.Minute
}

func (c AppConfig) DeepRefreshWindow() time.Duration {
	return time.Duration(c.DeepRefreshHours) * time.Hour
}

// LoadCredentials loads a .env file if present (a missing file is not
// an error — production deployments set these directly in the
// process environment) and reads the provider credentials from it.
// Every field may legitimately be empty: internal/llm.New and
// internal/knowledge's embedding client both degrade to a no-op
// implementation rather than failing when a key is absent.
func LoadCredentials(envFile string) Credentials {
	_ = godotenv.Load(envFile)
	return Credentials{
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		GitHubToken:      os.Getenv("GITHUB_TOKEN"),
		PatentAPIKey:     os.Getenv("PATENT_API_KEY"),
		YouTubeAPIKey:    os.Getenv("YOUTUBE_API_KEY"),
		TranscriptAPIKey: os.Getenv("TRANSCRIPT_API_KEY"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
	}
}

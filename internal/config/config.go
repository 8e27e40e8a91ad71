package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	// Listings, COE history and the persistent cache tier. Optional: without
	// it data tools report unavailable and the cache is memory only.
	DatabaseURL      string `envconfig:"DATABASE_URL"`
	DatabaseMaxConns int32  `envconfig:"DATABASE_MAX_CONNS" default:"10"`

	OpenAIAPIKey    string  `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL   string  `envconfig:"OPENAI_BASE_URL"`
	ChatModel       string  `envconfig:"CHAT_MODEL" default:"gpt-4o-mini"`
	EmbeddingModel  string  `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	ChatMaxTokens   int     `envconfig:"CHAT_MAX_TOKENS" default:"1024"`
	ChatTemperature float32 `envconfig:"CHAT_TEMPERATURE" default:"0.7"`
	EmbeddingRate   float64 `envconfig:"EMBEDDING_RATE" default:"0"`

	ContentDir      string `envconfig:"CONTENT_DIR" default:"content"`
	ContentS3Bucket string `envconfig:"CONTENT_S3_BUCKET"`
	ContentS3Prefix string `envconfig:"CONTENT_S3_PREFIX"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	IndexPath string `envconfig:"INDEX_PATH" default:"data/vector-index.json"`

	CacheTTL           time.Duration `envconfig:"CACHE_TTL" default:"1h"`
	CacheMaxEntries    int           `envconfig:"CACHE_MAX_ENTRIES" default:"500"`
	CacheSweepInterval time.Duration `envconfig:"CACHE_SWEEP_INTERVAL" default:"1h"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Bearer token for admin endpoints. Admin routes are disabled when empty.
	AdminToken string `envconfig:"ADMIN_TOKEN"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("MOTORAG", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

// HasS3Content reports whether documents are read from a bucket instead of
// ContentDir.
func (c *Config) HasS3Content() bool {
	return c.ContentS3Bucket != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}

func (c *Config) HasAdminToken() bool {
	return c.AdminToken != ""
}

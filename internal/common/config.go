package common

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	LLM      LLMConfig
	Upstream UpstreamConfig
	Pipeline PipelineConfig
	Queue    QueueConfig
	Auth     AuthConfig
	Log      LogConfig
}

// DatabaseConfig holds store-related configuration
type DatabaseConfig struct {
	Driver           string        `env:"STORE_DRIVER" envDefault:"postgres"`
	DSN              string        `env:"DB_URL"`
	MongoURI         string        `env:"MONGODB_URI"`
	MongoDatabase    string        `env:"MONGODB_DATABASE" envDefault:"voice_studio"`
	MaxConns         int32         `env:"DB_MAX_CONNS" envDefault:"20"`
	MinConns         int32         `env:"DB_MIN_CONNS" envDefault:"5"`
	MaxConnLifetime  time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"30m"`
	MaxConnIdleTime  time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	DialTimeout      time.Duration `env:"DB_DIAL_TIMEOUT" envDefault:"3s"`
	StatementTimeout time.Duration `env:"DB_STATEMENT_TIMEOUT" envDefault:"0s"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string        `env:"HTTP_ADDR" envDefault:":8080"`
	GRPCAddr       string        `env:"GRPC_ADDR" envDefault:":9090"`
	Port           string        `env:"PORT" envDefault:"3000"`
	WebhookSecret  string        `env:"TRANSCRIPTION_WEBHOOK_SECRET"`
	ShutdownGrace  time.Duration `env:"SHUTDOWN_GRACE" envDefault:"15s"`
	HealthInterval time.Duration `env:"HEALTH_INTERVAL" envDefault:"10s"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Provider     string        `env:"LLM_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey string        `env:"GEMINI_API_KEY"`
	GeminiModel  string        `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
	OpenAIAPIKey string        `env:"OPENAI_API_KEY"`
	OpenAIModel  string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIURL    string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	Temperature  float32       `env:"LLM_TEMPERATURE" envDefault:"0.2"`
	Timeout      time.Duration `env:"LLM_TIMEOUT" envDefault:"45s"`
}

// APIKey returns the key of the selected provider.
func (c LLMConfig) APIKey() string {
	if c.Provider == "openai" {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// UpstreamConfig describes the internal API that discovers creators and ingests videos.
type UpstreamConfig struct {
	BaseURL   string        `env:"UPSTREAM_BASE_URL"`
	VercelURL string        `env:"VERCEL_URL"`
	Token     string        `env:"UPSTREAM_TOKEN"`
	Timeout   time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"60s"`
}

// ResolveBaseURL picks UPSTREAM_BASE_URL, then the Vercel deployment URL, then localhost.
func (c UpstreamConfig) ResolveBaseURL(port string) string {
	switch {
	case c.BaseURL != "":
		return strings.TrimRight(c.BaseURL, "/")
	case c.VercelURL != "":
		return "https://" + strings.TrimRight(c.VercelURL, "/")
	default:
		if port == "" {
			port = "3000"
		}
		return "http://localhost:" + port
	}
}

// PipelineConfig holds the pacing of the voice creation stages.
type PipelineConfig struct {
	IngestBatchSize       int           `env:"INGEST_BATCH_SIZE" envDefault:"10"`
	IngestBatchDelay      time.Duration `env:"INGEST_BATCH_DELAY" envDefault:"2s"`
	PollInterval          time.Duration `env:"TRANSCRIPTION_POLL_INTERVAL" envDefault:"30s"`
	TranscriptionTimeout  time.Duration `env:"TRANSCRIPTION_TIMEOUT" envDefault:"30m"`
	TemplateDelay         time.Duration `env:"TEMPLATE_DELAY" envDefault:"500ms"`
	MinTranscriptLength   int           `env:"MIN_TRANSCRIPT_LENGTH" envDefault:"50"`
	TranscriptPromptLimit int           `env:"TRANSCRIPT_PROMPT_LIMIT" envDefault:"6000"`
}

// QueueConfig selects how accepted jobs reach the processor.
type QueueConfig struct {
	Driver     string        `env:"QUEUE_DRIVER" envDefault:"memory"`
	Workers    int           `env:"QUEUE_WORKERS" envDefault:"4"`
	Size       int           `env:"QUEUE_SIZE" envDefault:"128"`
	JobTimeout time.Duration `env:"JOB_TIMEOUT" envDefault:"0s"`
	SQSURL     string        `env:"SQS_QUEUE_URL"`
	AWSRegion  string        `env:"AWS_REGION" envDefault:"us-east-1"`
	WaitTime   int64         `env:"SQS_WAIT_SECONDS" envDefault:"20"`
	Visibility int64         `env:"SQS_VISIBILITY_SECONDS" envDefault:"900"`
}

// AuthConfig selects the request authenticator.
type AuthConfig struct {
	Mode     string `env:"AUTH_MODE" envDefault:"jwt"`
	JWKSURL  string `env:"AUTH_JWKS_URL"`
	Issuer   string `env:"AUTH_ISSUER"`
	Audience string `env:"AUTH_AUDIENCE"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	Format     string `env:"LOG_FORMAT" envDefault:"text"`
	File       string `env:"LOG_FILE"`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"50"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"14"`
}

// LoadConfig loads optional dotenv files, then parses the environment.
// Missing dotenv files are ignored; variables already set in the process win.
func LoadConfig(files ...string) (*Config, error) {
	for _, f := range files {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, NewAppError("CONFIG_ERROR", "parse environment", err)
	}
	return cfg, nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
		if c.Database.DSN == "" {
			return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
		}
	case "mongo":
		if c.Database.MongoURI == "" {
			return NewAppError("CONFIG_ERROR", "MONGODB_URI is required", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "STORE_DRIVER must be postgres, sqlite or mongo", ErrInvalidInput)
	}
	switch c.LLM.Provider {
	case "gemini", "openai":
	default:
		return NewAppError("CONFIG_ERROR", "LLM_PROVIDER must be gemini or openai", ErrInvalidInput)
	}
	if c.LLM.APIKey() == "" {
		return NewAppError("CONFIG_ERROR", "an API key for "+c.LLM.Provider+" is required", ErrInvalidInput)
	}
	switch c.Queue.Driver {
	case "memory":
	case "sqs":
		if c.Queue.SQSURL == "" {
			return NewAppError("CONFIG_ERROR", "SQS_QUEUE_URL is required", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "QUEUE_DRIVER must be memory or sqs", ErrInvalidInput)
	}
	if c.Queue.JobTimeout < 0 {
		return NewAppError("CONFIG_ERROR", "JOB_TIMEOUT must not be negative", ErrInvalidInput)
	}
	switch c.Auth.Mode {
	case "header":
	case "jwt":
		if c.Auth.JWKSURL == "" {
			return NewAppError("CONFIG_ERROR", "AUTH_JWKS_URL is required", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "AUTH_MODE must be jwt or header", ErrInvalidInput)
	}
	if c.Pipeline.IngestBatchSize <= 0 {
		return NewAppError("CONFIG_ERROR", "INGEST_BATCH_SIZE must be positive", ErrInvalidInput)
	}
	return nil
}

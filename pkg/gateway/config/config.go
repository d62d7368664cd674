package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// StoreBackend selects where scenarios, transcript history and progress
// records live.
type StoreBackend string

const (
	StoreDirectus StoreBackend = "directus"
	StorePostgres StoreBackend = "postgres"
)

// CompletionProvider selects the text-completion backend for the chat path.
type CompletionProvider string

const (
	CompletionOpenAI CompletionProvider = "openai"
	CompletionGemini CompletionProvider = "gemini"
)

// Config is the immutable process-wide configuration. It is built once at
// startup and passed by value into each component; nothing reads the
// environment after LoadFromEnv returns.
type Config struct {
	Addr string `env:"HOVORKA_ADDR" envDefault:":3001"`

	// Upstream voice API.
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com"`

	RealtimeModel         string `env:"HOVORKA_REALTIME_MODEL" envDefault:"gpt-4o-realtime-preview"`
	TranscriptionModel    string `env:"HOVORKA_TRANSCRIPTION_MODEL" envDefault:"gpt-4o-mini-transcribe"`
	TranscriptionLanguage string `env:"HOVORKA_TRANSCRIPTION_LANGUAGE" envDefault:"sk"`

	// Chat completion.
	CompletionProvider CompletionProvider `env:"HOVORKA_COMPLETION_PROVIDER" envDefault:"openai"`
	CompletionModel    string             `env:"HOVORKA_COMPLETION_MODEL" envDefault:"gpt-4o-mini"`
	GeminiAPIKey       string             `env:"GEMINI_API_KEY"`

	// Scenario content and transcript persistence.
	StoreBackend  StoreBackend `env:"HOVORKA_STORE_BACKEND" envDefault:"directus"`
	DirectusURL   string       `env:"DIRECTUS_URL"`
	DirectusToken string       `env:"DIRECTUS_TOKEN"`
	PostgresDSN   string       `env:"HOVORKA_POSTGRES_DSN"`

	// CORS; empty list disables cross-origin access.
	CORSAllowedOrigins []string `env:"HOVORKA_CORS_ORIGINS" envSeparator:","`

	MaxBodyBytes int64 `env:"HOVORKA_MAX_BODY_BYTES" envDefault:"2097152"` // 2 MiB

	// Operational defaults.
	ReadHeaderTimeout   time.Duration `env:"HOVORKA_READ_HEADER_TIMEOUT" envDefault:"10s"`
	ReadTimeout         time.Duration `env:"HOVORKA_READ_TIMEOUT" envDefault:"30s"`
	ShutdownGracePeriod time.Duration `env:"HOVORKA_SHUTDOWN_GRACE_PERIOD" envDefault:"30s"`

	// Upstream HTTP client defaults. The core itself enforces no timeouts;
	// these bound the transport.
	UpstreamConnectTimeout        time.Duration `env:"HOVORKA_CONNECT_TIMEOUT" envDefault:"5s"`
	UpstreamResponseHeaderTimeout time.Duration `env:"HOVORKA_RESPONSE_HEADER_TIMEOUT" envDefault:"30s"`
}

// LoadFromEnv parses configuration from the environment and validates it.
func LoadFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.OpenAIBaseURL = strings.TrimRight(cfg.OpenAIBaseURL, "/")
	cfg.DirectusURL = strings.TrimRight(cfg.DirectusURL, "/")
	if issues := cfg.Issues(); len(issues) > 0 {
		return Config{}, fmt.Errorf("invalid config: %s", strings.Join(issues, "; "))
	}
	return cfg, nil
}

// Issues lists everything wrong with the configuration. Empty means usable.
func (c Config) Issues() []string {
	issues := make([]string, 0, 4)

	if strings.TrimSpace(c.OpenAIAPIKey) == "" {
		issues = append(issues, "OPENAI_API_KEY must be set")
	}

	switch c.StoreBackend {
	case StoreDirectus:
		if strings.TrimSpace(c.DirectusURL) == "" {
			issues = append(issues, "DIRECTUS_URL must be set when HOVORKA_STORE_BACKEND=directus")
		}
		if strings.TrimSpace(c.DirectusToken) == "" {
			issues = append(issues, "DIRECTUS_TOKEN must be set when HOVORKA_STORE_BACKEND=directus")
		}
	case StorePostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			issues = append(issues, "HOVORKA_POSTGRES_DSN must be set when HOVORKA_STORE_BACKEND=postgres")
		}
	default:
		issues = append(issues, "HOVORKA_STORE_BACKEND must be one of directus|postgres")
	}

	switch c.CompletionProvider {
	case CompletionOpenAI:
	case CompletionGemini:
		if strings.TrimSpace(c.GeminiAPIKey) == "" {
			issues = append(issues, "GEMINI_API_KEY must be set when HOVORKA_COMPLETION_PROVIDER=gemini")
		}
	default:
		issues = append(issues, "HOVORKA_COMPLETION_PROVIDER must be one of openai|gemini")
	}

	if strings.TrimSpace(c.RealtimeModel) == "" {
		issues = append(issues, "HOVORKA_REALTIME_MODEL must not be empty")
	}
	if strings.TrimSpace(c.CompletionModel) == "" {
		issues = append(issues, "HOVORKA_COMPLETION_MODEL must not be empty")
	}
	if c.MaxBodyBytes <= 0 {
		issues = append(issues, "HOVORKA_MAX_BODY_BYTES must be > 0")
	}
	if c.ReadHeaderTimeout <= 0 || c.ReadTimeout <= 0 {
		issues = append(issues, "timeouts must be > 0")
	}
	if c.ShutdownGracePeriod <= 0 {
		issues = append(issues, "HOVORKA_SHUTDOWN_GRACE_PERIOD must be > 0")
	}
	if c.UpstreamConnectTimeout <= 0 || c.UpstreamResponseHeaderTimeout <= 0 {
		issues = append(issues, "upstream timeouts must be > 0")
	}

	return issues
}

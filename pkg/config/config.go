// Package config loads process configuration from the environment, with
// optional .env file support.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Providers selectable per concern.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// ConfigError reports invalid or missing startup configuration. It is fatal:
// the process refuses to start.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

type Config struct {
	// OpenAIAPIKey is required whenever an OpenAI-backed provider is
	// selected, which is the default for both concerns.
	OpenAIAPIKey string
	GeminiAPIKey string
	// OllamaBaseURL overrides the local Ollama address.
	OllamaBaseURL string

	TranscriptionProvider string `validate:"oneof=openai gemini"`
	CompletionProvider    string `validate:"oneof=openai ollama"`

	TranscriptionModel string
	CompletionModel    string

	TargetLanguage string `validate:"required"`
	SpeakerLabel   string `validate:"required"`

	ListenAddr string `validate:"required"`
	LogLevel   string
}

var validate = validator.New()

// Load reads .env (when present) and the process environment, applies
// defaults and validates the result.
func Load() (*Config, error) {
	// A missing .env file is fine; explicit environment always wins.
	_ = godotenv.Load()

	cfg := &Config{
		OpenAIAPIKey:          strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		GeminiAPIKey:          strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		OllamaBaseURL:         strings.TrimSpace(os.Getenv("OLLAMA_BASE_URL")),
		TranscriptionProvider: envOrDefault("SUHBAT_TRANSCRIPTION_PROVIDER", ProviderOpenAI),
		CompletionProvider:    envOrDefault("SUHBAT_COMPLETION_PROVIDER", ProviderOpenAI),
		TranscriptionModel:    strings.TrimSpace(os.Getenv("SUHBAT_TRANSCRIPTION_MODEL")),
		CompletionModel:       strings.TrimSpace(os.Getenv("SUHBAT_COMPLETION_MODEL")),
		TargetLanguage:        envOrDefault("SUHBAT_TARGET_LANGUAGE", "Uzbek"),
		SpeakerLabel:          envOrDefault("SUHBAT_SPEAKER_LABEL", "Speaker"),
		ListenAddr:            envOrDefault("SUHBAT_LISTEN_ADDR", ":8080"),
		LogLevel:              envOrDefault("SUHBAT_LOG_LEVEL", "info"),
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, &ConfigError{Err: err}
	}

	if cfg.usesProvider(ProviderOpenAI) && cfg.OpenAIAPIKey == "" {
		return nil, &ConfigError{Err: errors.New("OPENAI_API_KEY is not set")}
	}
	if cfg.TranscriptionProvider == ProviderGemini && cfg.GeminiAPIKey == "" {
		return nil, &ConfigError{Err: errors.New("GEMINI_API_KEY is not set")}
	}

	return cfg, nil
}

func (c *Config) usesProvider(name string) bool {
	return c.TranscriptionProvider == name || c.CompletionProvider == name
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

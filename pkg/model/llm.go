package model

import "context"

// Factory methods each provider package implements to create generators.
// The pipeline depends on these function types so tests can substitute
// deterministic fixtures for network-backed providers.

// NewStringContentGeneratorFunc creates a generator producing plain text output.
type NewStringContentGeneratorFunc func(prompt string, opts ...GeneratorOption) (ContentGenerator[string], error)

// NewStructureContentGeneratorFunc creates a generator producing structured
// output (JSON that can be unmarshaled into T).
type NewStructureContentGeneratorFunc[T any] func(prompt string, opts ...GeneratorOption) (ContentGenerator[T], error)

type ContentGenerator[T any] interface {
	Generate(ctx context.Context) (T, GenerationMetadata, error)
	AddPromptContext(ctx context.Context, messageType ContextMessageType, content string)
}

type GenerationMetadata map[string]string

const (
	MetadataKeyProvider     = "provider"
	MetadataKeyModel        = "model"
	MetadataKeyLatencyMs    = "latency_ms"
	MetadataKeyInputTokens  = "input_tokens"
	MetadataKeyOutputTokens = "output_tokens"
	MetadataKeyTotalTokens  = "total_tokens"
	MetadataKeyResponseID   = "response_id"
)

// ContextMessageType distinguishes the role a prompt context message is
// attributed to when sent to the provider.
type ContextMessageType string

const (
	ContextMessageTypeSystem    ContextMessageType = "system"
	ContextMessageTypeHuman     ContextMessageType = "human"
	ContextMessageTypeAssistant ContextMessageType = "assistant"
)

type PromptContext struct {
	MessageType ContextMessageType
	Content     string
}

type GeneratorOption interface {
	apply(*GeneratorConfig)
}

type generatorOptionFunc func(*GeneratorConfig)

func (f generatorOptionFunc) apply(cfg *GeneratorConfig) {
	f(cfg)
}

type GeneratorConfig struct {
	URL         string
	AuthToken   string
	Temperature *float64
	MaxTokens   *int
	Model       *string
}

func ResolveGeneratorOpts(opts ...GeneratorOption) GeneratorConfig {
	cfg := GeneratorConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(&cfg)
		}
	}
	return cfg
}

func WithURL(value string) GeneratorOption {
	return generatorOptionFunc(func(cfg *GeneratorConfig) {
		cfg.URL = value
	})
}

func WithAuthToken(value string) GeneratorOption {
	return generatorOptionFunc(func(cfg *GeneratorConfig) {
		cfg.AuthToken = value
	})
}

func WithTemperature(value float64) GeneratorOption {
	return generatorOptionFunc(func(cfg *GeneratorConfig) {
		cfg.Temperature = &value
	})
}

func WithMaxTokens(value int) GeneratorOption {
	return generatorOptionFunc(func(cfg *GeneratorConfig) {
		cfg.MaxTokens = &value
	})
}

func WithModel(value string) GeneratorOption {
	return generatorOptionFunc(func(cfg *GeneratorConfig) {
		cfg.Model = &value
	})
}

package main

import (
	"fmt"

	"github.com/voicelayer-ai/suhbat/pkg/config"
	"github.com/voicelayer-ai/suhbat/pkg/llms/gemini"
	"github.com/voicelayer-ai/suhbat/pkg/llms/ollama"
	"github.com/voicelayer-ai/suhbat/pkg/llms/openai"
	"github.com/voicelayer-ai/suhbat/pkg/model"
	"github.com/voicelayer-ai/suhbat/pkg/pipeline"
)

// buildFactories binds the configured providers to the pipeline's factory
// seams, injecting credentials so the pipeline itself stays credential-free.
func buildFactories(cfg *config.Config) (pipeline.Factories, error) {
	factories := pipeline.Factories{}

	switch cfg.TranscriptionProvider {
	case config.ProviderOpenAI:
		factories.NewTranscription = func(filePath string, opts model.AudioOptions) (model.AudioTranscriptionGenerator, error) {
			opts.AuthToken = cfg.OpenAIAPIKey
			return openai.NewAudioTranscriptionGenerator(filePath, opts)
		}
	case config.ProviderGemini:
		factories.NewTranscription = func(filePath string, opts model.AudioOptions) (model.AudioTranscriptionGenerator, error) {
			opts.AuthToken = cfg.GeminiAPIKey
			return gemini.NewAudioTranscriptionGenerator(filePath, opts)
		}
	default:
		return factories, fmt.Errorf("unknown transcription provider %q", cfg.TranscriptionProvider)
	}

	switch cfg.CompletionProvider {
	case config.ProviderOpenAI:
		factories.NewText = func(prompt string, opts ...model.GeneratorOption) (model.ContentGenerator[string], error) {
			return openai.NewStringContentGenerator(prompt, append(opts, model.WithAuthToken(cfg.OpenAIAPIKey))...)
		}
		factories.NewSummary = func(prompt string, opts ...model.GeneratorOption) (model.ContentGenerator[pipeline.Summary], error) {
			return openai.NewStructureContentGenerator[pipeline.Summary](prompt, append(opts, model.WithAuthToken(cfg.OpenAIAPIKey))...)
		}
	case config.ProviderOllama:
		factories.NewText = func(prompt string, opts ...model.GeneratorOption) (model.ContentGenerator[string], error) {
			return ollama.NewStringContentGenerator(prompt, append(opts, model.WithURL(cfg.OllamaBaseURL))...)
		}
		factories.NewSummary = func(prompt string, opts ...model.GeneratorOption) (model.ContentGenerator[pipeline.Summary], error) {
			return ollama.NewStructureContentGenerator[pipeline.Summary](prompt, append(opts, model.WithURL(cfg.OllamaBaseURL))...)
		}
	default:
		return factories, fmt.Errorf("unknown completion provider %q", cfg.CompletionProvider)
	}

	return factories, nil
}

// Package openai implements audio transcription and text completion
// generators backed by the OpenAI API.
package openai

import (
	"strconv"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/voicelayer-ai/suhbat/pkg/model"
)

const (
	providerName                       = "openai"
	defaultCompletionModelName         = "gpt-4o"
	defaultAudioTranscriptionModelName = "whisper-1"
)

type client struct {
	apiClient openai.Client
}

func newClient(cfg model.GeneratorConfig) *client {
	requestOpts := make([]option.RequestOption, 0, 2)
	if cfg.URL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(cfg.URL))
	}
	if cfg.AuthToken != "" {
		requestOpts = append(requestOpts, option.WithAPIKey(cfg.AuthToken))
	}

	return &client{apiClient: openai.NewClient(requestOpts...)}
}

func initMetadata(modelName string) model.GenerationMetadata {
	if strings.TrimSpace(modelName) == "" {
		modelName = "unknown"
	}

	return model.GenerationMetadata{
		model.MetadataKeyProvider: providerName,
		model.MetadataKeyModel:    modelName,
	}
}

func setLatencyMetadata(meta model.GenerationMetadata, start time.Time) {
	if meta == nil {
		return
	}
	meta[model.MetadataKeyLatencyMs] = strconv.FormatInt(time.Since(start).Milliseconds(), 10)
}

func resolveCompletionModelName(cfg model.GeneratorConfig) string {
	if cfg.Model != nil {
		modelName := strings.TrimSpace(*cfg.Model)
		if modelName != "" {
			return modelName
		}
	}
	return defaultCompletionModelName
}

// Reasoning models reject sampling parameters; temperature is dropped for
// them instead of failing the whole run.
func isReasoningModel(modelName string) bool {
	name := strings.ToLower(strings.TrimSpace(modelName))
	if name == "" {
		return false
	}

	return strings.HasPrefix(name, "o1") ||
		strings.HasPrefix(name, "o3") ||
		strings.HasPrefix(name, "o4") ||
		strings.HasPrefix(name, "gpt-5")
}

package openai

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"

	"github.com/voicelayer-ai/suhbat/pkg/logging"
	"github.com/voicelayer-ai/suhbat/pkg/model"
	"github.com/voicelayer-ai/suhbat/pkg/utils"
)

type audioTranscriptionGenerator struct {
	client   *client
	filePath string
	opts     model.AudioOptions
}

// NewAudioTranscriptionGenerator creates a Whisper-backed transcription
// generator bound to the given audio file.
func NewAudioTranscriptionGenerator(
	filePath string,
	opts model.AudioOptions,
) (model.AudioTranscriptionGenerator, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, utils.WrapIfNotNil(errors.New("file path is required"))
	}

	return &audioTranscriptionGenerator{
		client:   newClient(audioGeneratorConfigFromOptions(opts)),
		filePath: filePath,
		opts:     opts,
	}, nil
}

func (g *audioTranscriptionGenerator) Generate(ctx context.Context) (string, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := resolveAudioTranscriptionModelName(g.opts)
	meta := initMetadata(modelName)
	defer setLatencyMetadata(meta, start)

	log := logging.NewLogger(ctx)
	log.Infof("audio_transcription_request model=%q file=%q", modelName, g.filePath)

	transcript, response, err := g.client.runAudioTranscription(ctx, g.filePath, g.opts)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	applyAudioTranscriptionMetadata(meta, response)
	return transcript, meta, nil
}

func (c *client) runAudioTranscription(
	ctx context.Context,
	filePath string,
	opts model.AudioOptions,
) (string, *openai.AudioTranscriptionNewResponseUnion, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", nil, utils.WrapIfNotNil(err)
	}
	defer func() {
		_ = file.Close()
	}()

	params := openai.AudioTranscriptionNewParams{
		File:           file,
		Model:          openai.AudioModel(resolveAudioTranscriptionModelName(opts)),
		ResponseFormat: openai.AudioResponseFormatJSON,
	}
	if prompt := strings.TrimSpace(opts.Prompt); prompt != "" {
		params.Prompt = param.NewOpt(prompt)
	}

	response, err := c.apiClient.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", nil, utils.WrapIfNotNil(err)
	}
	if response == nil {
		return "", nil, utils.WrapIfNotNil(errors.New("audio transcriptions API returned nil response"))
	}

	transcript := strings.TrimSpace(response.Text)
	if transcript == "" {
		return "", response, utils.WrapIfNotNil(errors.New("transcription response is empty"))
	}

	return transcript, response, nil
}

func resolveAudioTranscriptionModelName(opts model.AudioOptions) string {
	if modelName := strings.TrimSpace(opts.Model); modelName != "" {
		return modelName
	}
	return defaultAudioTranscriptionModelName
}

func audioGeneratorConfigFromOptions(opts model.AudioOptions) model.GeneratorConfig {
	cfg := model.GeneratorConfig{
		URL:       opts.URL,
		AuthToken: opts.AuthToken,
	}
	if modelName := strings.TrimSpace(opts.Model); modelName != "" {
		cfg.Model = &modelName
	}
	return cfg
}

func applyAudioTranscriptionMetadata(
	meta model.GenerationMetadata,
	response *openai.AudioTranscriptionNewResponseUnion,
) {
	if meta == nil || response == nil {
		return
	}

	meta[model.MetadataKeyInputTokens] = strconv.FormatInt(response.Usage.InputTokens, 10)
	meta[model.MetadataKeyOutputTokens] = strconv.FormatInt(response.Usage.OutputTokens, 10)
	meta[model.MetadataKeyTotalTokens] = strconv.FormatInt(response.Usage.TotalTokens, 10)
}

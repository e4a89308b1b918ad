// Package gemini implements an audio transcription generator backed by the
// Gemini API, as an alternative to the Whisper backend.
package gemini

import (
	"context"
	"errors"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/voicelayer-ai/suhbat/pkg/logging"
	"github.com/voicelayer-ai/suhbat/pkg/model"
	"github.com/voicelayer-ai/suhbat/pkg/utils"
)

const (
	providerName                       = "gemini"
	defaultAudioTranscriptionModelName = "gemini-2.5-flash"
	defaultTranscriptionPrompt         = "Transcribe this audio accurately. Return only the transcript text."
)

type audioTranscriptionGenerator struct {
	filePath string
	opts     model.AudioOptions
}

// NewAudioTranscriptionGenerator creates a Gemini-backed transcription
// generator bound to the given audio file.
func NewAudioTranscriptionGenerator(
	filePath string,
	opts model.AudioOptions,
) (model.AudioTranscriptionGenerator, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, utils.WrapIfNotNil(errors.New("file path is required"))
	}

	return &audioTranscriptionGenerator{filePath: filePath, opts: opts}, nil
}

func (g *audioTranscriptionGenerator) Generate(ctx context.Context) (string, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := resolveAudioTranscriptionModelName(g.opts)
	meta := initMetadata(modelName)
	defer setLatencyMetadata(meta, start)

	log := logging.NewLogger(ctx)
	log.Infof("audio_transcription_request model=%q file=%q", modelName, g.filePath)

	audioBytes, err := os.ReadFile(g.filePath)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	mimeType, err := resolveAudioMIMEType(g.filePath)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	client, err := newAPIClient(ctx, g.opts)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(
			[]*genai.Part{
				genai.NewPartFromText(resolveTranscriptionPrompt(g.opts)),
				genai.NewPartFromBytes(audioBytes, mimeType),
			},
			genai.RoleUser,
		),
	}

	response, err := client.Models.GenerateContent(ctx, modelName, contents, &genai.GenerateContentConfig{})
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	transcript := strings.TrimSpace(response.Text())
	if transcript == "" {
		err = errors.New("transcription response is empty")
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	applyAudioTranscriptionMetadata(meta, response)
	return transcript, meta, nil
}

func newAPIClient(ctx context.Context, opts model.AudioOptions) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
	}

	token := strings.TrimSpace(opts.AuthToken)
	if token == "" {
		token = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	if token != "" {
		clientCfg.APIKey = token
	}

	if baseURL := strings.TrimSpace(opts.URL); baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return client, nil
}

func resolveTranscriptionPrompt(opts model.AudioOptions) string {
	if prompt := strings.TrimSpace(opts.Prompt); prompt != "" {
		return prompt
	}
	return defaultTranscriptionPrompt
}

func resolveAudioTranscriptionModelName(opts model.AudioOptions) string {
	if modelName := strings.TrimSpace(opts.Model); modelName != "" {
		return modelName
	}
	return defaultAudioTranscriptionModelName
}

func resolveAudioMIMEType(filePath string) (string, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filePath)))
	if ext == "" {
		return "", utils.WrapIfNotNil(errors.New("audio file extension is required to determine mime type"))
	}

	switch ext {
	case ".wav":
		return "audio/wav", nil
	case ".mp3":
		return "audio/mpeg", nil
	case ".m4a", ".mp4":
		return "audio/mp4", nil
	case ".webm":
		return "audio/webm", nil
	case ".ogg":
		return "audio/ogg", nil
	case ".flac":
		return "audio/flac", nil
	case ".aac":
		return "audio/aac", nil
	}

	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		return "", utils.WrapIfNotNil(errors.New("unsupported audio file extension: " + ext))
	}

	// Strip parameters such as "; charset=utf-8".
	mimeType = strings.TrimSpace(strings.Split(mimeType, ";")[0])
	if !strings.HasPrefix(mimeType, "audio/") {
		return "", utils.WrapIfNotNil(errors.New("unsupported audio mime type: " + mimeType))
	}
	return mimeType, nil
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

func applyAudioTranscriptionMetadata(meta model.GenerationMetadata, response *genai.GenerateContentResponse) {
	if meta == nil || response == nil || response.UsageMetadata == nil {
		return
	}

	meta[model.MetadataKeyInputTokens] = strconv.Itoa(int(response.UsageMetadata.PromptTokenCount))
	meta[model.MetadataKeyOutputTokens] = strconv.Itoa(int(response.UsageMetadata.CandidatesTokenCount))
	meta[model.MetadataKeyTotalTokens] = strconv.Itoa(int(response.UsageMetadata.TotalTokenCount))
}

package model

import "context"

// AudioTranscriptionGenerator turns one audio file into transcript text.
type AudioTranscriptionGenerator interface {
	Generate(ctx context.Context) (string, GenerationMetadata, error)
}

// NewAudioTranscriptionGeneratorFunc creates a transcription generator bound
// to a single audio file.
type NewAudioTranscriptionGeneratorFunc func(filePath string, opts AudioOptions) (AudioTranscriptionGenerator, error)

type AudioOptions struct {
	URL       string
	AuthToken string
	Model     string
	// Prompt is a free-text instruction passed alongside the audio, e.g.
	// language hints for mixed-language recordings.
	Prompt string
}

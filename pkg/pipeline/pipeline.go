// Package pipeline runs the fixed audio-processing sequence: transcribe,
// diarize, normalize speaker labels, localize, summarize. The normalization
// step is the only local transform; the other stages call a hosted provider
// through the factory seams in pkg/model.
package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/voicelayer-ai/suhbat/pkg/logging"
	"github.com/voicelayer-ai/suhbat/pkg/model"
	"github.com/voicelayer-ai/suhbat/pkg/transcript"
)

const (
	defaultTargetLanguage = "Uzbek"

	diarizationTemperature  = 0.3
	localizationTemperature = 0.3
	summaryTemperature      = 0.0
)

// Factories supplies the provider constructors for each remote call. Tests
// substitute deterministic fixtures here.
type Factories struct {
	NewTranscription model.NewAudioTranscriptionGeneratorFunc
	NewText          model.NewStringContentGeneratorFunc
	NewSummary       model.NewStructureContentGeneratorFunc[Summary]
}

// Options configures a Processor. Zero values fall back to defaults.
type Options struct {
	// TargetLanguage is the language the transcript is localized into and
	// the summary is written in. Defaults to Uzbek.
	TargetLanguage string
	// SpeakerLabel is the canonical speaker label. Defaults to "Speaker".
	SpeakerLabel string
	// TranscriptionModel and CompletionModel override provider defaults.
	TranscriptionModel string
	CompletionModel    string
	// TranscriptionPrompt overrides the default mixed-language hint.
	TranscriptionPrompt string
}

// Processor executes runs. It holds no per-run state and is safe for
// sequential reuse.
type Processor struct {
	factories  Factories
	opts       Options
	normalizer *transcript.Normalizer
}

func NewProcessor(factories Factories, opts Options) (*Processor, error) {
	if factories.NewTranscription == nil {
		return nil, errors.New("pipeline: transcription factory is required")
	}
	if factories.NewText == nil {
		return nil, errors.New("pipeline: text completion factory is required")
	}
	if factories.NewSummary == nil {
		return nil, errors.New("pipeline: summary factory is required")
	}

	if strings.TrimSpace(opts.TargetLanguage) == "" {
		opts.TargetLanguage = defaultTargetLanguage
	}
	if strings.TrimSpace(opts.SpeakerLabel) == "" {
		opts.SpeakerLabel = transcript.DefaultSpeakerLabel
	}

	normalizer, err := transcript.NewNormalizer(opts.SpeakerLabel)
	if err != nil {
		return nil, err
	}

	return &Processor{factories: factories, opts: opts, normalizer: normalizer}, nil
}

// Process runs the full sequence over one audio file. A failed stage stops
// the run; no partial result is returned.
func (p *Processor) Process(ctx context.Context, audioPath string) (*Result, error) {
	runID := uuid.NewString()
	log := logging.NewLogger(ctx).WithFields(map[string]any{
		"run_id": runID,
		"audio":  audioPath,
	})

	result := &Result{
		RunID:         runID,
		StageMetadata: make(map[string]model.GenerationMetadata, 5),
	}

	log.Infof("stage=%s starting", StageTranscribe)
	raw, err := p.transcribe(ctx, audioPath, result)
	if err != nil {
		log.Errorf("stage=%s error: %v", StageTranscribe, err)
		return nil, err
	}
	result.RawTranscript = raw

	log.Infof("stage=%s starting", StageDiarize)
	diarized, err := p.complete(ctx, StageDiarize, diarizationInstruction(p.opts.SpeakerLabel), raw, diarizationTemperature, result)
	if err != nil {
		log.Errorf("stage=%s error: %v", StageDiarize, err)
		return nil, err
	}

	log.Infof("stage=%s starting", StageNormalize)
	formatted, err := p.normalizer.Normalize(diarized)
	if err != nil {
		log.Errorf("stage=%s error: %v", StageNormalize, err)
		return nil, err
	}
	result.OriginalText = formatted

	log.Infof("stage=%s starting", StageLocalize)
	localized, err := p.complete(ctx, StageLocalize, localizationInstruction(p.opts.TargetLanguage), formatted, localizationTemperature, result)
	if err != nil {
		log.Errorf("stage=%s error: %v", StageLocalize, err)
		return nil, err
	}
	result.LocalizedText = localized

	log.Infof("stage=%s starting", StageSummarize)
	summary, err := p.summarize(ctx, localized, result)
	if err != nil {
		log.Errorf("stage=%s error: %v", StageSummarize, err)
		return nil, err
	}
	result.Summary = summary

	log.Info("run complete")
	return result, nil
}

func (p *Processor) transcribe(ctx context.Context, audioPath string, result *Result) (string, error) {
	prompt := p.opts.TranscriptionPrompt
	if strings.TrimSpace(prompt) == "" {
		prompt = defaultTranscriptionPrompt(p.opts.TargetLanguage)
	}

	generator, err := p.factories.NewTranscription(audioPath, model.AudioOptions{
		Model:  p.opts.TranscriptionModel,
		Prompt: prompt,
	})
	if err != nil {
		return "", &TranscriptionError{Err: err}
	}

	raw, meta, err := generator.Generate(ctx)
	result.StageMetadata[StageTranscribe] = meta
	if err != nil {
		return "", &TranscriptionError{Err: err}
	}
	if strings.TrimSpace(raw) == "" {
		return "", &TranscriptionError{Err: errors.New("transcription returned no text")}
	}

	return raw, nil
}

func (p *Processor) complete(
	ctx context.Context,
	stage string,
	instruction string,
	content string,
	temperature float64,
	result *Result,
) (string, error) {
	generator, err := p.factories.NewText(content, p.completionOpts(temperature)...)
	if err != nil {
		return "", &CompletionError{Stage: stage, Err: err}
	}
	generator.AddPromptContext(ctx, model.ContextMessageTypeSystem, instruction)

	output, meta, err := generator.Generate(ctx)
	result.StageMetadata[stage] = meta
	if err != nil {
		return "", &CompletionError{Stage: stage, Err: err}
	}
	if strings.TrimSpace(output) == "" {
		return "", &CompletionError{Stage: stage, Err: errors.New("completion returned no text")}
	}

	return output, nil
}

func (p *Processor) summarize(ctx context.Context, localized string, result *Result) (Summary, error) {
	generator, err := p.factories.NewSummary(localized, p.completionOpts(summaryTemperature)...)
	if err != nil {
		return Summary{}, &CompletionError{Stage: StageSummarize, Err: err}
	}
	generator.AddPromptContext(ctx, model.ContextMessageTypeSystem, summaryInstruction(p.opts.TargetLanguage))

	summary, meta, err := generator.Generate(ctx)
	result.StageMetadata[StageSummarize] = meta
	if err != nil {
		return Summary{}, &CompletionError{Stage: StageSummarize, Err: err}
	}
	if strings.TrimSpace(summary.MainContent) == "" {
		return Summary{}, &CompletionError{Stage: StageSummarize, Err: errors.New("summary has no main content")}
	}

	return summary, nil
}

func (p *Processor) completionOpts(temperature float64) []model.GeneratorOption {
	opts := []model.GeneratorOption{model.WithTemperature(temperature)}
	if strings.TrimSpace(p.opts.CompletionModel) != "" {
		opts = append(opts, model.WithModel(p.opts.CompletionModel))
	}
	return opts
}

package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/voicelayer-ai/suhbat/pkg/model"
	"github.com/voicelayer-ai/suhbat/pkg/transcript"
)

type fakeAudioGenerator struct {
	text string
	err  error
}

func (f *fakeAudioGenerator) Generate(context.Context) (string, model.GenerationMetadata, error) {
	meta := model.GenerationMetadata{model.MetadataKeyProvider: "fake"}
	if f.err != nil {
		return "", meta, f.err
	}
	return f.text, meta, nil
}

type fakeContentGenerator[T any] struct {
	prompt   string
	contexts []*model.PromptContext
	output   T
	err      error
}

func (f *fakeContentGenerator[T]) Generate(context.Context) (T, model.GenerationMetadata, error) {
	meta := model.GenerationMetadata{model.MetadataKeyProvider: "fake"}
	if f.err != nil {
		var zero T
		return zero, meta, f.err
	}
	return f.output, meta, nil
}

func (f *fakeContentGenerator[T]) AddPromptContext(_ context.Context, messageType model.ContextMessageType, content string) {
	f.contexts = append(f.contexts, &model.PromptContext{MessageType: messageType, Content: content})
}

// recorder builds fake factories and records every constructed generator so
// tests can assert on prompts, instructions and call order.
type recorder struct {
	transcription *fakeAudioGenerator

	textOutputs    []string
	textErr        error
	textGenerators []*fakeContentGenerator[string]
	textConfigs    []model.GeneratorConfig

	summaryOutput    Summary
	summaryErr       error
	summaryGenerator *fakeContentGenerator[Summary]
}

func (r *recorder) factories() Factories {
	return Factories{
		NewTranscription: func(_ string, _ model.AudioOptions) (model.AudioTranscriptionGenerator, error) {
			return r.transcription, nil
		},
		NewText: func(prompt string, opts ...model.GeneratorOption) (model.ContentGenerator[string], error) {
			output := ""
			if len(r.textOutputs) > len(r.textGenerators) {
				output = r.textOutputs[len(r.textGenerators)]
			}
			g := &fakeContentGenerator[string]{prompt: prompt, output: output, err: r.textErr}
			r.textGenerators = append(r.textGenerators, g)
			r.textConfigs = append(r.textConfigs, model.ResolveGeneratorOpts(opts...))
			return g, nil
		},
		NewSummary: func(prompt string, opts ...model.GeneratorOption) (model.ContentGenerator[Summary], error) {
			r.summaryGenerator = &fakeContentGenerator[Summary]{prompt: prompt, output: r.summaryOutput, err: r.summaryErr}
			return r.summaryGenerator, nil
		},
	}
}

type ProcessorSuite struct {
	suite.Suite
}

func TestProcessorSuite(t *testing.T) {
	suite.Run(t, new(ProcessorSuite))
}

func (s *ProcessorSuite) TestSuccessfulRun() {
	r := &recorder{
		transcription: &fakeAudioGenerator{text: "salom qalaysiz rahmat yaxshi"},
		textOutputs: []string{
			"[speaker 1]: salom qalaysiz\nspeaker2: rahmat yaxshi",
			"Speaker 1: salom qalaysiz\n\nSpeaker 2: rahmat yaxshi",
		},
		summaryOutput: Summary{
			MainContent: "Qisqa salomlashuv suhbati.",
			KeyPoints:   []string{"Salomlashuv", "Hol-ahvol so'rash"},
		},
	}

	processor, err := NewProcessor(r.factories(), Options{})
	s.Require().NoError(err)

	result, err := processor.Process(context.Background(), "/tmp/call.mp3")
	s.Require().NoError(err)
	s.Require().NotNil(result)

	s.NotEmpty(result.RunID)
	s.Equal("salom qalaysiz rahmat yaxshi", result.RawTranscript)

	// Diarized output is normalized before the localization stage sees it.
	s.Equal("Speaker 1: salom qalaysiz\n\nSpeaker 2: rahmat yaxshi", result.OriginalText)
	s.Require().Len(r.textGenerators, 2)
	s.Equal(result.OriginalText, r.textGenerators[1].prompt)

	s.Equal("Speaker 1: salom qalaysiz\n\nSpeaker 2: rahmat yaxshi", result.LocalizedText)
	s.Equal("Qisqa salomlashuv suhbati.", result.Summary.MainContent)

	s.Contains(result.StageMetadata, StageTranscribe)
	s.Contains(result.StageMetadata, StageDiarize)
	s.Contains(result.StageMetadata, StageLocalize)
	s.Contains(result.StageMetadata, StageSummarize)
}

func (s *ProcessorSuite) TestSystemInstructionsAttached() {
	r := &recorder{
		transcription: &fakeAudioGenerator{text: "raw"},
		textOutputs:   []string{"Speaker 1: a", "Speaker 1: a"},
		summaryOutput: Summary{MainContent: "ok"},
	}

	processor, err := NewProcessor(r.factories(), Options{TargetLanguage: "Uzbek"})
	s.Require().NoError(err)

	_, err = processor.Process(context.Background(), "call.wav")
	s.Require().NoError(err)

	s.Require().Len(r.textGenerators, 2)
	s.Require().Len(r.textGenerators[0].contexts, 1)
	s.Equal(model.ContextMessageTypeSystem, r.textGenerators[0].contexts[0].MessageType)
	s.Contains(r.textGenerators[0].contexts[0].Content, `"Speaker N:"`)

	s.Require().Len(r.textGenerators[1].contexts, 1)
	s.Contains(r.textGenerators[1].contexts[0].Content, "Uzbek")

	s.Require().NotNil(r.summaryGenerator)
	s.Require().Len(r.summaryGenerator.contexts, 1)
	s.Contains(r.summaryGenerator.contexts[0].Content, "Key points")
}

func (s *ProcessorSuite) TestStageTemperatures() {
	r := &recorder{
		transcription: &fakeAudioGenerator{text: "raw"},
		textOutputs:   []string{"Speaker 1: a", "Speaker 1: a"},
		summaryOutput: Summary{MainContent: "ok"},
	}

	processor, err := NewProcessor(r.factories(), Options{})
	s.Require().NoError(err)

	_, err = processor.Process(context.Background(), "call.wav")
	s.Require().NoError(err)

	s.Require().Len(r.textConfigs, 2)
	s.Require().NotNil(r.textConfigs[0].Temperature)
	s.InDelta(0.3, *r.textConfigs[0].Temperature, 0.0001)
	s.Require().NotNil(r.textConfigs[1].Temperature)
	s.InDelta(0.3, *r.textConfigs[1].Temperature, 0.0001)
}

func (s *ProcessorSuite) TestTranscriptionFailureStopsRun() {
	r := &recorder{
		transcription: &fakeAudioGenerator{err: errors.New("api down")},
	}

	processor, err := NewProcessor(r.factories(), Options{})
	s.Require().NoError(err)

	result, err := processor.Process(context.Background(), "call.mp3")
	s.Require().Error(err)
	s.Nil(result)

	var transcriptionErr *TranscriptionError
	s.Require().ErrorAs(err, &transcriptionErr)

	// No completion stage ran after the failure.
	s.Empty(r.textGenerators)
	s.Nil(r.summaryGenerator)
}

func (s *ProcessorSuite) TestEmptyTranscriptIsTranscriptionError() {
	r := &recorder{
		transcription: &fakeAudioGenerator{text: "   "},
	}

	processor, err := NewProcessor(r.factories(), Options{})
	s.Require().NoError(err)

	_, err = processor.Process(context.Background(), "call.mp3")

	var transcriptionErr *TranscriptionError
	s.Require().ErrorAs(err, &transcriptionErr)
	s.Empty(r.textGenerators)
}

func (s *ProcessorSuite) TestDiarizationFailureCarriesStage() {
	r := &recorder{
		transcription: &fakeAudioGenerator{text: "raw"},
		textErr:       errors.New("rate limited"),
	}

	processor, err := NewProcessor(r.factories(), Options{})
	s.Require().NoError(err)

	result, err := processor.Process(context.Background(), "call.mp3")
	s.Require().Error(err)
	s.Nil(result)

	var completionErr *CompletionError
	s.Require().ErrorAs(err, &completionErr)
	s.Equal(StageDiarize, completionErr.Stage)

	// Only the diarization generator was built.
	s.Len(r.textGenerators, 1)
	s.Nil(r.summaryGenerator)
}

func (s *ProcessorSuite) TestEmptySummaryIsCompletionError() {
	r := &recorder{
		transcription: &fakeAudioGenerator{text: "raw"},
		textOutputs:   []string{"Speaker 1: a", "Speaker 1: a"},
		summaryOutput: Summary{},
	}

	processor, err := NewProcessor(r.factories(), Options{})
	s.Require().NoError(err)

	_, err = processor.Process(context.Background(), "call.mp3")

	var completionErr *CompletionError
	s.Require().ErrorAs(err, &completionErr)
	s.Equal(StageSummarize, completionErr.Stage)
}

func (s *ProcessorSuite) TestLocalizedSpeakerLabel() {
	r := &recorder{
		transcription: &fakeAudioGenerator{text: "raw"},
		textOutputs:   []string{"[speaker 1]: salom\nspeaker 2: rahmat", "done"},
		summaryOutput: Summary{MainContent: "ok"},
	}

	processor, err := NewProcessor(r.factories(), Options{SpeakerLabel: "Suxbatdosh"})
	s.Require().NoError(err)

	result, err := processor.Process(context.Background(), "call.mp3")
	s.Require().NoError(err)
	s.Equal("Suxbatdosh 1: salom\n\nSuxbatdosh 2: rahmat", result.OriginalText)
}

func (s *ProcessorSuite) TestNewProcessorRequiresFactories() {
	_, err := NewProcessor(Factories{}, Options{})
	s.Require().Error(err)

	factories := (&recorder{transcription: &fakeAudioGenerator{}}).factories()
	factories.NewSummary = nil
	_, err = NewProcessor(factories, Options{})
	s.Require().Error(err)
}

func (s *ProcessorSuite) TestArtifactsUseFixedFilenames() {
	result := &Result{OriginalText: "a", LocalizedText: "b"}
	artifacts := result.Artifacts()

	s.Require().Len(artifacts, 2)
	s.Equal(OriginalTextFilename, artifacts[0].Filename)
	s.Equal("a", artifacts[0].Content)
	s.Equal(LocalizedTextFilename, artifacts[1].Filename)
	s.Equal("b", artifacts[1].Content)
}

func (s *ProcessorSuite) TestInvalidSpeakerLabelRejected() {
	r := &recorder{transcription: &fakeAudioGenerator{text: "raw"}}

	_, err := NewProcessor(r.factories(), Options{SpeakerLabel: "\t "})
	s.Require().NoError(err) // blank label falls back to the default

	_, err = transcript.NewNormalizer(" ")
	s.Require().Error(err)
}

package pipeline

import (
	"strings"

	"github.com/voicelayer-ai/suhbat/pkg/model"
)

// Fixed artifact filenames offered for download.
const (
	OriginalTextFilename  = "original_text.txt"
	LocalizedTextFilename = "uzbek_text.txt"
)

// Summary is the structured analysis of the localized conversation.
type Summary struct {
	// MainContent covers the conversation topic in 2-3 sentences.
	MainContent string `json:"main_content"`
	// KeyPoints lists the 3-4 most important points and conclusions.
	KeyPoints []string `json:"key_points"`
}

// Render formats the summary for display or plain-text download.
func (s Summary) Render() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(s.MainContent))
	for _, point := range s.KeyPoints {
		point = strings.TrimSpace(point)
		if point == "" {
			continue
		}
		b.WriteString("\n- ")
		b.WriteString(point)
	}
	return b.String()
}

// Artifact is a downloadable text file produced by a run.
type Artifact struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// Result carries everything a completed run produced. Nothing is retained
// after it is returned to the caller.
type Result struct {
	RunID         string
	RawTranscript string
	// OriginalText is the diarized transcript after label normalization.
	OriginalText  string
	LocalizedText string
	Summary       Summary
	// StageMetadata maps stage name to the provider metadata of its call.
	StageMetadata map[string]model.GenerationMetadata
}

// Artifacts returns the downloadable files for this run.
func (r *Result) Artifacts() []Artifact {
	return []Artifact{
		{Filename: OriginalTextFilename, Content: r.OriginalText},
		{Filename: LocalizedTextFilename, Content: r.LocalizedText},
	}
}

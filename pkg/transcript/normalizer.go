// Package transcript normalizes speaker-labeled dialogue text into a single
// canonical form: every recognized speaker marker is rewritten as
// "<Label> <N>:" and every speaker turn starts its own paragraph.
package transcript

import (
	"errors"
	"regexp"
	"strings"
)

// DefaultSpeakerLabel is the canonical label used by the package-level
// Normalize. A localized label (e.g. "Suxbatdosh") can be configured through
// NewNormalizer.
const DefaultSpeakerLabel = "Speaker"

// FormattingError reports a failure of the label-matching machinery. The
// wrapped cause is preserved for the caller; no partial output accompanies it.
type FormattingError struct {
	Err error
}

func (e *FormattingError) Error() string {
	return "transcript formatting failed: " + e.Err.Error()
}

func (e *FormattingError) Unwrap() error {
	return e.Err
}

var (
	// Runs of three or more newlines collapse to one blank line.
	blankRunPattern = regexp.MustCompile(`\n{3,}`)
	// Recognized marker variants: optional brackets, any case, optional
	// whitespace around the digits, e.g. "[speaker 2]:", "SPEAKER2 :".
	markerPattern = regexp.MustCompile(`\[?(?i:speaker)\s*(\d+)\]?\s*:`)
)

// Normalizer rewrites speaker markers to a fixed canonical label.
type Normalizer struct {
	label     string
	canonical *regexp.Regexp
}

// NewNormalizer builds a Normalizer for the given canonical label. The label
// must be non-empty after trimming.
func NewNormalizer(label string) (*Normalizer, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, &FormattingError{Err: errors.New("canonical speaker label is empty")}
	}

	canonical, err := regexp.Compile(regexp.QuoteMeta(label) + ` \d+:`)
	if err != nil {
		return nil, &FormattingError{Err: err}
	}

	return &Normalizer{label: label, canonical: canonical}, nil
}

// Label returns the canonical label this Normalizer rewrites markers to.
func (n *Normalizer) Label() string {
	return n.label
}

// Normalize canonicalizes speaker markers and paragraph spacing. It is pure
// and idempotent: applying it to already-normalized text is a no-op.
func (n *Normalizer) Normalize(text string) (string, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return "", nil
	}

	s = blankRunPattern.ReplaceAllString(s, "\n\n")
	s = markerPattern.ReplaceAllString(s, n.label+" $1:")
	return n.separateTurns(s), nil
}

// separateTurns ensures every canonical marker other than one at position 0
// is preceded by exactly one blank line.
func (n *Normalizer) separateTurns(s string) string {
	locs := n.canonical.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*len(locs))
	prev := 0
	for _, loc := range locs {
		if loc[0] == 0 {
			continue
		}
		b.WriteString(strings.TrimRight(s[prev:loc[0]], " \t\n"))
		b.WriteString("\n\n")
		prev = loc[0]
	}
	b.WriteString(s[prev:])
	return b.String()
}

var defaultNormalizer = &Normalizer{
	label:     DefaultSpeakerLabel,
	canonical: regexp.MustCompile(DefaultSpeakerLabel + ` \d+:`),
}

// Normalize applies the default "Speaker" canonical label.
func Normalize(text string) (string, error) {
	return defaultNormalizer.Normalize(text)
}

package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type NormalizerSuite struct {
	suite.Suite
}

func TestNormalizerSuite(t *testing.T) {
	suite.Run(t, new(NormalizerSuite))
}

func (s *NormalizerSuite) TestEmptyInputReturnsEmptyOutput() {
	out, err := Normalize("")
	s.Require().NoError(err)
	s.Equal("", out)
}

func (s *NormalizerSuite) TestWhitespaceOnlyInputReturnsEmptyOutput() {
	out, err := Normalize("  \n\n\t ")
	s.Require().NoError(err)
	s.Equal("", out)
}

func (s *NormalizerSuite) TestMarkerVariantsCanonicalize() {
	variants := []string{
		"Speaker 3:",
		"SPEAKER 3:",
		"speaker 3:",
		"speaker3:",
		"[Speaker 3]:",
		"[speaker 3] :",
		"Speaker 3 :",
	}

	for _, variant := range variants {
		out, err := Normalize(variant + " hello")
		s.Require().NoError(err, variant)
		s.Equal("Speaker 3: hello", out, variant)
	}
}

func (s *NormalizerSuite) TestDigitsPreservedExactly() {
	out, err := Normalize("[speaker 42]: text")
	s.Require().NoError(err)
	s.Equal("Speaker 42: text", out)
}

func (s *NormalizerSuite) TestBlankRunsCollapseToOneBlankLine() {
	out, err := Normalize("first paragraph\n\n\n\n\nsecond paragraph")
	s.Require().NoError(err)
	s.Equal("first paragraph\n\nsecond paragraph", out)
}

func (s *NormalizerSuite) TestTextWithoutMarkersOtherwiseUntouched() {
	in := "no markers here.\njust lines.\n\nand a paragraph."
	out, err := Normalize(in)
	s.Require().NoError(err)
	s.Equal(in, out)
}

func (s *NormalizerSuite) TestSpeakerTurnsSeparatedByExactlyOneBlankLine() {
	out, err := Normalize("[Speaker 1]: hi\nSpeaker2:bye")
	s.Require().NoError(err)
	s.Equal("Speaker 1: hi\n\nSpeaker 2:bye", out)
}

func (s *NormalizerSuite) TestMarkerAtStartGetsNoLeadingBreak() {
	out, err := Normalize("speaker 1: opening line")
	s.Require().NoError(err)
	s.Equal("Speaker 1: opening line", out)
	s.False(strings.HasPrefix(out, "\n"))
}

func (s *NormalizerSuite) TestAdjacentMarkersWithoutTextSeparate() {
	out, err := Normalize("Speaker 1:\nSpeaker 2: reply")
	s.Require().NoError(err)
	s.Equal("Speaker 1:\n\nSpeaker 2: reply", out)
}

func (s *NormalizerSuite) TestExcessBlankLinesBetweenTurnsShrink() {
	out, err := Normalize("Speaker 1: hi\n\n\n\nSpeaker 2: hello")
	s.Require().NoError(err)
	s.Equal("Speaker 1: hi\n\nSpeaker 2: hello", out)
}

func (s *NormalizerSuite) TestIdempotence() {
	inputs := []string{
		"",
		"plain text",
		"[Speaker 1]: hi\nSpeaker2:bye",
		"speaker 1: a\n\n\n\nSPEAKER 2: b\nspeaker3:c",
		"prelude text\nspeaker 1: first\nand more\nspeaker 2: second",
	}

	for _, in := range inputs {
		once, err := Normalize(in)
		s.Require().NoError(err, in)
		twice, err := Normalize(once)
		s.Require().NoError(err, in)
		s.Equal(once, twice, in)
	}
}

func (s *NormalizerSuite) TestEveryNonInitialMarkerPrecededByOneBlankLine() {
	out, err := Normalize("speaker 1: a\nspeaker 2: b\n\n\nspeaker 3: c\n\nspeaker 1: d")
	s.Require().NoError(err)

	locs := defaultNormalizer.canonical.FindAllStringIndex(out, -1)
	s.Require().Len(locs, 4)
	for _, loc := range locs[1:] {
		s.GreaterOrEqual(loc[0], 2)
		s.Equal("\n\n", out[loc[0]-2:loc[0]])
		if loc[0] >= 3 {
			s.NotEqual(byte('\n'), out[loc[0]-3])
		}
	}
}

func (s *NormalizerSuite) TestLocalizedLabel() {
	n, err := NewNormalizer("Suxbatdosh")
	s.Require().NoError(err)

	out, err := n.Normalize("[speaker 1]: salom\nspeaker 2: rahmat")
	s.Require().NoError(err)
	s.Equal("Suxbatdosh 1: salom\n\nSuxbatdosh 2: rahmat", out)
}

func (s *NormalizerSuite) TestLocalizedLabelIdempotent() {
	n, err := NewNormalizer("Suxbatdosh")
	s.Require().NoError(err)

	once, err := n.Normalize("speaker 1: a\nspeaker 2: b")
	s.Require().NoError(err)
	twice, err := n.Normalize(once)
	s.Require().NoError(err)
	s.Equal(once, twice)
}

func (s *NormalizerSuite) TestEmptyLabelRejected() {
	n, err := NewNormalizer("   ")
	s.Require().Error(err)
	s.Nil(n)

	var formattingErr *FormattingError
	s.ErrorAs(err, &formattingErr)
}

func (s *NormalizerSuite) TestLeadingAndTrailingWhitespaceTrimmed() {
	out, err := Normalize("\n\n  speaker 1: hi  \n\n")
	s.Require().NoError(err)
	s.Equal("Speaker 1: hi", out)
}

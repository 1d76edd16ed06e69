package boundary_test

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/booktran/internal/boundary"
)

func TestLocate_PrefersSentenceStartBeforeTarget(t *testing.T) {
	text := "The first sentence is here. The second sentence follows it. The third one ends the text."
	target := strings.Index(text, "second") + 3

	got := boundary.Locate(text, target, 40)

	assert.Equal(t, strings.Index(text, "The second"), got)
}

func TestLocate_UsesFirstBoundaryAfterTargetWhenNoneBefore(t *testing.T) {
	text := "Averyveryverylongopeningwordwithoutanybreaks continues here. Next sentence starts now."
	target := 10

	got := boundary.Locate(text, target, 80)

	assert.Equal(t, strings.Index(text, "Next"), got)
}

func TestLocate_ParagraphBreak(t *testing.T) {
	text := "first paragraph without terminal punctuation\n\nsecond paragraph goes on and on"
	target := strings.Index(text, "goes")

	got := boundary.Locate(text, target, 50)

	assert.Equal(t, strings.Index(text, "second"), got)
}

func TestLocate_ClosingQuoteAndOpeningQuote(t *testing.T) {
	text := `He said "stop." "Why?" she asked and waited for him to answer the question.`
	target := strings.Index(text, "she")

	got := boundary.Locate(text, target, 30)

	assert.Equal(t, strings.Index(text, `"Why?"`), got)
}

func TestLocate_LowercaseAfterPeriodIsNotABoundary(t *testing.T) {
	text := "values like e.g. these ones are not sentence ends at all"
	target := strings.Index(text, "these") + 2

	got := boundary.Locate(text, target, 20)

	// No sentence start: falls back to whitespace before target.
	assert.Equal(t, strings.Index(text, " these"), got)
}

func TestLocate_BoundaryAtWindowEdge(t *testing.T) {
	text := "Aaaa aaaa. Bbbb bbbb bbbb bbbb bbbb bbbb."
	start := strings.Index(text, "Bbbb")

	got := boundary.Locate(text, start+10, 10)

	assert.Equal(t, start, got)
}

func TestLocate_WhitespaceFallback(t *testing.T) {
	text := strings.Repeat("word ", 100)
	target := 253

	got := boundary.Locate(text, target, 10)

	require.Less(t, got, target)
	assert.True(t, unicode.IsSpace(rune(text[got])), "offset %d should be whitespace", got)
}

func TestLocate_HardCut(t *testing.T) {
	text := strings.Repeat("x", 500)

	assert.Equal(t, 250, boundary.Locate(text, 250, 20))
}

func TestLocate_HardCutKeepsRunesIntact(t *testing.T) {
	text := strings.Repeat("ж", 300) // two bytes per rune

	got := boundary.Locate(text, 251, 10)

	assert.Equal(t, 250, got)
}

func TestLocate_ClipsTarget(t *testing.T) {
	text := "Short text. Really short."

	assert.Equal(t, 0, boundary.Locate(text, -5, 10))
	assert.Equal(t, len(text), boundary.Locate(text, 1000, 10))
}

func TestLocate_Deterministic(t *testing.T) {
	text := strings.Repeat("One sentence here. Another one there! A question? ", 50)
	first := boundary.Locate(text, 1234, 200)
	for range 5 {
		assert.Equal(t, first, boundary.Locate(text, 1234, 200))
	}
}

func TestLocate_NeverMidWordWhenPunctuationInRadius(t *testing.T) {
	text := strings.Repeat("Lorem ipsum dolor sit amet. Consectetur adipiscing elit! Sed do eiusmod? ", 40)
	for target := 100; target < len(text)-100; target += 37 {
		got := boundary.Locate(text, target, 80)
		require.Positive(t, got)
		prev := text[:got]
		trimmed := strings.TrimRightFunc(prev, unicode.IsSpace)
		require.NotEqual(t, prev, trimmed, "offset %d should follow whitespace", got)
		last := trimmed[len(trimmed)-1]
		assert.Contains(t, ".!?", string(last), "offset %d should follow a terminator", got)
	}
}

func TestSentences(t *testing.T) {
	text := "  First one. Second one!  Third one? trailing words"

	got := boundary.Sentences(text)

	assert.Equal(t, []string{"First one.", "Second one!", "Third one?", "trailing words"}, got)
}

func TestSentenceSpans_EndIsNextStart(t *testing.T) {
	text := "Alpha beta. Gamma delta. Epsilon."
	spans := boundary.SentenceSpans(text)

	require.Len(t, spans, 3)
	assert.Equal(t, spans[0].End, spans[1].Start)
	assert.Equal(t, "Gamma delta. ", text[spans[1].Start:spans[1].End])
	assert.Equal(t, len(text), spans[2].End)
}

func TestNextParagraph(t *testing.T) {
	text := "one\n\ntwo\n\n\nthree"

	assert.Equal(t, strings.Index(text, "two"), boundary.NextParagraph(text, 0))
	assert.Equal(t, strings.Index(text, "three"), boundary.NextParagraph(text, 4))
	assert.Equal(t, -1, boundary.NextParagraph(text, strings.Index(text, "three")))
}

func TestPrefixSuffixRuneSafe(t *testing.T) {
	s := "привіт"

	assert.Equal(t, "пр", boundary.Prefix(s, 5))
	assert.Equal(t, "іт", boundary.Suffix(s, 5))
	assert.Equal(t, s, boundary.Prefix(s, 100))
}

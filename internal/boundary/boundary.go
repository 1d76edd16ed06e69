// Package boundary finds clean places to cut unstructured prose: the start of
// a sentence or the start of a paragraph near a target offset. The chunker
// uses it to pick cut points and the stitcher uses its sentence splitting to
// recognise duplicated overlap text.
package boundary

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// WhitespaceFallback is how far back from the target Locate looks for a
	// whitespace character when no sentence or paragraph boundary is found.
	WhitespaceFallback = 100

	windowSlack = 16
)

var (
	// sentenceStartRe matches a sentence terminator, an optional closing
	// quote, whitespace and the first rune of the next sentence (uppercase
	// letter or opening quote). The boundary is the offset of that last rune.
	sentenceStartRe = regexp.MustCompile(`[.!?]["'”’»]?\s+["'“‘«\p{Lu}]`)

	// paragraphBreakRe matches one or more blank lines; the boundary is the
	// end of the match.
	paragraphBreakRe = regexp.MustCompile(`\n[ \t\r]*\n\s*`)

	// sentenceEndRe is looser than sentenceStartRe: any terminator followed by
	// whitespace ends a sentence, whatever the next character is.
	sentenceEndRe = regexp.MustCompile(`[.!?…]["'”’»)]*\s+`)
)

// Locator picks a cut offset in text near target.
type Locator interface {
	Locate(text string, target, radius int) int
}

// SentenceLocator is the pattern-based Locator. The zero value is ready to use.
type SentenceLocator struct{}

// Locate returns the boundary closest to target inside
// [target-radius, target+radius]. Boundaries at or before target win; if
// there are none, the first boundary after target is used. Without any
// boundary in the window it falls back to the nearest whitespace within
// WhitespaceFallback bytes before target, and finally to target itself.
func (SentenceLocator) Locate(text string, target, radius int) int {
	return Locate(text, target, radius)
}

// Locate is the function form of SentenceLocator.Locate.
func Locate(text string, target, radius int) int {
	n := len(text)
	if target <= 0 {
		return 0
	}
	if target >= n {
		return n
	}
	if radius < 0 {
		radius = 0
	}

	lo := max(target-radius, 0)
	hi := min(target+radius, n)

	best, after := -1, -1
	consider := func(pos int) {
		if pos < lo || pos > hi {
			return
		}
		if pos <= target {
			if pos > best {
				best = pos
			}
		} else if after == -1 || pos < after {
			after = pos
		}
	}

	// Scan a little past both ends so a boundary sitting right at lo or hi
	// is seen together with the punctuation before it.
	from := max(lo-windowSlack, 0)
	window := text[from:min(hi+windowSlack, n)]
	for _, loc := range sentenceStartRe.FindAllStringIndex(window, -1) {
		_, size := utf8.DecodeLastRuneInString(window[loc[0]:loc[1]])
		consider(from + loc[1] - size)
	}
	for _, loc := range paragraphBreakRe.FindAllStringIndex(window, -1) {
		consider(from + loc[1])
	}

	if best != -1 {
		return best
	}
	if after != -1 {
		return after
	}

	ws := max(target-WhitespaceFallback, 0)
	if i := strings.LastIndexFunc(text[ws:target], unicode.IsSpace); i >= 0 {
		return ws + i
	}
	return runeStart(text, target)
}

// runeStart moves pos back to the first byte of the rune containing it.
func runeStart(text string, pos int) int {
	for pos > 0 && pos < len(text) && !utf8.RuneStart(text[pos]) {
		pos--
	}
	return pos
}

// Span is a sentence inside a larger text. End is the offset where the next
// sentence begins, so trailing whitespace belongs to the sentence.
type Span struct {
	Start int
	End   int
}

// SentenceSpans splits text into sentences. Leading whitespace is skipped;
// text after the last terminator forms a final sentence.
func SentenceSpans(text string) []Span {
	var spans []Span
	start := skipSpace(text, 0)
	for _, loc := range sentenceEndRe.FindAllStringIndex(text, -1) {
		if loc[1] <= start {
			continue
		}
		spans = append(spans, Span{Start: start, End: loc[1]})
		start = loc[1]
	}
	if start < len(text) && strings.TrimSpace(text[start:]) != "" {
		spans = append(spans, Span{Start: start, End: len(text)})
	}
	return spans
}

// Sentences returns the trimmed sentences of text.
func Sentences(text string) []string {
	spans := SentenceSpans(text)
	out := make([]string, 0, len(spans))
	for _, s := range spans {
		if t := strings.TrimSpace(text[s.Start:s.End]); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// NextParagraph returns the offset right after the first paragraph break at
// or after from, or -1 when there is none.
func NextParagraph(text string, from int) int {
	if from < 0 {
		from = 0
	}
	if from >= len(text) {
		return -1
	}
	loc := paragraphBreakRe.FindStringIndex(text[from:])
	if loc == nil {
		return -1
	}
	return from + loc[1]
}

// Prefix returns at most n bytes from the start of s without splitting a rune.
func Prefix(s string, n int) string {
	if n >= len(s) {
		return s
	}
	return s[:runeStart(s, n)]
}

// Suffix returns at most n bytes from the end of s without splitting a rune.
func Suffix(s string, n int) string {
	if n >= len(s) {
		return s
	}
	i := len(s) - n
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}

// AlignRune moves pos back to a rune start so slicing at it is safe.
func AlignRune(text string, pos int) int {
	return runeStart(text, pos)
}

func skipSpace(text string, i int) int {
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !unicode.IsSpace(r) {
			break
		}
		i += size
	}
	return i
}

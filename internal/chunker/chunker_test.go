package chunker_test

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/valpere/booktran/internal/chunker"
)

const riverSentence = "The river kept moving past the town. "

// --- Split tests ---

func TestSplit_ShortText(t *testing.T) {
	text := "  Hello, world!  "
	chunks := chunker.Split(text, chunker.DefaultConfig())
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if !c.IsFirst || !c.IsLast {
		t.Errorf("single chunk should be first and last, got first=%v last=%v", c.IsFirst, c.IsLast)
	}
	if c.Content != "Hello, world!" {
		t.Errorf("expected trimmed content, got %q", c.Content)
	}
}

func TestSplit_ExactlyMaxIsOneChunk(t *testing.T) {
	text := strings.Repeat("a", 100)
	chunks := chunker.Split(text, chunker.Config{MaxChunkSize: 100, OverlapSize: 10})
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
}

func TestSplit_FortyThousandIntoTwo(t *testing.T) {
	text := strings.Repeat(riverSentence, 1082) // 40 034 bytes
	cfg := chunker.Config{MaxChunkSize: 25000, OverlapSize: 3000, SearchRadius: 2000, OverlapSearchRadius: 500}

	chunks := chunker.Split(text, cfg)
	if len(chunks) != 2 {
		t.Fatalf("expected exactly 2 chunks, got %d", len(chunks))
	}

	first, second := chunks[0], chunks[1]
	if d := len(first.Content) - 25000; d < -2000 || d > 2000 {
		t.Errorf("first chunk length %d is not within the search radius of 25000", len(first.Content))
	}
	if !first.IsFirst || first.IsLast {
		t.Errorf("first chunk flags wrong: first=%v last=%v", first.IsFirst, first.IsLast)
	}
	if second.IsFirst || !second.IsLast {
		t.Errorf("second chunk flags wrong: first=%v last=%v", second.IsFirst, second.IsLast)
	}
	if second.End != len(text) {
		t.Errorf("second chunk should run to the end, ends at %d of %d", second.End, len(text))
	}
	if second.Start >= first.End || second.Start < first.End-3000 {
		t.Errorf("overlap out of range: second starts at %d, first ends at %d", second.Start, first.End)
	}
	if !strings.HasPrefix(second.Content, "The river") {
		t.Errorf("overlap should start on a sentence, got %q", second.Content[:20])
	}
	if !strings.HasSuffix(first.Content, "town.") {
		t.Errorf("first chunk should end on a sentence, got %q", first.Content[len(first.Content)-20:])
	}
}

func TestSplit_Properties(t *testing.T) {
	texts := map[string]string{
		"sentences":  strings.Repeat(riverSentence, 300),
		"paragraphs": strings.Repeat("A short paragraph without an ending\n\n", 300),
		"words":      strings.Repeat("word ", 2000),
		"solid":      strings.Repeat("x", 9000),
		"cyrillic":   strings.Repeat("Річка текла повз місто. ", 400),
	}
	configs := []chunker.Config{
		{MaxChunkSize: 1000, OverlapSize: 200, SearchRadius: 100, OverlapSearchRadius: 50},
		{MaxChunkSize: 500, OverlapSize: 500, SearchRadius: 80, OverlapSearchRadius: 40},
		{MaxChunkSize: 700, OverlapSize: 0, SearchRadius: 300, OverlapSearchRadius: 20},
		{MaxChunkSize: 2000, OverlapSize: 1999, SearchRadius: 1500, OverlapSearchRadius: 600},
	}

	for name, text := range texts {
		for i, cfg := range configs {
			t.Run(fmt.Sprintf("%s/%d", name, i), func(t *testing.T) {
				chunks := chunker.Split(text, cfg)
				if len(chunks) < 2 {
					t.Fatalf("expected several chunks, got %d", len(chunks))
				}
				if chunks[0].Start != 0 {
					t.Errorf("first chunk starts at %d", chunks[0].Start)
				}
				if last := chunks[len(chunks)-1]; !last.IsLast || last.End != len(text) {
					t.Errorf("last chunk: isLast=%v end=%d want %d", last.IsLast, last.End, len(text))
				}

				var rebuilt strings.Builder
				covered := 0
				for j, c := range chunks {
					if c.IsFirst != (j == 0) {
						t.Errorf("chunk %d IsFirst=%v", j, c.IsFirst)
					}
					if j < len(chunks)-1 && c.IsLast {
						t.Errorf("chunk %d marked last", j)
					}
					if j > 0 && c.Start <= chunks[j-1].Start {
						t.Errorf("chunk %d start %d does not increase past %d", j, c.Start, chunks[j-1].Start)
					}
					if c.Start > covered {
						t.Fatalf("gap between %d and %d", covered, c.Start)
					}
					if !utf8.ValidString(c.Content) {
						t.Errorf("chunk %d splits a rune", j)
					}
					if c.End > covered {
						rebuilt.WriteString(text[covered:c.End])
						covered = c.End
					}
				}
				if rebuilt.String() != text {
					t.Error("chunk ranges do not reproduce the text")
				}
			})
		}
	}
}

func TestSplit_NoOverlapChunksAreAdjacent(t *testing.T) {
	text := strings.Repeat(riverSentence, 100)
	chunks := chunker.Split(text, chunker.Config{MaxChunkSize: 800, SearchRadius: 100})
	for j := 1; j < len(chunks); j++ {
		if chunks[j].Start != chunks[j-1].End {
			t.Errorf("chunk %d starts at %d, previous ends at %d", j, chunks[j].Start, chunks[j-1].End)
		}
	}
}

// zeroLocator never finds a boundary.
type zeroLocator struct{}

func (zeroLocator) Locate(string, int, int) int { return 0 }

func TestSplitter_CustomLocator(t *testing.T) {
	text := strings.Repeat("abcdefghij", 30) // 300 bytes
	s := chunker.New(chunker.Config{MaxChunkSize: 100, OverlapSize: 20}, zeroLocator{})

	chunks := s.Split(text)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for j, c := range chunks {
		if c.Start != j*100 || len(c.Content) != 100 {
			t.Errorf("chunk %d: start=%d len=%d", j, c.Start, len(c.Content))
		}
	}
}

// --- TailContext tests ---

func TestTailContext_ShortText(t *testing.T) {
	if got := chunker.TailContext("  short text \n", 100); got != "short text" {
		t.Errorf("expected trimmed text, got %q", got)
	}
}

func TestTailContext_DropsPartialWord(t *testing.T) {
	if got := chunker.TailContext("alpha beta gamma delta", 10); got != "delta" {
		t.Errorf("expected %q, got %q", "delta", got)
	}
}

func TestTailContext_KeepsWholeWordAtCut(t *testing.T) {
	if got := chunker.TailContext("alpha beta gamma", 5); got != "gamma" {
		t.Errorf("expected %q, got %q", "gamma", got)
	}
}

func TestTailContext_CountsCharacters(t *testing.T) {
	text := strings.Repeat("слово ", 500)
	got := chunker.TailContext(text, 100)
	if !utf8.ValidString(got) {
		t.Fatal("tail splits a rune")
	}
	if n := utf8.RuneCountInString(got); n > 100 || n < 90 {
		t.Errorf("expected about 100 characters, got %d", n)
	}
	if !strings.HasPrefix(got, "слово") {
		t.Errorf("tail should start on a word, got %q", got[:12])
	}
}

func TestTailContext_Default(t *testing.T) {
	text := strings.Repeat("w ", 2000)
	if n := utf8.RuneCountInString(chunker.TailContext(text, 0)); n > chunker.DefaultContextChars {
		t.Errorf("default tail has %d characters", n)
	}
}

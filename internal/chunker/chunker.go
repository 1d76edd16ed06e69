// Package chunker splits a chapter into translation-sized chunks that overlap
// by a few sentences, so the translator sees some of the previous chunk's
// source again and the stitcher can drop the duplicated translation. Cuts
// are placed on sentence or paragraph boundaries through a boundary.Locator.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/valpere/booktran/internal/boundary"
)

const (
	DefaultMaxChunkSize        = 25000
	DefaultOverlapSize         = 3000
	DefaultSearchRadius        = 2000
	DefaultOverlapSearchRadius = 500

	// DefaultContextChars bounds the running translation context handed to
	// the translation service.
	DefaultContextChars = 1500
)

// Chunk is one slice of a chapter. Start and End are the byte range of the
// chunk in the chapter text before Content was trimmed.
type Chunk struct {
	Content string
	IsFirst bool
	IsLast  bool
	Start   int
	End     int
}

// Config holds the sizes used by Splitter. All sizes are in bytes.
type Config struct {
	MaxChunkSize int
	OverlapSize  int
	// SearchRadius is the window around the target cut point searched for a
	// sentence boundary.
	SearchRadius int
	// OverlapSearchRadius is the window used to realign the start of the
	// overlap. It should be smaller than SearchRadius.
	OverlapSearchRadius int
}

// DefaultConfig returns the stock chunking sizes.
func DefaultConfig() Config {
	return Config{
		MaxChunkSize:        DefaultMaxChunkSize,
		OverlapSize:         DefaultOverlapSize,
		SearchRadius:        DefaultSearchRadius,
		OverlapSearchRadius: DefaultOverlapSearchRadius,
	}
}

// Splitter cuts text into overlapping chunks.
type Splitter struct {
	cfg     Config
	locator boundary.Locator
}

// New returns a Splitter. Non-positive sizes and radii fall back to the
// defaults, except OverlapSize where zero disables overlap. A nil locator
// means boundary.SentenceLocator.
func New(cfg Config, locator boundary.Locator) *Splitter {
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = DefaultMaxChunkSize
	}
	if cfg.OverlapSize < 0 {
		cfg.OverlapSize = 0
	}
	if cfg.SearchRadius <= 0 {
		cfg.SearchRadius = DefaultSearchRadius
	}
	if cfg.OverlapSearchRadius <= 0 {
		cfg.OverlapSearchRadius = DefaultOverlapSearchRadius
	}
	if locator == nil {
		locator = boundary.SentenceLocator{}
	}
	return &Splitter{cfg: cfg, locator: locator}
}

// Split divides content into chunks of at most roughly MaxChunkSize bytes.
// Content that fits in one chunk comes back as a single chunk flagged both
// first and last. Chunk start offsets strictly increase, and every byte of
// content falls inside at least one chunk's [Start, End) range.
func (s *Splitter) Split(content string) []Chunk {
	n := len(content)
	if n <= s.cfg.MaxChunkSize {
		return []Chunk{{
			Content: strings.TrimSpace(content),
			IsFirst: true,
			IsLast:  true,
			Start:   0,
			End:     n,
		}}
	}

	var chunks []Chunk
	emit := func(start, end int) {
		text := strings.TrimSpace(content[start:end])
		if text == "" {
			return
		}
		chunks = append(chunks, Chunk{
			Content: text,
			IsFirst: len(chunks) == 0,
			Start:   start,
			End:     end,
		})
	}

	pos := 0
	for {
		if n-pos <= s.cfg.MaxChunkSize {
			emit(pos, n)
			break
		}

		target := pos + s.cfg.MaxChunkSize
		cut := s.locator.Locate(content, target, s.cfg.SearchRadius)
		if cut <= pos {
			cut = boundary.AlignRune(content, target)
		}
		if cut >= n {
			emit(pos, n)
			break
		}

		emit(pos, cut)
		pos = s.overlapStart(content, pos, cut)
	}

	if len(chunks) > 0 {
		chunks[len(chunks)-1].IsLast = true
	}
	return chunks
}

// overlapStart returns where the chunk after [pos, cut) begins: the start of
// a sentence inside the trailing OverlapSize bytes of the chunk, or cut when
// no such start moves the position forward.
func (s *Splitter) overlapStart(content string, pos, cut int) int {
	overlap := s.cfg.OverlapSize
	if overlap <= 0 {
		return cut
	}
	ovStart := cut - overlap
	if ovStart <= pos {
		return cut
	}

	r := min(s.cfg.OverlapSearchRadius, overlap/2)
	next := s.locator.Locate(content, ovStart+r, r)
	if next <= pos || next >= cut {
		return cut
	}
	return next
}

// Split is a convenience wrapper around New(cfg, nil).Split(content).
func Split(content string, cfg Config) []Chunk {
	return New(cfg, nil).Split(content)
}

// TailContext returns the last maxChars characters of text, trimmed. When the
// cut lands inside a word, the partial word is dropped. maxChars ≤ 0 means
// DefaultContextChars.
func TailContext(text string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultContextChars
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= maxChars {
		return text
	}

	i := len(text)
	for range maxChars {
		_, size := utf8.DecodeLastRuneInString(text[:i])
		i -= size
	}
	tail := text[i:]
	if !strings.ContainsAny(text[i-1:i], " \t\r\n") {
		if sp := strings.IndexAny(tail, " \t\r\n"); sp >= 0 {
			tail = tail[sp+1:]
		}
	}
	return strings.TrimSpace(tail)
}

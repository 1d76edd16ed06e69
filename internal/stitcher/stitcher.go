// Package stitcher joins the translations of overlapping chunks back into one
// text. Adjacent chunks share some source sentences, so the start of each
// translated chunk usually repeats the end of the text built so far; the
// stitcher finds that repeated region and drops it.
//
// The matching is heuristic. When the translator words the overlap
// differently in the two chunks nothing matches verbatim, and a positional
// estimate is used instead, which can leave a little duplication or lose a
// sentence.
package stitcher

import (
	"slices"
	"strings"

	"github.com/valpere/booktran/internal/boundary"
)

// Config tunes the overlap detection. Lengths are in bytes.
type Config struct {
	// OverlapSize is the source overlap used by the chunker. It drives the
	// positional fallback; zero disables the fallback.
	OverlapSize int

	// TailChars is how much of the accumulated text is fingerprinted.
	TailChars int
	// TailSentences is how many trailing sentences form the fingerprint.
	TailSentences int
	// ScanSentences is how many leading sentences of the next chunk are
	// checked against the fingerprint.
	ScanSentences int
	// ProbeChars is the prefix of each scanned sentence looked up in the
	// fingerprint.
	ProbeChars int
	// MinProbeChars is the shortest probe looked up as a substring. Shorter
	// sentences only match a fingerprint sentence exactly.
	MinProbeChars int

	// FallbackRatio and FallbackCap estimate the overlap length as
	// min(OverlapSize*FallbackRatio, len(chunk)*FallbackCap).
	FallbackRatio float64
	FallbackCap   float64
}

// DefaultConfig returns the stock tuning for the given source overlap.
func DefaultConfig(overlapSize int) Config {
	return Config{
		OverlapSize:   overlapSize,
		TailChars:     800,
		TailSentences: 3,
		ScanSentences: 10,
		ProbeChars:    40,
		MinProbeChars: 10,
		FallbackRatio: 1.2,
		FallbackCap:   0.3,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig(c.OverlapSize)
	if c.TailChars <= 0 {
		c.TailChars = d.TailChars
	}
	if c.TailSentences <= 0 {
		c.TailSentences = d.TailSentences
	}
	if c.ScanSentences <= 0 {
		c.ScanSentences = d.ScanSentences
	}
	if c.ProbeChars <= 0 {
		c.ProbeChars = d.ProbeChars
	}
	if c.MinProbeChars <= 0 {
		c.MinProbeChars = d.MinProbeChars
	}
	if c.FallbackRatio <= 0 {
		c.FallbackRatio = d.FallbackRatio
	}
	if c.FallbackCap <= 0 {
		c.FallbackCap = d.FallbackCap
	}
	return c
}

// Stitch merges translated chunks, given in source order, into one text with
// the duplicated overlap removed. Chunks are separated by a blank line.
// Zero-valued Config fields take the DefaultConfig values.
func Stitch(chunks []string, cfg Config) string {
	cfg = cfg.withDefaults()

	var result string
	for i, chunk := range chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		if i > 0 && result != "" {
			chunk = strings.TrimSpace(chunk[overlapEnd(result, chunk, cfg):])
			if chunk == "" {
				continue
			}
		}
		if result == "" {
			result = chunk
		} else {
			result += "\n\n" + chunk
		}
	}
	return result
}

// overlapEnd returns the offset in next where new text begins.
func overlapEnd(acc, next string, cfg Config) int {
	tail := tailSentences(acc, cfg)
	fingerprint := strings.Join(tail, " ")

	spans := boundary.SentenceSpans(next)
	skip := -1
	for _, sp := range spans[:min(cfg.ScanSentences, len(spans))] {
		sentence := strings.TrimSpace(next[sp.Start:sp.End])
		probe := boundary.Prefix(sentence, cfg.ProbeChars)
		if len(probe) < cfg.MinProbeChars {
			if slices.Contains(tail, sentence) {
				skip = sp.End
			}
			continue
		}
		if strings.Contains(fingerprint, probe) {
			skip = sp.End
		}
	}
	if skip >= 0 {
		return skip
	}

	if cfg.OverlapSize <= 0 {
		return 0
	}
	est := int(min(float64(cfg.OverlapSize)*cfg.FallbackRatio, float64(len(next))*cfg.FallbackCap))
	if p := boundary.NextParagraph(next, est); p >= 0 {
		return p
	}
	return boundary.AlignRune(next, est)
}

// tailSentences returns the last TailSentences sentences found in the last
// TailChars bytes of acc.
func tailSentences(acc string, cfg Config) []string {
	sentences := boundary.Sentences(boundary.Suffix(acc, cfg.TailChars))
	if len(sentences) > cfg.TailSentences {
		sentences = sentences[len(sentences)-cfg.TailSentences:]
	}
	return sentences
}

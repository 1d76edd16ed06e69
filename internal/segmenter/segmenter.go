// Package segmenter turns the raw text of a book into an ordered list of
// chapters. It recognises "CHAPTER <n> <TITLE>" headings plus standalone
// INTRODUCTION and EPILOGUE lines, and falls back to grouping paragraphs into
// fixed-size sections when the book has no recognisable headings.
package segmenter

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/valpere/booktran/internal"
)

const (
	// IntroductionNumber is the chapter number assigned to an INTRODUCTION section.
	IntroductionNumber = 0
	// EpilogueNumber is the chapter number assigned to an EPILOGUE section.
	EpilogueNumber = 99

	// DefaultMinContent is the trimmed length at or below which a detected
	// section is treated as a spurious match (a table of contents entry, a
	// running header) and dropped.
	DefaultMinContent = 100
	// DefaultSectionSize is the block size used by the fallback splitter.
	DefaultSectionSize = 15000
)

var (
	chapterRe = regexp.MustCompile(
		`\bCHAPTER[ \t]+(\d{1,3})\b[ \t.:\-–—]*(?:\r?\n[ \t]*)?((?:[A-Z][A-Z0-9'’\-]*\b[,:!?]?[ \t]*)+)?`)
	introductionRe = regexp.MustCompile(`(?m)^[ \t]*INTRODUCTION[ \t]*\r?$`)
	epilogueRe     = regexp.MustCompile(`(?m)^[ \t]*EPILOGUE[ \t]*\r?$`)
	backMatterRe   = regexp.MustCompile(`(?m)^[ \t]*(?:ACKNOWLEDGMENTS|ACKNOWLEDGEMENTS|SOURCES AND BIBLIOGRAPHY|NOTES)\b`)
	paragraphSepRe = regexp.MustCompile(`\n[ \t\r]*\n`)
)

// Segmenter splits book text into chapters.
type Segmenter interface {
	Segment(text string) []internal.Chapter
}

// Config tunes MarkerSegmenter. Zero fields take the package defaults.
type Config struct {
	MinContent  int
	SectionSize int
}

// MarkerSegmenter detects chapters from textual heading markers.
type MarkerSegmenter struct {
	cfg Config
}

// New returns a MarkerSegmenter with cfg, filling in defaults.
func New(cfg Config) *MarkerSegmenter {
	if cfg.MinContent <= 0 {
		cfg.MinContent = DefaultMinContent
	}
	if cfg.SectionSize <= 0 {
		cfg.SectionSize = DefaultSectionSize
	}
	return &MarkerSegmenter{cfg: cfg}
}

// Segment returns the chapters of text ordered by their position in it.
// When no heading survives filtering, the text is split into "Section N"
// blocks by SplitBySize.
func (s *MarkerSegmenter) Segment(text string) []internal.Chapter {
	starts := findStarts(text)

	var chapters []internal.Chapter
	for i, st := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1].Offset
		}
		content := truncateBackMatter(text[st.Offset:end], s.cfg.MinContent)
		content = strings.TrimSpace(content)
		if len(content) <= s.cfg.MinContent {
			continue
		}
		st.Content = content
		chapters = append(chapters, st)
	}

	if len(chapters) == 0 {
		return SplitBySize(text, s.cfg.SectionSize)
	}
	return chapters
}

// findStarts collects every section start (introduction, numbered chapters,
// epilogue) sorted by offset. Content is left empty.
func findStarts(text string) []internal.Chapter {
	var starts []internal.Chapter
	seen := make(map[int]bool)

	for _, m := range chapterRe.FindAllStringSubmatchIndex(text, -1) {
		num, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil || seen[num] {
			continue
		}
		seen[num] = true

		title := ""
		if m[4] >= 0 {
			title = dropBodyWord(strings.TrimSpace(text[m[4]:m[5]]), text[m[5]:])
			title = strings.TrimRight(title, ",:")
		}
		if title == "" {
			title = fmt.Sprintf("Chapter %d", num)
		}
		starts = append(starts, internal.Chapter{Number: num, Title: title, Offset: m[0]})
	}

	if loc := introductionRe.FindStringIndex(text); loc != nil {
		starts = append(starts, internal.Chapter{Number: IntroductionNumber, Title: "Introduction", Offset: loc[0]})
	}
	if loc := epilogueRe.FindStringIndex(text); loc != nil {
		starts = append(starts, internal.Chapter{Number: EpilogueNumber, Title: "Epilogue", Offset: loc[0]})
	}

	sort.SliceStable(starts, func(i, j int) bool { return starts[i].Offset < starts[j].Offset })
	return starts
}

// dropBodyWord removes the last word of title when the text after it goes on
// in lowercase: "CHAPTER 1 THE START I was born" is titled "THE START".
func dropBodyWord(title, rest string) string {
	rest = strings.TrimLeft(rest, " \t")
	r, _ := utf8.DecodeRuneInString(rest)
	if !unicode.IsLower(r) {
		return title
	}
	i := strings.LastIndexAny(title, " \t")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(title[:i])
}

// truncateBackMatter cuts content at the first back-matter heading that
// appears after the first skip bytes.
func truncateBackMatter(content string, skip int) string {
	if len(content) <= skip {
		return content
	}
	if loc := backMatterRe.FindStringIndex(content[skip:]); loc != nil {
		return content[:skip+loc[0]]
	}
	return content
}

// SplitBySize groups blank-line separated paragraphs into blocks of at most
// maxSize bytes and returns them as "Section N" chapters numbered from 1.
// Paragraphs are never split, so a single oversized paragraph becomes a block
// of its own. Paragraphs inside a block are joined by one blank line.
func SplitBySize(text string, maxSize int) []internal.Chapter {
	if maxSize <= 0 {
		maxSize = DefaultSectionSize
	}

	var (
		chapters []internal.Chapter
		block    []string
		size     int
		offset   int
		blockOff int
	)

	flush := func() {
		if len(block) == 0 {
			return
		}
		n := len(chapters) + 1
		chapters = append(chapters, internal.Chapter{
			Number:  n,
			Title:   fmt.Sprintf("Section %d", n),
			Content: strings.Join(block, "\n\n"),
			Offset:  blockOff,
		})
		block, size = nil, 0
	}

	for _, raw := range paragraphSepRe.Split(text, -1) {
		pos := offset
		offset += len(raw)
		if loc := paragraphSepRe.FindStringIndex(text[offset:]); loc != nil && loc[0] == 0 {
			offset += loc[1]
		}

		para := strings.TrimSpace(raw)
		if para == "" {
			continue
		}
		added := len(para)
		if len(block) > 0 {
			added += 2
		}
		if len(block) > 0 && size+added > maxSize {
			flush()
			added = len(para)
		}
		if len(block) == 0 {
			blockOff = pos
		}
		block = append(block, para)
		size += added
	}
	flush()

	return chapters
}

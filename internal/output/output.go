// Package output writes translated chapters and the combined book to disk.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/valpere/booktran/internal"
	"github.com/valpere/booktran/internal/markdown"
	"github.com/valpere/booktran/internal/segmenter"
)

const (
	BookFile     = "book.md"
	BookHTMLFile = "book.html"

	// Divider separates chapters in the combined file.
	Divider = "\n\n---\n\n"
)

// Section is one translated chapter ready to be written.
type Section struct {
	Chapter     internal.Chapter
	Translation string
}

type Writer struct {
	dir   string
	title cases.Caser
}

// New returns a Writer that places files in dir. lang is the language of the
// source chapter titles and drives their capitalization.
func New(dir string, lang language.Tag) *Writer {
	return &Writer{dir: dir, title: cases.Title(lang)}
}

// Dir is the output directory.
func (w *Writer) Dir() string { return w.dir }

// ChapterFile is the file name of a chapter, by zero-padded chapter number.
func ChapterFile(number int) string {
	return fmt.Sprintf("chapter_%02d.md", number)
}

// Heading is the display heading of a chapter.
func (w *Writer) Heading(ch internal.Chapter) string {
	switch {
	case ch.Title == fmt.Sprintf("Section %d", ch.Number):
		return ch.Title
	case ch.Number == segmenter.IntroductionNumber:
		return "Introduction"
	case ch.Number == segmenter.EpilogueNumber:
		return "Epilogue"
	case strings.TrimSpace(ch.Title) == "":
		return fmt.Sprintf("Chapter %d", ch.Number)
	}
	// Titles in PDFs are frequently set in capitals.
	return fmt.Sprintf("Chapter %d: %s", ch.Number, w.title.String(strings.ToLower(strings.TrimSpace(ch.Title))))
}

func (w *Writer) render(s Section) string {
	return "# " + w.Heading(s.Chapter) + "\n\n" + strings.TrimSpace(s.Translation) + "\n"
}

// WriteChapter writes one chapter file and returns its path.
func (w *Writer) WriteChapter(s Section) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(w.dir, ChapterFile(s.Chapter.Number))
	if err := os.WriteFile(path, []byte(w.render(s)), 0o644); err != nil {
		return "", fmt.Errorf("write chapter %d: %w", s.Chapter.Number, err)
	}
	return path, nil
}

// Combine joins sections, in the order given, into the combined markdown book.
func (w *Writer) Combine(sections []Section) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		parts = append(parts, strings.TrimRight(w.render(s), "\n"))
	}
	return strings.Join(parts, Divider) + "\n"
}

// WriteBook writes the combined markdown file and, when withHTML is set, its
// HTML rendering. It returns the paths written. Sections with no translation
// are left out, so skipped chapters appear only by their absence.
func (w *Writer) WriteBook(title string, sections []Section, withHTML bool) ([]string, error) {
	var kept []Section
	for _, s := range sections {
		if strings.TrimSpace(s.Translation) != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return nil, nil
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	book := w.Combine(kept)
	mdPath := filepath.Join(w.dir, BookFile)
	if err := os.WriteFile(mdPath, []byte(book), 0o644); err != nil {
		return nil, fmt.Errorf("write combined book: %w", err)
	}
	paths := []string{mdPath}

	if withHTML {
		htmlPath := filepath.Join(w.dir, BookHTMLFile)
		if err := os.WriteFile(htmlPath, []byte(markdown.Page(title, []byte(book))), 0o644); err != nil {
			return nil, fmt.Errorf("write html book: %w", err)
		}
		paths = append(paths, htmlPath)
	}
	return paths, nil
}

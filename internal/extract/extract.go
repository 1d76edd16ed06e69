// Package extract reads the text of a book from disk.
//
// PDFs are read through their embedded text layer; scanned (image-only)
// PDFs need OCR and come back empty. Plain text is read verbatim and
// Markdown is reduced to plain text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/valpere/booktran/internal/markdown"
)

// ErrUnsupportedFormat is returned for files that are not PDF, text or Markdown.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// ErrNoText is returned when a document yields no text at all.
var ErrNoText = errors.New("no extractable text")

// Document is the extracted text of a book, one entry per page.
type Document struct {
	Pages     []string
	PageCount int
}

// Text joins the pages with newlines.
func (d *Document) Text() string {
	return strings.Join(d.Pages, "\n")
}

// Extractor turns a file into a Document.
type Extractor interface {
	Extract(ctx context.Context, path string) (*Document, error)
}

// FileExtractor picks a reader by file extension.
type FileExtractor struct{}

func New() *FileExtractor {
	return &FileExtractor{}
}

// Extract reads path. It fails for unreadable files, unknown extensions and
// documents without any text.
func (e *FileExtractor) Extract(ctx context.Context, path string) (*Document, error) {
	var (
		doc *Document
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		doc, err = extractPDF(ctx, path)
	case ".txt", ".text":
		doc, err = extractText(path, false)
	case ".md", ".markdown":
		doc, err = extractText(path, true)
	default:
		return nil, fmt.Errorf("%s: %w %q", path, ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.Text()) == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrNoText)
	}
	return doc, nil
}

func extractText(path string, isMarkdown bool) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	text := string(data)
	if isMarkdown {
		text = markdown.ToPlainText(data)
	}
	return &Document{Pages: []string{text}, PageCount: 1}, nil
}

func extractPDF(ctx context.Context, path string) (doc *Document, err error) {
	// The PDF parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("parse pdf %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	numPages := r.NumPage()
	fonts := make(map[string]*pdf.Font)
	doc = &Document{PageCount: numPages}

	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := r.Page(i)
		if p.V.IsNull() {
			doc.Pages = append(doc.Pages, "")
			continue
		}

		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := p.Font(name)
				fonts[name] = &font
			}
		}

		text, pageErr := p.GetPlainText(fonts)
		if pageErr != nil {
			return nil, fmt.Errorf("read pdf page %d: %w", i, pageErr)
		}
		doc.Pages = append(doc.Pages, text)
	}

	return doc, nil
}

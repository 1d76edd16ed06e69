package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDocument_Text(t *testing.T) {
	doc := &Document{Pages: []string{"page one", "", "page three"}, PageCount: 3}

	assert.Equal(t, "page one\n\npage three", doc.Text())
}

func TestExtract_PlainText(t *testing.T) {
	content := "CHAPTER 1\nThe Beginning\n\nIt was a dark night."
	path := writeFile(t, "book.txt", content)

	doc, err := New().Extract(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, 1, doc.PageCount)
	assert.Equal(t, content, doc.Text())
}

func TestExtract_MarkdownIsFlattened(t *testing.T) {
	path := writeFile(t, "book.MD", "# Title\n\nSome *emphasis* here.")

	doc, err := New().Extract(context.Background(), path)

	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "Title")
	assert.Contains(t, doc.Text(), "Some emphasis here.")
	assert.NotContains(t, doc.Text(), "*")
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	path := writeFile(t, "book.epub", "whatever")

	_, err := New().Extract(context.Background(), path)

	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtract_EmptyText(t *testing.T) {
	path := writeFile(t, "blank.txt", "  \n\n ")

	_, err := New().Extract(context.Background(), path)

	assert.ErrorIs(t, err, ErrNoText)
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := New().Extract(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestExtract_InvalidPDF(t *testing.T) {
	path := writeFile(t, "broken.pdf", "this is not a pdf")

	_, err := New().Extract(context.Background(), path)

	assert.Error(t, err)
}

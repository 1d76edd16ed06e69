package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/valpere/booktran/internal"
)

func TestChapterFile(t *testing.T) {
	assert.Equal(t, "chapter_00.md", ChapterFile(0))
	assert.Equal(t, "chapter_07.md", ChapterFile(7))
	assert.Equal(t, "chapter_99.md", ChapterFile(99))
	assert.Equal(t, "chapter_123.md", ChapterFile(123))
}

func TestHeading(t *testing.T) {
	w := New(t.TempDir(), language.English)

	tests := []struct {
		name string
		ch   internal.Chapter
		want string
	}{
		{"introduction", internal.Chapter{Number: 0, Title: "Introduction"}, "Introduction"},
		{"epilogue", internal.Chapter{Number: 99, Title: "Epilogue"}, "Epilogue"},
		{"capitalized title", internal.Chapter{Number: 3, Title: "THE LONG ROAD HOME"}, "Chapter 3: The Long Road Home"},
		{"missing title", internal.Chapter{Number: 4}, "Chapter 4"},
		{"fallback section", internal.Chapter{Number: 2, Title: "Section 2"}, "Section 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Heading(tt.ch))
		})
	}
}

func TestWriteChapter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	w := New(dir, language.English)

	path, err := w.WriteChapter(Section{
		Chapter:     internal.Chapter{Number: 1, Title: "Beginnings"},
		Translation: "  Переклад першого розділу.\n",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "chapter_01.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Chapter 1: Beginnings\n\nПереклад першого розділу.\n", string(data))
}

func TestWriteBook_SkipsEmptyAndKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, language.English)

	sections := []Section{
		{Chapter: internal.Chapter{Number: 0, Title: "Introduction"}, Translation: "Intro text."},
		{Chapter: internal.Chapter{Number: 1, Title: "One"}, Translation: ""},
		{Chapter: internal.Chapter{Number: 2, Title: "Two"}, Translation: "Second text."},
	}

	paths, err := w.WriteBook("My Book", sections, true)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	book, err := os.ReadFile(filepath.Join(dir, BookFile))
	require.NoError(t, err)
	assert.Equal(t,
		"# Introduction\n\nIntro text.\n\n---\n\n# Chapter 2: Two\n\nSecond text.\n",
		string(book))

	page, err := os.ReadFile(filepath.Join(dir, BookHTMLFile))
	require.NoError(t, err)
	assert.Contains(t, string(page), "<title>My Book</title>")
	assert.Contains(t, string(page), "Second text.")
}

func TestWriteBook_NothingToWrite(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, language.English)

	paths, err := w.WriteBook("x", []Section{{Chapter: internal.Chapter{Number: 1}}}, false)

	require.NoError(t, err)
	assert.Empty(t, paths)
	_, statErr := os.Stat(filepath.Join(dir, BookFile))
	assert.True(t, os.IsNotExist(statErr))
}

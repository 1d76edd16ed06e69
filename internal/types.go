package internal

import "time"

// Chapter is one translatable section of a book. Number is 0 for an
// introduction, 99 for an epilogue, and the heading number otherwise.
// Offset is the byte position of the section start in the source text.
type Chapter struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Offset  int    `json:"offset"`
}

// Job describes one book translation run as recorded in the store.
type Job struct {
	ID         string    `json:"id"`
	SourcePath string    `json:"source_path"`
	SourceLang string    `json:"source_lang"`
	TargetLang string    `json:"target_lang"`
	Service    string    `json:"service"`
	OutputDir  string    `json:"output_dir"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// Job statuses.
const (
	JobRunning   = "running"
	JobCompleted = "completed"
	JobPartial   = "partial"
	JobFailed    = "failed"
)

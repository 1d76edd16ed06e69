package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/valpere/booktran/internal"
)

// ErrNotFound is returned when a job or entry does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" && !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Both drivers serialize writes; a single connection avoids SQLITE_BUSY
	// and keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	-- translation_jobs records one book translation run
	CREATE TABLE IF NOT EXISTS translation_jobs (
		id TEXT PRIMARY KEY,
		source_path TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		service TEXT NOT NULL,
		output_dir TEXT NOT NULL,
		status TEXT DEFAULT 'running',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- chapter_checkpoints stores every finished chapter of a job for resume support
	CREATE TABLE IF NOT EXISTS chapter_checkpoints (
		job_id TEXT NOT NULL,
		chapter_number INTEGER NOT NULL,
		title TEXT,
		translated_text TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (job_id, chapter_number),
		FOREIGN KEY (job_id) REFERENCES translation_jobs(id)
	);

	-- translation_memory caches chunk translations by normalized source hash
	CREATE TABLE IF NOT EXISTS translation_memory (
		id TEXT PRIMARY KEY,
		source_hash TEXT NOT NULL,
		source_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		final_text TEXT NOT NULL,
		service_used TEXT NOT NULL DEFAULT '',
		usage_count INTEGER DEFAULT 1,
		invalidated BOOLEAN DEFAULT FALSE,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_hash, source_lang, target_lang, service_used)
	);

	-- glossary stores user-defined terminology for consistent translation of specific terms
	CREATE TABLE IF NOT EXISTS glossary (
		id TEXT PRIMARY KEY,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		source_term TEXT NOT NULL,
		target_term TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_lang, target_lang, source_term)
	);

	CREATE INDEX IF NOT EXISTS idx_memory_lookup ON translation_memory(source_hash, source_lang, target_lang);
	CREATE INDEX IF NOT EXISTS idx_checkpoints_job ON chapter_checkpoints(job_id);
	CREATE INDEX IF NOT EXISTS idx_glossary_lookup ON glossary(source_lang, target_lang);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// for consistent cache key comparison.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

// sourceHash is the memory key for a chunk. Chunks run to tens of kilobytes,
// so the text itself is not indexed.
func sourceHash(text string) string {
	sum := sha256.Sum256([]byte(normalizeText(text)))
	return hex.EncodeToString(sum[:])
}

// GetCachedTranslation returns the translation of a chunk that service
// produced earlier, if any.
func (s *Store) GetCachedTranslation(ctx context.Context, sourceText, sourceLang, targetLang, service string) (string, bool, error) {
	var finalText string
	var invalidated bool
	key := sourceHash(sourceText)

	err := s.db.QueryRowContext(ctx,
		`SELECT final_text, invalidated FROM translation_memory WHERE source_hash = ? AND source_lang = ? AND target_lang = ? AND service_used = ?`,
		key, sourceLang, targetLang, service).Scan(&finalText, &invalidated)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	if invalidated {
		return "", false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE translation_memory SET usage_count = usage_count + 1, last_used = ? WHERE source_hash = ? AND source_lang = ? AND target_lang = ? AND service_used = ?`,
		time.Now(), key, sourceLang, targetLang, service)

	return finalText, true, err
}

// SaveToMemory stores a chunk translation, replacing any earlier one for the
// same source, language pair and service.
func (s *Store) SaveToMemory(ctx context.Context, sourceText, sourceLang, targetLang, finalText, serviceUsed string) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO translation_memory (id, source_hash, source_text, source_lang, target_lang, final_text, service_used, usage_count, invalidated, last_used, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, 1, FALSE, ?, ?)`,
		"mem_"+uuid.NewString(), sourceHash(sourceText), normalizeText(sourceText), sourceLang, targetLang, finalText, serviceUsed, now, now)
	return err
}

// MemoryEntry is a row from the translation_memory table.
type MemoryEntry struct {
	ID          string
	SourceText  string
	SourceLang  string
	TargetLang  string
	FinalText   string
	ServiceUsed string
	UsageCount  int
	Invalidated bool
	LastUsed    time.Time
}

// CacheStats summarises translation memory usage.
type CacheStats struct {
	TotalEntries   int
	ActiveEntries  int
	InvalidEntries int
	TotalUsage     int
}

func (s *Store) InvalidateMemory(ctx context.Context, id string) error {
	return s.execOne(ctx, `UPDATE translation_memory SET invalidated = TRUE WHERE id = ?`, id)
}

// DeleteMemory permanently removes a translation memory entry by ID.
func (s *Store) DeleteMemory(ctx context.Context, id string) error {
	return s.execOne(ctx, `DELETE FROM translation_memory WHERE id = ?`, id)
}

// ClearMemory removes all translation memory entries.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListMemory returns all translation memory entries ordered by most recently used.
func (s *Store) ListMemory(ctx context.Context) ([]MemoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_text, source_lang, target_lang, final_text, COALESCE(service_used, ''), usage_count, invalidated, last_used FROM translation_memory ORDER BY last_used DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MemoryEntry
	for rows.Next() {
		var e MemoryEntry
		if err := rows.Scan(&e.ID, &e.SourceText, &e.SourceLang, &e.TargetLang, &e.FinalText, &e.ServiceUsed, &e.UsageCount, &e.Invalidated, &e.LastUsed); err != nil {
			return nil, err
		}
		results = append(results, e)
	}

	return results, rows.Err()
}

// Stats returns summary statistics for the translation memory.
func (s *Store) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN NOT invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(usage_count), 0)
		FROM translation_memory`).Scan(
		&stats.TotalEntries,
		&stats.ActiveEntries,
		&stats.InvalidEntries,
		&stats.TotalUsage,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// CreateJob records a new running job and returns it with its ID set.
func (s *Store) CreateJob(ctx context.Context, job internal.Job) (*internal.Job, error) {
	job.ID = uuid.NewString()
	job.Status = internal.JobRunning
	job.Timestamp = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO translation_jobs (id, source_path, source_lang, target_lang, service, output_dir, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.SourcePath, job.SourceLang, job.TargetLang, job.Service, job.OutputDir, job.Status, job.Timestamp, job.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return &job, nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(ctx context.Context, id string) (*internal.Job, error) {
	var j internal.Job
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source_path, source_lang, target_lang, service, output_dir, status, created_at FROM translation_jobs WHERE id = ?`,
		id).Scan(&j.ID, &j.SourcePath, &j.SourceLang, &j.TargetLang, &j.Service, &j.OutputDir, &j.Status, &j.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// JobSummary is a job with its checkpoint count.
type JobSummary struct {
	internal.Job
	ChaptersDone int
	UpdatedAt    time.Time
}

// ListJobs returns all jobs, newest first.
func (s *Store) ListJobs(ctx context.Context) ([]JobSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT j.id, j.source_path, j.source_lang, j.target_lang, j.service, j.output_dir, j.status, j.created_at, j.updated_at,
			(SELECT COUNT(*) FROM chapter_checkpoints c WHERE c.job_id = j.id)
		FROM translation_jobs j
		ORDER BY j.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []JobSummary
	for rows.Next() {
		var j JobSummary
		if err := rows.Scan(&j.ID, &j.SourcePath, &j.SourceLang, &j.TargetLang, &j.Service, &j.OutputDir, &j.Status, &j.Timestamp, &j.UpdatedAt, &j.ChaptersDone); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// UpdateJobStatus sets the status of a job.
func (s *Store) UpdateJobStatus(ctx context.Context, id, status string) error {
	return s.execOne(ctx,
		`UPDATE translation_jobs SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
}

// SaveChapterCheckpoint persists the finished translation of one chapter.
func (s *Store) SaveChapterCheckpoint(ctx context.Context, jobID string, chapter internal.Chapter, translation string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO chapter_checkpoints (job_id, chapter_number, title, translated_text) VALUES (?, ?, ?, ?)`,
		jobID, chapter.Number, chapter.Title, translation)
	if err != nil {
		return fmt.Errorf("save checkpoint for chapter %d: %w", chapter.Number, err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE translation_jobs SET updated_at = ? WHERE id = ?`, time.Now().UTC(), jobID)
	return err
}

// GetChapterCheckpoints returns the finished chapters of a job keyed by
// chapter number.
func (s *Store) GetChapterCheckpoints(ctx context.Context, jobID string) (map[int]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chapter_number, translated_text FROM chapter_checkpoints WHERE job_id = ?`,
		jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	done := make(map[int]string)
	for rows.Next() {
		var number int
		var text string
		if err := rows.Scan(&number, &text); err != nil {
			return nil, err
		}
		done[number] = text
	}
	return done, rows.Err()
}

// GlossaryEntry represents a row in the glossary table.
type GlossaryEntry struct {
	ID         string
	SourceLang string
	TargetLang string
	SourceTerm string
	TargetTerm string
	CreatedAt  time.Time
}

// AddGlossaryTerm inserts or replaces a glossary entry.
func (s *Store) AddGlossaryTerm(ctx context.Context, sourceLang, targetLang, sourceTerm, targetTerm string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO glossary (id, source_lang, target_lang, source_term, target_term)
		 VALUES (?, ?, ?, ?, ?)`,
		"gl_"+uuid.NewString(), sourceLang, targetLang, sourceTerm, targetTerm)
	return err
}

// GetGlossaryTerms returns all glossary terms for a language pair as a
// source-term → target-term map, ready to embed in a translation prompt.
func (s *Store) GetGlossaryTerms(ctx context.Context, sourceLang, targetLang string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_term, target_term FROM glossary WHERE source_lang = ? AND target_lang = ?`,
		sourceLang, targetLang)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	terms := make(map[string]string)
	for rows.Next() {
		var src, tgt string
		if err := rows.Scan(&src, &tgt); err != nil {
			return nil, err
		}
		terms[src] = tgt
	}
	return terms, rows.Err()
}

// ListGlossaryTerms returns all glossary entries, optionally filtered by language
// pair (pass empty strings to return everything).
func (s *Store) ListGlossaryTerms(ctx context.Context, sourceLang, targetLang string) ([]GlossaryEntry, error) {
	query := `SELECT id, source_lang, target_lang, source_term, target_term, created_at FROM glossary`
	var args []any

	switch {
	case sourceLang != "" && targetLang != "":
		query += ` WHERE source_lang = ? AND target_lang = ?`
		args = append(args, sourceLang, targetLang)
	case sourceLang != "":
		query += ` WHERE source_lang = ?`
		args = append(args, sourceLang)
	case targetLang != "":
		query += ` WHERE target_lang = ?`
		args = append(args, targetLang)
	}
	query += ` ORDER BY source_lang, target_lang, source_term`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []GlossaryEntry
	for rows.Next() {
		var e GlossaryEntry
		if err := rows.Scan(&e.ID, &e.SourceLang, &e.TargetLang, &e.SourceTerm, &e.TargetTerm, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteGlossaryTerm removes a glossary entry by ID.
func (s *Store) DeleteGlossaryTerm(ctx context.Context, id string) error {
	return s.execOne(ctx, `DELETE FROM glossary WHERE id = ?`, id)
}

// execOne runs a statement that must touch exactly one row.
func (s *Store) execOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/valpere/booktran/internal"
	"github.com/valpere/booktran/internal/config"
	"github.com/valpere/booktran/internal/detector"
	"github.com/valpere/booktran/internal/orchestrator"
	"github.com/valpere/booktran/internal/output"
	"github.com/valpere/booktran/internal/store"
	"github.com/valpere/booktran/internal/validator"
)

var (
	inputFile    string
	outputDir    string
	sourceLang   string
	targetLang   string
	startChapter int
	endChapter   int

	serviceName  string
	model        string
	apiKey       string
	baseURL      string
	credentials  string
	instructions string
	rpm          int

	maxChunkSize int
	overlapSize  int
	maxRetries   int

	writeHTML      bool
	noCache        bool
	resumeJob      string
	validateOutput bool
)

var translateBindings = map[string]string{
	"translation.source_lang":     "source",
	"translation.target_lang":     "target",
	"translation.instructions":    "instructions",
	"translation.max_attempts":    "max-retries",
	"translation.validate_output": "validate",
	"service.name":                "service",
	"service.model":               "model",
	"service.api_key":             "api-key",
	"service.base_url":            "base-url",
	"service.credentials":         "credentials",
	"service.rpm":                 "rpm",
	"chunking.max_size":           "max-chunk-size",
	"chunking.overlap":            "overlap",
	"output.dir":                  "output-dir",
	"output.html":                 "html",
	"storage.no_cache":            "no-cache",
}

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate a book chapter by chapter",
	Long: `Translate a PDF, text or Markdown book.

The book is split into chapters; each chapter is translated in overlapping
chunks and written to <output-dir>/chapter_NN.md as soon as it is done. The
combined book is written to <output-dir>/book.md (and book.html with --html).
A chapter whose chunks keep failing is skipped and the run continues.

Available services:
  - openrouter  OpenRouter LLM (OPENROUTER_API_KEY)
  - openai      OpenAI-compatible chat completions (OPENAI_API_KEY)
  - claude      Anthropic Claude (ANTHROPIC_API_KEY)
  - ollama      Ollama LLM (self-hosted)
  - google      Google Cloud Translate (credentials file or API key)
  - systran     Systran via RapidAPI (SYSTRAN_API_KEY)

Every run is recorded as a job. Rerun an interrupted or partial job with
--resume <job-id>; finished chapters are reused.`,
	Example: `  booktran translate -i novel.pdf -t uk --service claude
  booktran translate -i novel.pdf -t de --start 3 --end 5 --html
  booktran translate --resume 6f1c0d2e-... --service ollama`,
	RunE: runTranslate,
}

func runTranslate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, logger, err := loadConfig(cmd, translateBindings)
	if err != nil {
		return err
	}

	var db *store.Store
	if cfg.Storage.DBPath != "" {
		db, err = openStore(cfg.Storage.DBPath)
		switch {
		case err == nil:
			defer db.Close()
		case resumeJob != "":
			return err
		default:
			// Translation still works without memory or checkpoints.
			logger.Warn("continuing without database", "path", cfg.Storage.DBPath, "error", err)
			db = nil
		}
	}

	completed := map[int]string{}
	var job *internal.Job
	if resumeJob != "" {
		if db == nil {
			return fmt.Errorf("--resume needs a database (--db)")
		}
		job, err = db.GetJob(ctx, resumeJob)
		if err != nil {
			return fmt.Errorf("failed to load job: %w", err)
		}
		if inputFile == "" {
			inputFile = job.SourcePath
		}
		cfg.Translation.SourceLang = job.SourceLang
		cfg.Translation.TargetLang = job.TargetLang
		cfg.Output.Dir = job.OutputDir
		completed, err = db.GetChapterCheckpoints(ctx, job.ID)
		if err != nil {
			return fmt.Errorf("failed to load checkpoints: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Resuming job %s: %d chapters already translated\n", job.ID, len(completed))
	}

	if inputFile == "" {
		return fmt.Errorf("--input is required")
	}
	if cfg.Translation.TargetLang == "" {
		return fmt.Errorf("--target is required")
	}

	text, chapters, err := loadChapters(ctx, cfg, logger, inputFile)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Extracted %s from %s, %d chapters\n",
		humanize.Bytes(uint64(len(text))), filepath.Base(inputFile), len(chapters))

	if cfg.Translation.SourceLang == config.AutoLanguage {
		detected, ok := detector.New().DetectCode(text)
		if !ok {
			return fmt.Errorf("could not detect the source language, set --source")
		}
		cfg.Translation.SourceLang = detected
		fmt.Fprintf(os.Stderr, "Detected source language: %s\n", detected)
	}
	if strings.EqualFold(cfg.Translation.SourceLang, cfg.Translation.TargetLang) {
		return fmt.Errorf("source and target language are both %s", cfg.Translation.TargetLang)
	}

	selected, err := selectRange(chapters, startChapter, endChapter)
	if err != nil {
		return err
	}

	svc, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}

	opts := []orchestrator.Option{
		orchestrator.WithLogger(logger),
		orchestrator.WithServiceConfig(cfg.ServiceRequestConfig()),
	}
	if db != nil {
		if !cfg.Storage.NoCache {
			opts = append(opts, orchestrator.WithCache(db))
		}
		terms, err := db.GetGlossaryTerms(ctx, cfg.Translation.SourceLang, cfg.Translation.TargetLang)
		if err != nil {
			return fmt.Errorf("failed to load glossary: %w", err)
		}
		if len(terms) > 0 {
			logger.Info("glossary loaded", "terms", len(terms))
			opts = append(opts, orchestrator.WithGlossary(terms))
		}
	}
	if cfg.Translation.ValidateOutput {
		opts = append(opts, orchestrator.WithValidator(validator.New()))
	}
	orch := orchestrator.New(svc, cfg.OrchestratorConfig(), opts...)

	if db != nil && job == nil {
		job, err = db.CreateJob(ctx, internal.Job{
			SourcePath: inputFile,
			SourceLang: cfg.Translation.SourceLang,
			TargetLang: cfg.Translation.TargetLang,
			Service:    svc.Name(),
			OutputDir:  cfg.Output.Dir,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Job %s\n", job.ID)
	}

	writer := output.New(cfg.Output.Dir, titleLanguage(cfg.Translation.SourceLang))
	started := time.Now()

	result, runErr := orch.TranslateBook(ctx, selected, orchestrator.BookOptions{
		Preceding: precedingTranslation(chapters, startChapter, completed),
		Completed: completed,
		OnChapter: func(ch internal.Chapter, translation string) error {
			path, err := writer.WriteChapter(output.Section{Chapter: ch, Translation: translation})
			if err != nil {
				return err
			}
			if job != nil {
				if err := db.SaveChapterCheckpoint(ctx, job.ID, ch, translation); err != nil {
					return err
				}
			}
			fmt.Fprintf(os.Stderr, "Translated %s -> %s\n", writer.Heading(ch), path)
			return nil
		},
	})
	sections := make([]output.Section, 0, len(result.Chapters))
	for _, cr := range result.Translations() {
		if cr.Reused {
			if _, err := writer.WriteChapter(output.Section{Chapter: cr.Chapter, Translation: cr.Translation}); err != nil {
				return err
			}
		}
		sections = append(sections, output.Section{Chapter: cr.Chapter, Translation: cr.Translation})
	}
	title := strings.TrimSuffix(filepath.Base(inputFile), filepath.Ext(inputFile))
	paths, err := writer.WriteBook(title, sections, cfg.Output.HTML)
	if err != nil {
		return err
	}

	status := jobStatus(result, runErr)
	if job != nil {
		// The run context may already be cancelled.
		if err := db.UpdateJobStatus(context.WithoutCancel(ctx), job.ID, status); err != nil {
			logger.Warn("failed to update job status", "job", job.ID, "error", err)
		}
	}

	fmt.Printf("Translated %d/%d chapters %s -> %s in %s\n",
		result.Succeeded+result.Reused, len(selected),
		cfg.Translation.SourceLang, cfg.Translation.TargetLang,
		time.Since(started).Round(time.Second))
	if result.Reused > 0 {
		fmt.Printf("Reused from earlier run: %d\n", result.Reused)
	}
	for _, cr := range result.Chapters {
		if cr.Err != nil {
			fmt.Printf("Skipped %s: %v\n", writer.Heading(cr.Chapter), cr.Err)
		}
	}
	for _, p := range paths {
		fmt.Printf("Wrote %s\n", p)
	}
	if job != nil && status != internal.JobCompleted {
		fmt.Printf("Resume with: booktran translate --resume %s\n", job.ID)
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return fmt.Errorf("translation interrupted")
		}
		return runErr
	}
	if status == internal.JobFailed {
		return fmt.Errorf("all %d chapters failed", len(selected))
	}
	return nil
}

func jobStatus(result *orchestrator.BookResult, runErr error) string {
	done := result.Succeeded + result.Reused
	switch {
	case runErr == nil && result.Failed == 0:
		return internal.JobCompleted
	case done > 0:
		return internal.JobPartial
	default:
		return internal.JobFailed
	}
}

// precedingTranslation is the context for the first selected chapter: the
// checkpointed translation of the chapter right before it, if any.
func precedingTranslation(chapters []internal.Chapter, start int, completed map[int]string) string {
	if start <= 1 || start > len(chapters) {
		return ""
	}
	return completed[chapters[start-2].Number]
}

func titleLanguage(code string) language.Tag {
	tag, err := language.Parse(code)
	if err != nil {
		return language.Und
	}
	return tag
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Book to translate: .pdf, .txt or .md (required unless --resume)")
	translateCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "./translated", "Directory for chapter files and the combined book")
	translateCmd.Flags().StringVarP(&sourceLang, "source", "s", "auto", "Source language code, or auto to detect")
	translateCmd.Flags().StringVarP(&targetLang, "target", "t", "", "Target language code (required)")
	translateCmd.Flags().IntVar(&startChapter, "start", 0, "First chapter to translate, 1-based (default first)")
	translateCmd.Flags().IntVar(&endChapter, "end", 0, "Last chapter to translate, inclusive (default last)")

	translateCmd.Flags().StringVar(&serviceName, "service", "openrouter", "Translation service")
	translateCmd.Flags().StringVar(&model, "model", "", "Model name (default depends on the service)")
	translateCmd.Flags().StringVar(&apiKey, "api-key", "", "API key (default from the provider's environment variable)")
	translateCmd.Flags().StringVar(&baseURL, "base-url", "", "Service base URL")
	translateCmd.Flags().StringVarP(&credentials, "credentials", "c", "", "Google Cloud credentials file")
	translateCmd.Flags().StringVar(&instructions, "instructions", "", "Extra instructions for LLM services (style, audience)")
	translateCmd.Flags().IntVar(&rpm, "rpm", 0, "Maximum requests per minute (0 = unlimited)")

	translateCmd.Flags().IntVar(&maxChunkSize, "max-chunk-size", 25000, "Maximum chunk size in bytes")
	translateCmd.Flags().IntVar(&overlapSize, "overlap", 3000, "Overlap between chunks in bytes")
	translateCmd.Flags().IntVar(&maxRetries, "max-retries", 3, "Total attempts per chunk including the first (1 = no retries)")

	translateCmd.Flags().BoolVar(&writeHTML, "html", false, "Also write the combined book as HTML")
	translateCmd.Flags().BoolVar(&noCache, "no-cache", false, "Disable translation memory cache")
	translateCmd.Flags().StringVar(&resumeJob, "resume", "", "Resume the job with this ID")
	translateCmd.Flags().BoolVar(&validateOutput, "validate", false, "Reject translations not written in the target language")
}

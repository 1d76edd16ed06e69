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
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/booktran/internal"
	"github.com/valpere/booktran/internal/config"
	"github.com/valpere/booktran/internal/extract"
	"github.com/valpere/booktran/internal/segmenter"
	"github.com/valpere/booktran/internal/store"
	"github.com/valpere/booktran/internal/translator"
)

// buildService constructs the configured translation service, checks that
// it is reachable and applies the request rate limit.
func buildService(ctx context.Context, cfg *config.Config) (translator.TranslationService, error) {
	svc, err := translator.New(cfg.Service.Name, cfg.ServiceOptions())
	if err != nil {
		return nil, err
	}
	if err := svc.IsAvailable(ctx); err != nil {
		return nil, fmt.Errorf("service %s is not available: %w", svc.Name(), err)
	}
	return translator.NewRateLimited(svc, cfg.Service.RPM), nil
}

func openStore(path string) (*store.Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is empty (set --db)")
	}
	db, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// loadChapters extracts the text of path and segments it into chapters.
func loadChapters(ctx context.Context, cfg *config.Config, logger *slog.Logger, path string) (string, []internal.Chapter, error) {
	doc, err := extract.New().Extract(ctx, path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to extract text: %w", err)
	}
	text := doc.Text()
	logger.Info("text extracted", "path", path, "pages", doc.PageCount, "bytes", len(text))

	chapters := segmenter.New(cfg.SegmenterConfig()).Segment(text)
	if len(chapters) == 0 {
		return "", nil, fmt.Errorf("no translatable text found in %s", path)
	}
	return text, chapters, nil
}

// selectRange returns chapters[start-1:end]. start and end are 1-based and
// inclusive; zero means the first and last chapter respectively.
func selectRange(chapters []internal.Chapter, start, end int) ([]internal.Chapter, error) {
	if start == 0 {
		start = 1
	}
	if end == 0 {
		end = len(chapters)
	}
	if start < 1 || end > len(chapters) || start > end {
		return nil, fmt.Errorf("invalid chapter range %d..%d (book has %d chapters)", start, end, len(chapters))
	}
	return chapters[start-1 : end], nil
}

// truncate shortens s to at most n runes for table output.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// withStore opens the configured database for the duration of fn.
func withStore(cmd *cobra.Command, fn func(db *store.Store) error) error {
	cfg, _, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	db, err := openStore(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

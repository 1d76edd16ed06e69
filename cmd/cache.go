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
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/valpere/booktran/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the translation memory cache",
	Long: `List, inspect, and clear the SQLite translation memory cache.

Every translated chunk is remembered by its normalized source text, language
pair and the producing service, so rerunning a book only calls the service for
chunks that changed. The service label includes the --model override and a
digest of --instructions (for example "ollama:llama3+1a2b3c4d"); changing
either starts a fresh set of entries.`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all translation memory entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(db *store.Store) error {
			entries, err := db.ListMemory(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list entries: %w", err)
			}

			if len(entries) == 0 {
				fmt.Println("No entries in translation memory.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSOURCE\tTARGET\tSERVICE\tSIZE\tUSED\tLAST USED\tINVALID\tTEXT")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%v\t%s\n",
					e.ID, e.SourceLang, e.TargetLang, e.ServiceUsed,
					humanize.Bytes(uint64(len(e.SourceText))),
					e.UsageCount, humanize.Time(e.LastUsed),
					e.Invalidated, truncate(e.SourceText, 40))
			}
			return w.Flush()
		})
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show translation memory statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(db *store.Store) error {
			stats, err := db.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get stats: %w", err)
			}

			fmt.Printf("Total entries:   %s\n", humanize.Comma(int64(stats.TotalEntries)))
			fmt.Printf("Active entries:  %s\n", humanize.Comma(int64(stats.ActiveEntries)))
			fmt.Printf("Invalid entries: %s\n", humanize.Comma(int64(stats.InvalidEntries)))
			fmt.Printf("Total usage:     %s\n", humanize.Comma(int64(stats.TotalUsage)))
			return nil
		})
	},
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <id>",
	Short: "Stop serving an entry without deleting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(db *store.Store) error {
			if err := db.InvalidateMemory(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to invalidate entry: %w", err)
			}
			fmt.Printf("Invalidated entry: %s\n", args[0])
			return nil
		})
	},
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a translation memory entry by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(db *store.Store) error {
			if err := db.DeleteMemory(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete entry: %w", err)
			}
			fmt.Printf("Deleted entry: %s\n", args[0])
			return nil
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all entries from translation memory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(db *store.Store) error {
			n, err := db.ClearMemory(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			fmt.Printf("Cleared %d entries from translation memory.\n", n)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
	cacheCmd.AddCommand(cacheDeleteCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

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

	"github.com/valpere/booktran/internal/chunker"
	"github.com/valpere/booktran/internal/detector"
)

var chaptersBindings = map[string]string{
	"chunking.max_size": "max-chunk-size",
	"chunking.overlap":  "overlap",
}

var chaptersCmd = &cobra.Command{
	Use:   "chapters <file>",
	Short: "Show the chapters and chunks a book would be translated in",
	Long: `Extract and segment a book without translating it.

The table lists every detected chapter with its 1-based index (the value
for --start and --end of "booktran translate"), chapter number, title,
size and the number of chunks it will be sent in.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd, chaptersBindings)
		if err != nil {
			return err
		}

		text, chapters, err := loadChapters(cmd.Context(), cfg, logger, args[0])
		if err != nil {
			return err
		}

		splitter := chunker.New(cfg.ChunkingConfig(), nil)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "INDEX\tNUMBER\tTITLE\tSIZE\tCHUNKS")
		total := 0
		for i, ch := range chapters {
			n := len(splitter.Split(ch.Content))
			total += n
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%d\n",
				i+1, ch.Number, truncate(ch.Title, 50), humanize.Bytes(uint64(len(ch.Content))), n)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Printf("\n%d chapters, %d chunks, %s of text", len(chapters), total, humanize.Bytes(uint64(len(text))))
		if lang, ok := detector.New().DetectCode(text); ok {
			fmt.Printf(", language %s", lang)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chaptersCmd)

	chaptersCmd.Flags().IntVar(&maxChunkSize, "max-chunk-size", 25000, "Maximum chunk size in bytes")
	chaptersCmd.Flags().IntVar(&overlapSize, "overlap", 3000, "Overlap between chunks in bytes")
}

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

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect book translation jobs",
	Long: `Every "booktran translate" run is recorded as a job. Finished chapters
are checkpointed, so a partial or interrupted job can be continued with
"booktran translate --resume <job-id>".`,
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(db *store.Store) error {
			jobs, err := db.ListJobs(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list jobs: %w", err)
			}

			if len(jobs) == 0 {
				fmt.Println("No jobs recorded.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tLANGS\tSERVICE\tCHAPTERS DONE\tSTARTED\tUPDATED\tSOURCE")
			for _, j := range jobs {
				fmt.Fprintf(w, "%s\t%s\t%s→%s\t%s\t%d\t%s\t%s\t%s\n",
					j.ID, j.Status, j.SourceLang, j.TargetLang, j.Service,
					j.ChaptersDone, humanize.Time(j.Timestamp), humanize.Time(j.UpdatedAt),
					j.SourcePath)
			}
			return w.Flush()
		})
	},
}

var jobsShowCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "Show one job and its finished chapters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(db *store.Store) error {
			job, err := db.GetJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			done, err := db.GetChapterCheckpoints(cmd.Context(), job.ID)
			if err != nil {
				return fmt.Errorf("failed to load checkpoints: %w", err)
			}

			fmt.Printf("Job:       %s\n", job.ID)
			fmt.Printf("Status:    %s\n", job.Status)
			fmt.Printf("Source:    %s (%s)\n", job.SourcePath, job.SourceLang)
			fmt.Printf("Target:    %s\n", job.TargetLang)
			fmt.Printf("Service:   %s\n", job.Service)
			fmt.Printf("Output:    %s\n", job.OutputDir)
			fmt.Printf("Started:   %s\n", humanize.Time(job.Timestamp))
			fmt.Printf("Chapters:  %d done\n", len(done))
			for _, n := range sortedKeys(done) {
				fmt.Printf("  %2d  %s\n", n, humanize.Bytes(uint64(len(done[n]))))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)

	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsShowCmd)
}

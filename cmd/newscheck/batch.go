package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ersonp/newscheck/internal/application/handlers"
)

type batchFlags struct {
	format  string
	workers int
	dryRun  bool
	items   bool
}

func newBatchCmd() *cobra.Command {
	var flags batchFlags

	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Classify every submission in a file",
		Long: `Classifies submissions from a .txt (one per line), .csv (text column) or
.json (array of strings or {"id","text"} objects) file. Results are archived
unless --dry-run is set. The interactive session is not affected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "File format (txt, csv, json, auto)")
	cmd.Flags().IntVarP(&flags.workers, "workers", "n", 0, "Concurrent classifications (default from config)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Classify without archiving")
	cmd.Flags().BoolVar(&flags.items, "items", false, "Print every item")

	return cmd
}

func runBatch(cmd *cobra.Command, filePath string, flags batchFlags) error {
	if flags.workers < 0 {
		return fmt.Errorf("invalid --workers value %d", flags.workers)
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	return withDeps(ctx, func(d *Deps) error {
		fmt.Fprintf(out, "Analyzing %s...\n", filePath)

		report, err := d.BatchHandler(flags.workers).Handle(ctx, filePath, handlers.BatchOptions{
			Format: flags.format,
			DryRun: flags.dryRun,
		})
		if err != nil {
			return fmt.Errorf("analyzing file: %w", err)
		}

		printBatchReport(out, report, flags.items)
		return nil
	})
}

func printBatchReport(w io.Writer, report *handlers.BatchReport, items bool) {
	if len(report.Items) == 0 {
		fmt.Fprintln(w, "No submissions found.")
		return
	}

	for _, item := range report.Items {
		if item.OK() && !items {
			continue
		}
		loc := fmt.Sprintf("line %d", item.Submission.Line)
		if item.Submission.ID != "" {
			loc = item.Submission.ID
		}
		if !item.OK() {
			fmt.Fprintf(w, "  %s: error: %v\n", loc, item.Err)
			continue
		}
		fmt.Fprintf(w, "  %s: %s %d%%  %s\n", loc, badge(item.Verdict.Label), item.Verdict.Confidence, oneLine(truncate(item.Submission.Text, PreviewLength)))
	}

	fmt.Fprintf(w, "\n%d analyzed in %s: %d real, %d fake, %d failed\n",
		len(report.Items), report.Duration.Round(time.Millisecond), report.Real, report.Fake, report.Failed)
	if report.Archived > 0 {
		fmt.Fprintf(w, "Archived %d entries", report.Archived)
		if report.Indexed > 0 {
			fmt.Fprintf(w, ", indexed %d", report.Indexed)
		}
		fmt.Fprintln(w, ".")
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

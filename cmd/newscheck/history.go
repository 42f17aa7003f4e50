package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/newscheck/internal/domain/entities"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the persistent analysis archive",
		Long:  "Lists, searches, summarizes, exports and clears analyses archived across sessions.",
	}

	cmd.AddCommand(
		newHistoryListCmd(),
		newHistoryShowCmd(),
		newHistoryStatsCmd(),
		newHistoryClearCmd(),
		newExportCmd(),
	)

	return cmd
}

func newHistoryListCmd() *cobra.Command {
	var (
		limit  int
		offset int
		search string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived analyses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(ctx, func(d *Deps) error {
				var (
					entries []entities.HistoryEntry
					err     error
				)
				title := "Archived analyses"
				if search != "" {
					title = fmt.Sprintf("Analyses matching %q", search)
					entries, err = d.HistoryHandler.Search(ctx, search, limit)
				} else {
					entries, err = d.HistoryHandler.List(ctx, limit, offset)
				}
				if err != nil {
					return err
				}

				renderHistory(cmd.OutOrStdout(), title, entries)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultListLimit, "Maximum number of entries")
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip this many entries")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Only entries whose text contains this")

	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one archived analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			return withDeps(ctx, func(d *Deps) error {
				entry, err := d.HistoryHandler.Show(ctx, args[0])
				if err != nil {
					return err
				}

				fmt.Fprintf(out, "ID:         %s\n", entry.ID)
				fmt.Fprintf(out, "Submitted:  %s\n", entry.SubmittedAt.Local().Format("2006-01-02 15:04:05"))
				fmt.Fprintf(out, "Classifier: %s\n\n", entry.Classifier)
				renderResult(out, entry.Result, entry.Signals)
				fmt.Fprintf(out, "\n%s\n", entry.Text)
				return nil
			})
		},
	}
}

func newHistoryStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			return withDeps(ctx, func(d *Deps) error {
				stats, err := d.HistoryHandler.Stats(ctx)
				if err != nil {
					return err
				}

				c := stats.Counts
				fmt.Fprintln(out, titleStyle.Render("Archive"))
				fmt.Fprintf(out, "  Total: %d\n", c.Total)
				fmt.Fprintf(out, "  %s %d (%s)\n", badge(entities.LabelReal), c.Real, percent(c.Real, c.Total))
				fmt.Fprintf(out, "  %s %d (%s)\n", badge(entities.LabelFake), c.Fake, percent(c.Fake, c.Total))

				switch {
				case !stats.IndexEnabled:
					fmt.Fprintln(out, "  Similarity index: disabled")
				case stats.IndexErr != nil:
					fmt.Fprintf(out, "  Similarity index: unavailable (%v)\n", stats.IndexErr)
				default:
					fmt.Fprintf(out, "  Similarity index: %d vectors\n", stats.Indexed)
				}

				if stats.LastCleared != nil {
					fmt.Fprintf(out, "  Last cleared: %s\n", stats.LastCleared.Local().Format("2006-01-02 15:04"))
				}
				return nil
			})
		},
	}
}

func newHistoryClearCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every archived analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			return withDeps(ctx, func(d *Deps) error {
				if !force {
					prompt := "Delete all archived analyses?"
					if stats, err := d.HistoryHandler.Stats(ctx); err == nil {
						prompt = fmt.Sprintf("Delete all %d archived analyses?", stats.Counts.Total)
					}
					if !confirmAction(cmd.InOrStdin(), out, prompt) {
						fmt.Fprintln(out, "Cancelled.")
						return nil
					}
				}

				result, err := d.HistoryHandler.Clear(ctx)
				if err != nil {
					return err
				}

				fmt.Fprintf(out, "Deleted %d entries.", result.Deleted)
				if result.IndexCleared {
					fmt.Fprint(out, " Similarity index cleared.")
				}
				fmt.Fprintln(out)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

func confirmAction(in io.Reader, out io.Writer, prompt string) bool {
	reader := bufio.NewReader(in)
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	response, _ := reader.ReadString('\n') // Error ignored: EOF/error treated as "no"
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func percent(n, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.0f%%", float64(n)*100/float64(total))
}

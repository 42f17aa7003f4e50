package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/newscheck/internal/domain/services"
)

func newSimilarCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "similar <text>",
		Short: "Find archived submissions similar to text",
		Long:  "Performs semantic search over previously analyzed submissions. Requires qdrant.enabled and an embedder API key.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			return withDeps(ctx, func(d *Deps) error {
				result, err := d.SimilarityHandler.Handle(ctx, strings.Join(args, " "), limit)
				if err != nil {
					return err
				}

				if len(result.Matches) == 0 {
					fmt.Fprintln(out, "No similar submissions found.")
					return nil
				}

				fmt.Fprintf(out, "Found %d similar submissions:\n\n", len(result.Matches))
				for i, m := range result.Matches {
					fmt.Fprintf(out, "%d. %s %3d%%  %s  %s\n",
						i+1,
						badge(m.Entry.Result.Label),
						m.Entry.Result.Confidence,
						mutedStyle.Render(fmt.Sprintf("score %.3f", m.Score)),
						oneLine(m.Entry.Preview(PreviewLength)),
					)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", services.DefaultSimilarLimit, "Maximum number of results")

	return cmd
}

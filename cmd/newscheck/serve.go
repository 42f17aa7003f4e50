package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/newscheck/internal/web"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser UI and JSON API",
		Long:  "Starts an HTTP server with the analysis page, a JSON API and a server-sent events stream of state changes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(ctx, func(d *Deps) error {
				if addr == "" {
					addr = d.Config.Server.Addr
				}

				srv := web.New(web.Options{
					Analysis: d.Analysis,
					Analyze:  d.AnalyzeHandler,
					History:  d.HistoryHandler,
					Similar:  d.SimilarityHandler,
					Logger:   d.Logger,
				})
				defer srv.Close()

				fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s (Ctrl+C to stop)\n", addr)
				return srv.Run(ctx, addr)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")

	return cmd
}

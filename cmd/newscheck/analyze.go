package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/newscheck/internal/application/handlers"
)

type analyzeFlags struct {
	file    string
	url     string
	jsonOut bool
}

func newAnalyzeCmd() *cobra.Command {
	var flags analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze [text]",
		Short: "Classify a piece of news text",
		Long: `Classifies text as REAL or FAKE and prints the verdict with its confidence.

Text is taken from the arguments, --file, --url, or standard input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Read text from a file")
	cmd.Flags().StringVarP(&flags.url, "url", "u", "", "Fetch and analyze an article")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "Print the result as JSON")
	cmd.MarkFlagsMutuallyExclusive("file", "url")

	return cmd
}

type analyzeOutput struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Confidence int      `json:"confidence"`
	Classifier string   `json:"classifier"`
	Signals    []string `json:"signals"`
	URL        string   `json:"url,omitempty"`
	Title      string   `json:"title,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string, flags analyzeFlags) error {
	if len(args) > 0 && (flags.file != "" || flags.url != "") {
		return errors.New("pass text as arguments or use --file/--url, not both")
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	return withDeps(ctx, func(d *Deps) error {
		var (
			outcome *handlers.AnalysisOutcome
			err     error
		)

		switch {
		case flags.url != "":
			outcome, err = d.AnalyzeHandler.HandleURL(ctx, flags.url)
		case flags.file != "":
			outcome, err = d.AnalyzeHandler.HandleFile(ctx, flags.file)
		case len(args) > 0:
			outcome, err = d.AnalyzeHandler.Handle(ctx, strings.Join(args, " "))
		default:
			text, readErr := io.ReadAll(io.LimitReader(cmd.InOrStdin(), handlers.MaxFileBytes))
			if readErr != nil {
				return fmt.Errorf("reading stdin: %w", readErr)
			}
			outcome, err = d.AnalyzeHandler.Handle(ctx, string(text))
		}
		if err != nil {
			return err
		}

		if flags.jsonOut {
			return writeAnalyzeJSON(out, outcome)
		}

		if outcome.Article != nil && outcome.Article.Title != "" {
			fmt.Fprintln(out, titleStyle.Render(outcome.Article.Title))
		}
		renderResult(out, outcome.Result, outcome.Entry.Signals)
		return nil
	})
}

func writeAnalyzeJSON(w io.Writer, outcome *handlers.AnalysisOutcome) error {
	o := analyzeOutput{
		ID:         outcome.Entry.ID,
		Label:      outcome.Result.Label.String(),
		Confidence: outcome.Result.Confidence,
		Classifier: outcome.Entry.Classifier,
		Signals:    outcome.Entry.Signals,
	}
	if o.Signals == nil {
		o.Signals = []string{}
	}
	if outcome.Article != nil {
		o.URL = outcome.Article.URL
		o.Title = outcome.Article.Title
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(o)
}

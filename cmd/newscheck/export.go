package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ersonp/newscheck/internal/domain/entities"
)

type exportFlags struct {
	format string
	output string
	limit  int
}

type exporter struct {
	format string
	output string
	stdout io.Writer
}

func newExportCmd() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export archived analyses to file",
		Long:  "Exports archived analyses to JSON, CSV, or markdown format.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "json", "Output format (json, csv, markdown)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().IntVarP(&flags.limit, "limit", "l", DefaultExportLimit, "Maximum number of entries to export")

	return cmd
}

func runExport(cmd *cobra.Command, flags exportFlags) error {
	if !slices.Contains(validFormats, flags.format) {
		return fmt.Errorf("invalid format %q, valid formats: %v", flags.format, validFormats)
	}

	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		e := &exporter{
			format: flags.format,
			output: flags.output,
			stdout: cmd.OutOrStdout(),
		}

		entries, err := d.HistoryHandler.List(ctx, flags.limit, 0)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			return fmt.Errorf("no entries found to export")
		}

		return e.export(entries)
	})
}

func (e *exporter) export(entries []entities.HistoryEntry) (err error) {
	var w io.Writer
	var f *os.File

	if e.output != "" {
		f, err = os.OpenFile(e.output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("creating file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing file: %w", cerr)
			}
		}()
		w = f
	} else {
		w = e.stdout
	}

	if err := e.formatEntries(w, entries); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if e.output != "" {
		fmt.Fprintf(e.stdout, "Exported %d entries to %s\n", len(entries), e.output)
	}

	return nil
}

func (e *exporter) formatEntries(w io.Writer, entries []entities.HistoryEntry) error {
	switch e.format {
	case "json":
		return formatJSON(w, entries)
	case "csv":
		return formatCSV(w, entries)
	case "markdown":
		return formatMarkdown(w, entries)
	default:
		return fmt.Errorf("unknown format: %s", e.format)
	}
}

func formatJSON(w io.Writer, entries []entities.HistoryEntry) error {
	type exportEntry struct {
		ID          string   `json:"id"`
		Text        string   `json:"text"`
		Label       string   `json:"label"`
		Confidence  int      `json:"confidence"`
		Classifier  string   `json:"classifier,omitempty"`
		Signals     []string `json:"signals,omitempty"`
		SubmittedAt string   `json:"submitted_at"`
	}

	exportEntries := make([]exportEntry, 0, len(entries))
	for _, e := range entries {
		exportEntries = append(exportEntries, exportEntry{
			ID:          e.ID,
			Text:        e.Text,
			Label:       string(e.Result.Label),
			Confidence:  e.Result.Confidence,
			Classifier:  e.Classifier,
			Signals:     e.Signals,
			SubmittedAt: e.SubmittedAt.UTC().Format(time.RFC3339),
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exportEntries)
}

func formatCSV(w io.Writer, entries []entities.HistoryEntry) error {
	writer := csv.NewWriter(w)

	header := []string{"id", "submitted_at", "label", "confidence", "classifier", "signals", "text"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, e := range entries {
		row := []string{
			e.ID,
			e.SubmittedAt.UTC().Format(time.RFC3339),
			string(e.Result.Label),
			strconv.Itoa(e.Result.Confidence),
			e.Classifier,
			strings.Join(e.Signals, ";"),
			e.Text,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatMarkdown(w io.Writer, entries []entities.HistoryEntry) error {
	if _, err := fmt.Fprintf(w, "# Exported Analyses\n\nTotal: %d entries\n\n", len(entries)); err != nil {
		return err
	}

	if _, err := fmt.Fprint(w, "| Submitted | Label | Confidence | Text |\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "|-----------|-------|------------|------|\n"); err != nil {
		return err
	}

	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "| %s | %s | %d%% | %s |\n",
			e.SubmittedAt.UTC().Format("2006-01-02 15:04"),
			e.Result.Label.String(),
			e.Result.Confidence,
			escapeMarkdown(e.Preview(PreviewLength)),
		); err != nil {
			return err
		}
	}

	return nil
}

func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

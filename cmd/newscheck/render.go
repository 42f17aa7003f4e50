package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ersonp/newscheck/internal/domain/entities"
)

var (
	realColor  = lipgloss.Color("#10B981")
	fakeColor  = lipgloss.Color("#EF4444")
	mutedColor = lipgloss.Color("#6B7280")

	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("#FFFFFF"))

	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)
	titleStyle = lipgloss.NewStyle().Bold(true)
)

func labelColor(label entities.Label) lipgloss.Color {
	if label == entities.LabelFake {
		return fakeColor
	}
	return realColor
}

// badge renders the label as a colored block, or a muted placeholder when unset.
func badge(label entities.Label) string {
	if !label.IsSet() {
		return mutedStyle.Render("no verdict")
	}
	return badgeStyle.Background(labelColor(label)).Render(label.String())
}

// bar renders confidence as a fixed-width gauge followed by the percentage.
func bar(label entities.Label, confidence, width int) string {
	if width <= 0 {
		width = BarWidth
	}
	confidence = max(entities.MinConfidence, min(entities.MaxConfidence, confidence))
	filled := confidence * width / entities.MaxConfidence

	full := lipgloss.NewStyle().Foreground(labelColor(label)).Render(strings.Repeat("█", filled))
	empty := mutedStyle.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s%s %d%%", full, empty, confidence)
}

// renderResult writes the verdict block shown after an analysis.
func renderResult(w io.Writer, result entities.AnalysisResult, signals []string) {
	if result.IsLoading {
		fmt.Fprintln(w, mutedStyle.Render("Analyzing..."))
		return
	}
	if !result.HasVerdict() {
		fmt.Fprintln(w, badge(result.Label))
		return
	}

	fmt.Fprintf(w, "%s  %s\n", badge(result.Label), bar(result.Label, result.Confidence, BarWidth))
	if len(signals) > 0 {
		fmt.Fprintf(w, "%s %s\n", mutedStyle.Render("signals:"), strings.Join(signals, ", "))
	}
}

// renderEntry writes a one-line summary of a history entry.
func renderEntry(w io.Writer, index int, entry entities.HistoryEntry) {
	fmt.Fprintf(w, "%3d. %s %3d%%  %s  %s\n",
		index,
		badge(entry.Result.Label),
		entry.Result.Confidence,
		mutedStyle.Render(entry.SubmittedAt.Local().Format("2006-01-02 15:04")),
		oneLine(entry.Preview(PreviewLength)),
	)
}

// renderHistory writes entries with a heading, or a placeholder when empty.
func renderHistory(w io.Writer, title string, entries []entities.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries.")
		return
	}
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s (%d)", title, len(entries))))
	for i, e := range entries {
		renderEntry(w, i+1, e)
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

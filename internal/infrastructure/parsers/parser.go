// Package parsers reads batches of submissions from text, CSV and JSON files.
package parsers

import (
	"io"
	"path/filepath"
	"strings"
)

// RawSubmission is one text to classify, as read from a batch file.
type RawSubmission struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
	Line int    `json:"-"` // Line or array position in the source (set by parser)
}

// Parser defines the interface for parsing submissions from various formats.
type Parser interface {
	Parse(r io.Reader) ([]RawSubmission, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "txt", "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "txt", "text":
		return &TextParser{}
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.ToLower(filepath.Ext(filename))
	return ForFormat(strings.TrimPrefix(ext, "."))
}

// keep reports whether a parsed text should become a submission.
func keep(text string) bool {
	return strings.TrimSpace(text) != ""
}

package parsers

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxLineSize bounds a single submission line.
const maxLineSize = 1024 * 1024

// TextParser reads one submission per non-empty line. Lines starting with
// '#' are comments.
type TextParser struct{}

// Parse reads lines from the reader and returns the submissions.
func (p *TextParser) Parse(r io.Reader) ([]RawSubmission, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var subs []RawSubmission
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") || !keep(line) {
			continue
		}
		subs = append(subs, RawSubmission{Text: line, Line: lineNum})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", lineNum+1, err)
	}

	return subs, nil
}

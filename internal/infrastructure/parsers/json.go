package parsers

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses submissions from a JSON array of objects or of plain strings.
type JSONParser struct{}

// Parse reads JSON from the reader and returns parsed submissions.
func (p *JSONParser) Parse(r io.Reader) ([]RawSubmission, error) {
	var raw []json.RawMessage

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	subs := make([]RawSubmission, 0, len(raw))
	for i, item := range raw {
		sub, err := decodeItem(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		if !keep(sub.Text) {
			continue
		}
		// Array index + 1, 1-indexed
		sub.Line = i + 1
		subs = append(subs, sub)
	}

	return subs, nil
}

func decodeItem(item json.RawMessage) (RawSubmission, error) {
	var text string
	if err := json.Unmarshal(item, &text); err == nil {
		return RawSubmission{Text: text}, nil
	}

	var sub RawSubmission
	if err := json.Unmarshal(item, &sub); err != nil {
		return RawSubmission{}, fmt.Errorf("expected string or object: %w", err)
	}
	return sub, nil
}

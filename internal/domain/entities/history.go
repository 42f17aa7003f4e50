package entities

import "time"

// HistoryEntry is one completed submission with the result it produced.
// Entries are immutable once appended.
type HistoryEntry struct {
	ID          string         `json:"id"`
	Text        string         `json:"text"`
	SubmittedAt time.Time      `json:"submitted_at"`
	Result      AnalysisResult `json:"result"`
	Classifier  string         `json:"classifier,omitempty"`
	Signals     []string       `json:"signals,omitempty"`
}

// Clone returns a deep copy of the entry.
func (e HistoryEntry) Clone() HistoryEntry {
	if e.Signals != nil {
		e.Signals = append([]string(nil), e.Signals...)
	}
	return e
}

// Preview returns the text truncated to limit runes, with an ellipsis when cut.
func (e HistoryEntry) Preview(limit int) string {
	runes := []rune(e.Text)
	if limit <= 0 || len(runes) <= limit {
		return e.Text
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// SimilarSubmission is an archived entry matched by a similarity lookup.
type SimilarSubmission struct {
	Entry HistoryEntry `json:"entry"`
	Score float32      `json:"score"`
}

// LabelCounts holds the number of archived entries per label.
type LabelCounts struct {
	Real  int `json:"real"`
	Fake  int `json:"fake"`
	Total int `json:"total"`
}

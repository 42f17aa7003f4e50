package entities

import "time"

// Audit actions recorded by the analysis lifecycle.
const (
	ActionAnalysisCompleted = "analysis_completed"
	ActionAnalysisFailed    = "analysis_failed"
	ActionHistoryCleared    = "history_cleared"
	ActionArchiveCleared    = "archive_cleared"
	ActionBatchCompleted    = "batch_completed"
)

// AuditEntry represents a logged action in the system.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Action    string         `json:"action"`
	EntryID   string         `json:"entry_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

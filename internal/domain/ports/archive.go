package ports

import (
	"context"

	"github.com/ersonp/newscheck/internal/domain/entities"
)

// HistoryArchive defines durable storage for completed analyses.
// The in-memory session history lives in the Store; the archive outlives it.
type HistoryArchive interface {
	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// SaveEntry stores a history entry. Saving an existing ID replaces it.
	SaveEntry(ctx context.Context, entry entities.HistoryEntry) error

	// FindEntry retrieves an entry by ID. Returns nil if not found.
	FindEntry(ctx context.Context, id string) (*entities.HistoryEntry, error)

	// ListEntries lists entries, newest first.
	ListEntries(ctx context.Context, limit, offset int) ([]entities.HistoryEntry, error)

	// SearchEntries lists entries whose text contains query, newest first.
	SearchEntries(ctx context.Context, query string, limit int) ([]entities.HistoryEntry, error)

	// CountEntries returns the number of archived entries.
	CountEntries(ctx context.Context) (int, error)

	// CountByLabel returns the number of archived entries per label.
	CountByLabel(ctx context.Context) (entities.LabelCounts, error)

	// DeleteAll removes every archived entry and returns how many were removed.
	DeleteAll(ctx context.Context) (int, error)

	// LogAction logs an action to the audit log.
	LogAction(ctx context.Context, action string, entryID string, details map[string]any) error

	// FindAuditLogByAction finds audit log entries by action type, newest first.
	FindAuditLogByAction(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error)
}

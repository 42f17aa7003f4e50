// Package sqlite provides a SQLite implementation of the HistoryArchive interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/newscheck/internal/domain/entities"
	"github.com/ersonp/newscheck/internal/infrastructure/config"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// Repository implements ports.HistoryArchive using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	if cfg.Path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Every pooled connection to :memory: would see its own empty database
	if cfg.Path == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for concurrent readers while the server writes
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Completed analyses
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		submitted_at TIMESTAMP NOT NULL,
		label TEXT NOT NULL CHECK (label IN ('real', 'fake')),
		confidence INTEGER NOT NULL CHECK (confidence BETWEEN 0 AND 100),
		classifier TEXT NOT NULL DEFAULT '',
		signals TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_analyses_submitted ON analyses(submitted_at);
	CREATE INDEX IF NOT EXISTS idx_analyses_label ON analyses(label);

	-- Audit log (tracks lifecycle actions)
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		entry_id TEXT,
		details TEXT,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_entry ON audit_log(entry_id);
	CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log(action);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// SaveEntry stores a history entry. Saving an existing ID replaces it.
func (r *Repository) SaveEntry(ctx context.Context, entry entities.HistoryEntry) error {
	if entry.ID == "" {
		return errors.New("entry id is required")
	}

	var signals sql.NullString
	if len(entry.Signals) > 0 {
		data, err := json.Marshal(entry.Signals)
		if err != nil {
			return fmt.Errorf("marshaling signals: %w", err)
		}
		signals = sql.NullString{String: string(data), Valid: true}
	}

	query := `
		INSERT INTO analyses (id, text, submitted_at, label, confidence, classifier, signals)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			submitted_at = excluded.submitted_at,
			label = excluded.label,
			confidence = excluded.confidence,
			classifier = excluded.classifier,
			signals = excluded.signals
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.Text,
		entry.SubmittedAt.UTC(),
		string(entry.Result.Label),
		entry.Result.Confidence,
		entry.Classifier,
		signals,
	)
	if err != nil {
		return fmt.Errorf("saving entry: %w", err)
	}
	return nil
}

// FindEntry retrieves an entry by ID. Returns nil if not found.
func (r *Repository) FindEntry(ctx context.Context, id string) (*entities.HistoryEntry, error) {
	query := `
		SELECT id, text, submitted_at, label, confidence, classifier, signals
		FROM analyses
		WHERE id = ?
	`
	entries, err := r.queryEntries(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// ListEntries lists entries, newest first. limit <= 0 means no limit.
func (r *Repository) ListEntries(ctx context.Context, limit, offset int) ([]entities.HistoryEntry, error) {
	query := `
		SELECT id, text, submitted_at, label, confidence, classifier, signals
		FROM analyses
		ORDER BY submitted_at DESC, id ASC
		LIMIT ? OFFSET ?
	`
	return r.queryEntries(ctx, query, sqlLimit(limit), max(offset, 0))
}

// SearchEntries lists entries whose text contains query (case-insensitive), newest first.
func (r *Repository) SearchEntries(ctx context.Context, query string, limit int) ([]entities.HistoryEntry, error) {
	pattern := "%" + escapeLike(query) + "%"
	sqlQuery := `
		SELECT id, text, submitted_at, label, confidence, classifier, signals
		FROM analyses
		WHERE text LIKE ? ESCAPE '\'
		ORDER BY submitted_at DESC, id ASC
		LIMIT ?
	`
	return r.queryEntries(ctx, sqlQuery, pattern, sqlLimit(limit))
}

// CountEntries returns the number of archived entries.
func (r *Repository) CountEntries(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyses`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return count, nil
}

// CountByLabel returns the number of archived entries per label.
func (r *Repository) CountByLabel(ctx context.Context) (entities.LabelCounts, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT label, COUNT(*) FROM analyses GROUP BY label`)
	if err != nil {
		return entities.LabelCounts{}, fmt.Errorf("counting labels: %w", err)
	}
	defer rows.Close()

	var counts entities.LabelCounts
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return entities.LabelCounts{}, fmt.Errorf("scanning label count: %w", err)
		}
		switch entities.Label(label) {
		case entities.LabelReal:
			counts.Real = n
		case entities.LabelFake:
			counts.Fake = n
		}
		counts.Total += n
	}
	return counts, rows.Err()
}

// DeleteAll removes every archived entry and returns how many were removed.
func (r *Repository) DeleteAll(ctx context.Context) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM analyses`)
	if err != nil {
		return 0, fmt.Errorf("deleting entries: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return int(n), nil
}

// queryEntries is a helper to execute analysis queries.
func (r *Repository) queryEntries(ctx context.Context, query string, args ...any) ([]entities.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var result []entities.HistoryEntry
	for rows.Next() {
		var entry entities.HistoryEntry
		var label string
		var signals sql.NullString

		if err := rows.Scan(
			&entry.ID,
			&entry.Text,
			&entry.SubmittedAt,
			&label,
			&entry.Result.Confidence,
			&entry.Classifier,
			&signals,
		); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}

		entry.Result.Label = entities.Label(label)

		if signals.Valid && signals.String != "" {
			if err := json.Unmarshal([]byte(signals.String), &entry.Signals); err != nil {
				return nil, fmt.Errorf("unmarshaling signals: %w", err)
			}
		}

		result = append(result, entry)
	}
	return result, rows.Err()
}

// LogAction logs an action to the audit log.
func (r *Repository) LogAction(ctx context.Context, action string, entryID string, details map[string]any) error {
	var detailsJSON sql.NullString
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshaling details: %w", err)
		}
		detailsJSON = sql.NullString{String: string(data), Valid: true}
	}

	var entryIDPtr sql.NullString
	if entryID != "" {
		entryIDPtr = sql.NullString{String: entryID, Valid: true}
	}

	query := `INSERT INTO audit_log (action, entry_id, details, created_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, action, entryIDPtr, detailsJSON, timeNow().UTC())
	if err != nil {
		return fmt.Errorf("logging action: %w", err)
	}
	return nil
}

// FindAuditLogByAction finds audit log entries by action type, newest first.
func (r *Repository) FindAuditLogByAction(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	query := `
		SELECT id, action, entry_id, details, created_at
		FROM audit_log
		WHERE action = ?
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, action, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []entities.AuditEntry
	for rows.Next() {
		var entry entities.AuditEntry
		var entryID, details sql.NullString

		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&entryID,
			&details,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		entry.EntryID = entryID.String

		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshaling details: %w", err)
			}
		}

		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// sqlLimit maps "no limit" to SQLite's -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

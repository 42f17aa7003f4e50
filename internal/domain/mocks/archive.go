package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/ersonp/newscheck/internal/domain/entities"
)

// HistoryArchive is an in-memory mock implementation of ports.HistoryArchive.
type HistoryArchive struct {
	Err      error
	SaveErr  error
	AuditErr error

	mu      sync.Mutex
	entries map[string]entities.HistoryEntry
	audit   []entities.AuditEntry
}

// NewHistoryArchive creates a new mock HistoryArchive.
func NewHistoryArchive() *HistoryArchive {
	return &HistoryArchive{
		entries: make(map[string]entities.HistoryEntry),
	}
}

// EnsureSchema returns the configured error.
func (m *HistoryArchive) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close does nothing.
func (m *HistoryArchive) Close() error {
	return nil
}

// SaveEntry stores the entry in memory.
func (m *HistoryArchive) SaveEntry(_ context.Context, entry entities.HistoryEntry) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.ID] = entry.Clone()
	return nil
}

// FindEntry returns the entry with the given ID, or nil.
func (m *HistoryArchive) FindEntry(_ context.Context, id string) (*entities.HistoryEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, nil
	}
	clone := e.Clone()
	return &clone, nil
}

// ListEntries returns entries newest first.
func (m *HistoryArchive) ListEntries(_ context.Context, limit, offset int) ([]entities.HistoryEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return page(m.sorted(""), limit, offset), nil
}

// SearchEntries returns entries containing query, newest first.
func (m *HistoryArchive) SearchEntries(_ context.Context, query string, limit int) ([]entities.HistoryEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return page(m.sorted(query), limit, 0), nil
}

// CountEntries returns the number of stored entries.
func (m *HistoryArchive) CountEntries(_ context.Context) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries), nil
}

// CountByLabel counts stored entries per label.
func (m *HistoryArchive) CountByLabel(_ context.Context) (entities.LabelCounts, error) {
	if m.Err != nil {
		return entities.LabelCounts{}, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var counts entities.LabelCounts
	for _, e := range m.entries {
		switch e.Result.Label {
		case entities.LabelReal:
			counts.Real++
		case entities.LabelFake:
			counts.Fake++
		}
		counts.Total++
	}
	return counts, nil
}

// DeleteAll removes every stored entry.
func (m *HistoryArchive) DeleteAll(_ context.Context) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.entries)
	m.entries = make(map[string]entities.HistoryEntry)
	return n, nil
}

// LogAction records the action in memory.
func (m *HistoryArchive) LogAction(_ context.Context, action string, entryID string, details map[string]any) error {
	if m.AuditErr != nil {
		return m.AuditErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, entities.AuditEntry{
		ID:      int64(len(m.audit) + 1),
		Action:  action,
		EntryID: entryID,
		Details: details,
	})
	return nil
}

// FindAuditLogByAction returns recorded actions of the given type, newest first.
func (m *HistoryArchive) FindAuditLogByAction(_ context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entities.AuditEntry
	for i := len(m.audit) - 1; i >= 0; i-- {
		if m.audit[i].Action == action {
			out = append(out, m.audit[i])
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Actions returns every recorded action name in order.
func (m *HistoryArchive) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.audit))
	for i, a := range m.audit {
		out[i] = a.Action
	}
	return out
}

func (m *HistoryArchive) sorted(query string) []entities.HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entities.HistoryEntry, 0, len(m.entries))
	for _, e := range m.entries {
		if query != "" && !strings.Contains(strings.ToLower(e.Text), strings.ToLower(query)) {
			continue
		}
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out
}

func page(entries []entities.HistoryEntry, limit, offset int) []entities.HistoryEntry {
	if offset >= len(entries) {
		return nil
	}
	entries = entries[offset:]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries
}

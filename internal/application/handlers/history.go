package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ersonp/newscheck/internal/domain/entities"
	"github.com/ersonp/newscheck/internal/domain/ports"
	"github.com/ersonp/newscheck/internal/domain/services"
)

// ErrEntryNotFound is returned when an archived entry does not exist.
var ErrEntryNotFound = errors.New("entry not found")

// HistoryHandler provides access to the persistent archive.
type HistoryHandler struct {
	archive    ports.HistoryArchive
	similarity *services.SimilarityService
}

// NewHistoryHandler creates a new history handler. similarity may be nil.
func NewHistoryHandler(archive ports.HistoryArchive, similarity *services.SimilarityService) *HistoryHandler {
	return &HistoryHandler{
		archive:    archive,
		similarity: similarity,
	}
}

// HistoryStats summarizes the archive.
type HistoryStats struct {
	Counts       entities.LabelCounts
	IndexEnabled bool
	Indexed      uint64
	IndexErr     error
	LastCleared  *time.Time
}

// ClearResult reports what a clear removed.
type ClearResult struct {
	Deleted      int
	IndexCleared bool
}

// List returns archived entries, newest first.
func (h *HistoryHandler) List(ctx context.Context, limit, offset int) ([]entities.HistoryEntry, error) {
	entries, err := h.archive.ListEntries(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return entries, nil
}

// Search returns archived entries whose text contains query.
func (h *HistoryHandler) Search(ctx context.Context, query string, limit int) ([]entities.HistoryEntry, error) {
	if query == "" {
		return h.List(ctx, limit, 0)
	}
	entries, err := h.archive.SearchEntries(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching entries: %w", err)
	}
	return entries, nil
}

// Show returns a single archived entry.
func (h *HistoryHandler) Show(ctx context.Context, id string) (*entities.HistoryEntry, error) {
	entry, err := h.archive.FindEntry(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding entry: %w", err)
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return entry, nil
}

// Export returns every archived entry, newest first.
func (h *HistoryHandler) Export(ctx context.Context) ([]entities.HistoryEntry, error) {
	return h.List(ctx, 0, 0)
}

// Stats counts archived entries by label and reports the index size.
// An unreachable index is reported in IndexErr rather than failing.
func (h *HistoryHandler) Stats(ctx context.Context) (*HistoryStats, error) {
	counts, err := h.archive.CountByLabel(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting entries: %w", err)
	}

	stats := &HistoryStats{
		Counts:       counts,
		IndexEnabled: h.similarity.Enabled(),
	}

	if stats.IndexEnabled {
		stats.Indexed, stats.IndexErr = h.similarity.Count(ctx)
	}

	cleared, err := h.archive.FindAuditLogByAction(ctx, entities.ActionArchiveCleared, 1)
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}
	if len(cleared) > 0 {
		stats.LastCleared = &cleared[0].CreatedAt
	}

	return stats, nil
}

// Clear deletes every archived entry and empties the similarity index.
func (h *HistoryHandler) Clear(ctx context.Context) (*ClearResult, error) {
	deleted, err := h.archive.DeleteAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("deleting entries: %w", err)
	}

	result := &ClearResult{Deleted: deleted}

	if h.similarity.Enabled() {
		if err := h.similarity.Clear(ctx); err != nil {
			return result, fmt.Errorf("clearing similarity index: %w", err)
		}
		result.IndexCleared = true
	}

	details := map[string]any{
		"entries":       deleted,
		"index_cleared": result.IndexCleared,
	}
	if err := h.archive.LogAction(ctx, entities.ActionArchiveCleared, "", details); err != nil {
		return result, fmt.Errorf("writing audit log: %w", err)
	}

	return result, nil
}

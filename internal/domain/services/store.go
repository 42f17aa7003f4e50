package services

import (
	"sync"

	"github.com/ersonp/newscheck/internal/domain/entities"
)

// Store holds the current analysis result and the session history.
// Every read returns an independent snapshot; the mutators below are the
// only writers.
type Store struct {
	mu      sync.RWMutex
	current entities.AnalysisResult
	history []entities.HistoryEntry
}

// NewStore creates a store in the unset state with an empty history.
func NewStore() *Store {
	return &Store{
		current: entities.UnsetResult(),
	}
}

// CurrentState returns a snapshot of the current result.
func (s *Store) CurrentState() entities.AnalysisResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// History returns a snapshot of the session history, oldest first.
func (s *Store) History() []entities.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entities.HistoryEntry, len(s.history))
	for i, e := range s.history {
		out[i] = e.Clone()
	}
	return out
}

// HistoryLen returns the number of entries in the session history.
func (s *Store) HistoryLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// SetLoading sets the loading flag, leaving label and confidence untouched.
func (s *Store) SetLoading(loading bool) entities.AnalysisResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.IsLoading = loading
	return s.current
}

// SetResult replaces the current result with a resolved one.
func (s *Store) SetResult(label entities.Label, confidence int) entities.AnalysisResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = entities.AnalysisResult{
		Label:      label,
		Confidence: confidence,
		IsLoading:  false,
	}
	return s.current
}

// Reset restores the unset state. History is not touched.
func (s *Store) Reset() entities.AnalysisResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = entities.UnsetResult()
	return s.current
}

// AppendHistory appends a copy of the entry to the session history.
func (s *Store) AppendHistory(entry entities.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, entry.Clone())
}

// ClearHistory empties the session history. The current result is not touched.
func (s *Store) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

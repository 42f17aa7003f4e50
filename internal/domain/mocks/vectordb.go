package mocks

import (
	"context"
	"sync"

	"github.com/ersonp/newscheck/internal/domain/entities"
)

// VectorDB is a mock implementation of ports.VectorDB and ports.CollectionManager.
type VectorDB struct {
	Results []entities.SimilarSubmission
	Err     error

	EnsureCollectionErr error
	DeleteCollectionErr error

	// Call tracking
	mu                        sync.Mutex
	Saved                     []entities.HistoryEntry
	SavedVectors              [][]float32
	EnsureCollectionCallCount int
	LastVectorSize            uint64
	DeleteCollectionCallCount int
	DeleteAllCallCount        int
}

// EnsureCollection returns the configured error.
func (m *VectorDB) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	m.EnsureCollectionCallCount++
	m.LastVectorSize = vectorSize
	return m.EnsureCollectionErr
}

// DeleteCollection returns the configured error.
func (m *VectorDB) DeleteCollection(ctx context.Context) error {
	m.DeleteCollectionCallCount++
	return m.DeleteCollectionErr
}

// Save records the entry and its embedding.
func (m *VectorDB) Save(ctx context.Context, entry entities.HistoryEntry, embedding []float32) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saved = append(m.Saved, entry)
	m.SavedVectors = append(m.SavedVectors, embedding)
	return nil
}

// Search returns up to limit configured results.
func (m *VectorDB) Search(ctx context.Context, embedding []float32, limit int) ([]entities.SimilarSubmission, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if limit > len(m.Results) {
		return m.Results, nil
	}
	return m.Results[:limit], nil
}

// Count returns the number of saved entries.
func (m *VectorDB) Count(ctx context.Context) (uint64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint64(len(m.Saved)), nil
}

// DeleteAll forgets every saved entry.
func (m *VectorDB) DeleteAll(ctx context.Context) error {
	m.DeleteAllCallCount++
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saved = nil
	m.SavedVectors = nil
	return nil
}

// SavedCount returns how many entries were saved.
func (m *VectorDB) SavedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Saved)
}

// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"sync"

	"github.com/ersonp/newscheck/internal/domain/entities"
)

// Classifier is a mock implementation of ports.Classifier.
// It is safe for concurrent use.
type Classifier struct {
	ClassifierName string
	Verdict        entities.Verdict
	Err            error

	// ErrFor fails only the listed texts.
	ErrFor map[string]error
	// PanicWith makes Classify panic with this value when non-nil.
	PanicWith any
	// Block makes Classify wait until the channel is closed or ctx is done.
	Block chan struct{}

	mu        sync.Mutex
	callCount int
	lastText  string
}

// Name returns the configured name, "mock" by default.
func (m *Classifier) Name() string {
	if m.ClassifierName == "" {
		return "mock"
	}
	return m.ClassifierName
}

// Classify returns the configured verdict or error.
func (m *Classifier) Classify(ctx context.Context, text string) (entities.Verdict, error) {
	m.mu.Lock()
	m.callCount++
	m.lastText = text
	m.mu.Unlock()

	if m.PanicWith != nil {
		panic(m.PanicWith)
	}
	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return entities.Verdict{}, ctx.Err()
		}
	}
	if err, ok := m.ErrFor[text]; ok {
		return entities.Verdict{}, err
	}
	if m.Err != nil {
		return entities.Verdict{}, m.Err
	}
	return m.Verdict, nil
}

// CallCount returns how many times Classify was called.
func (m *Classifier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastText returns the text of the most recent call.
func (m *Classifier) LastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastText
}

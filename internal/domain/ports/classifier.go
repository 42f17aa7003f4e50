// Package ports defines interfaces for external service communication.
package ports

import (
	"context"

	"github.com/ersonp/newscheck/internal/domain/entities"
)

// Classifier maps a text to a verdict.
type Classifier interface {
	// Name identifies the classifier in history entries and logs.
	Name() string

	// Classify returns the label and confidence for the given text.
	Classify(ctx context.Context, text string) (entities.Verdict, error)
}

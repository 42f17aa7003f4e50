package ports

import "context"

// CollectionManager handles vector collection lifecycle operations.
// Kept apart from VectorDB so the similarity index can be used against a
// collection provisioned elsewhere.
type CollectionManager interface {
	// EnsureCollection creates the collection if it doesn't exist.
	EnsureCollection(ctx context.Context, vectorSize uint64) error

	// DeleteCollection removes the collection and all its data.
	DeleteCollection(ctx context.Context) error
}

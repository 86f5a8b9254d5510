package interfaces

import (
	"context"

	"github.com/secmon-lab/leaktrawl/pkg/domain/model"
)

// ScoredEntry pairs a corpus entry with its similarity score for one query
type ScoredEntry struct {
	Entry *model.Entry
	Score float64
}

// EntryRepository defines the interface for the extracted-entry corpus
type EntryRepository interface {
	// Insert stores a new corpus entry
	Insert(ctx context.Context, entry *model.Entry) (*model.Entry, error)

	// FindNearest performs cosine similarity search over entry embeddings.
	// It returns up to limit entries scoring at or above threshold,
	// ordered by descending score. The threshold bound is inclusive.
	FindNearest(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*ScoredEntry, error)

	// ListByGroup retrieves all entries attributed to one actor group
	ListByGroup(ctx context.Context, group string) ([]*model.Entry, error)

	// DistinctGroups returns the distinct actor group values in the corpus
	DistinctGroups(ctx context.Context) ([]string, error)

	// EnsureVectorIndex declares the vector index over the embedding field.
	// The declaration is idempotent; failure must be treated as non-fatal by
	// callers since similarity search degrades but still operates.
	EnsureVectorIndex(ctx context.Context) error
}

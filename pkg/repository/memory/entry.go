package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/secmon-lab/leaktrawl/pkg/domain/interfaces"
	"github.com/secmon-lab/leaktrawl/pkg/domain/model"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type entryRepository struct {
	mu      sync.RWMutex
	entries map[bson.ObjectID]*model.Entry
}

func newEntryRepository() *entryRepository {
	return &entryRepository{
		entries: make(map[bson.ObjectID]*model.Entry),
	}
}

func (r *entryRepository) Insert(ctx context.Context, entry *model.Entry) (*model.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := entry.Clone()
	if created.ID.IsZero() {
		created.ID = bson.NewObjectID()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	r.entries[created.ID] = created
	return created.Clone(), nil
}

func (r *entryRepository) FindNearest(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*interfaces.ScoredEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidates []*interfaces.ScoredEntry
	for _, e := range r.entries {
		if len(e.Embedding) == 0 {
			continue
		}
		s := cosineSimilarity(embedding, e.Embedding)
		if s < threshold {
			continue
		}
		candidates = append(candidates, &interfaces.ScoredEntry{Entry: e.Clone(), Score: s})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	return candidates, nil
}

func (r *entryRepository) ListByGroup(ctx context.Context, group string) ([]*model.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.Entry
	for _, e := range r.entries {
		if e.Group == group {
			result = append(result, e.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

func (r *entryRepository) DistinctGroups(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var groups []string
	for _, e := range r.entries {
		if e.Group == "" || seen[e.Group] {
			continue
		}
		seen[e.Group] = true
		groups = append(groups, e.Group)
	}

	sort.Strings(groups)
	return groups, nil
}

func (r *entryRepository) EnsureVectorIndex(ctx context.Context) error {
	// The in-memory backend scans all entries; there is no index to declare
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}

	return dot / denom
}

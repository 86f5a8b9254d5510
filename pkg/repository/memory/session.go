package memory

import (
	"context"
	"sync"
	"time"

	"github.com/secmon-lab/leaktrawl/pkg/domain/model"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type sessionKey struct {
	url         string
	contentHash string
}

type sessionRepository struct {
	mu      sync.RWMutex
	records map[sessionKey]*model.SessionRecord
}

func newSessionRepository() *sessionRepository {
	return &sessionRepository{
		records: make(map[sessionKey]*model.SessionRecord),
	}
}

func copySession(r *model.SessionRecord) *model.SessionRecord {
	copied := *r
	return &copied
}

func (r *sessionRepository) Find(ctx context.Context, url, contentHash string) (*model.SessionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.records[sessionKey{url: url, contentHash: contentHash}]
	if !exists {
		return nil, nil
	}
	return copySession(record), nil
}

func (r *sessionRepository) Create(ctx context.Context, record *model.SessionRecord) (*model.SessionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copySession(record)
	if created.ID.IsZero() {
		created.ID = bson.NewObjectID()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	r.records[sessionKey{url: created.URL, contentHash: created.ContentHash}] = created
	return copySession(created), nil
}

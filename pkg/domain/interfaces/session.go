package interfaces

import (
	"context"

	"github.com/secmon-lab/leaktrawl/pkg/domain/model"
)

// SessionRepository defines the interface for SessionRecord persistence
type SessionRepository interface {
	// Find looks up the record for a (url, contentHash) pair.
	// It returns nil without error when no record exists.
	Find(ctx context.Context, url, contentHash string) (*model.SessionRecord, error)

	// Create stores a new session record
	Create(ctx context.Context, record *model.SessionRecord) (*model.SessionRecord, error)
}

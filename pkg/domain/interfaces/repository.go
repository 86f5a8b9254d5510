package interfaces

import (
	"context"
)

// Repository defines the interface for data persistence
type Repository interface {
	Session() SessionRepository
	Entry() EntryRepository

	Close(ctx context.Context) error
}

package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/leaktrawl/pkg/domain/interfaces"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = goerr.New("record not found")

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is an in-memory repository implementation used by tests and
// development mode. It mirrors the persistence contract of the mongo
// backend, including inclusive-threshold cosine similarity search.
type Memory struct {
	session *sessionRepository
	entry   *entryRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		session: newSessionRepository(),
		entry:   newEntryRepository(),
	}
}

func (m *Memory) Session() interfaces.SessionRepository {
	return m.session
}

func (m *Memory) Entry() interfaces.EntryRepository {
	return m.entry
}

func (m *Memory) Close(ctx context.Context) error {
	return nil
}

package mongo

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/leaktrawl/pkg/domain/interfaces"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	sessionCollection = "sessions"
	entryCollection   = "entries"
)

// Mongo is the document-store repository backed by MongoDB. Similarity
// search uses an Atlas vector index over the entry embedding field; when
// the index is unavailable the search degrades (see entry.go) but writes
// keep working.
type Mongo struct {
	client  *mongo.Client
	session *sessionRepository
	entry   *entryRepository
}

var _ interfaces.Repository = &Mongo{}

type Option func(*Mongo)

// WithVectorIndexName overrides the default vector search index name
func WithVectorIndexName(name string) Option {
	return func(m *Mongo) {
		m.entry.indexName = name
	}
}

func New(ctx context.Context, uri, database string, opts ...Option) (*Mongo, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to mongodb")
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, goerr.Wrap(err, "failed to ping mongodb", goerr.V("database", database))
	}

	db := client.Database(database)

	m := &Mongo{
		client:  client,
		session: newSessionRepository(db.Collection(sessionCollection)),
		entry:   newEntryRepository(db.Collection(entryCollection)),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

func (m *Mongo) Session() interfaces.SessionRepository {
	return m.session
}

func (m *Mongo) Entry() interfaces.EntryRepository {
	return m.entry
}

func (m *Mongo) Close(ctx context.Context) error {
	if err := m.client.Disconnect(ctx); err != nil {
		return goerr.Wrap(err, "failed to disconnect from mongodb")
	}
	return nil
}

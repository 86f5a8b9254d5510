package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/leaktrawl/pkg/domain/model"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type sessionRepository struct {
	coll *mongo.Collection
}

func newSessionRepository(coll *mongo.Collection) *sessionRepository {
	return &sessionRepository{coll: coll}
}

func (r *sessionRepository) Find(ctx context.Context, url, contentHash string) (*model.SessionRecord, error) {
	filter := bson.M{"url": url, "contentHash": contentHash}

	var record model.SessionRecord
	if err := r.coll.FindOne(ctx, filter).Decode(&record); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to find session record",
			goerr.V("url", url),
			goerr.V("contentHash", contentHash),
		)
	}

	return &record, nil
}

func (r *sessionRepository) Create(ctx context.Context, record *model.SessionRecord) (*model.SessionRecord, error) {
	created := *record
	if created.ID.IsZero() {
		created.ID = bson.NewObjectID()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	if _, err := r.coll.InsertOne(ctx, &created); err != nil {
		return nil, goerr.Wrap(err, "failed to insert session record",
			goerr.V("url", created.URL),
		)
	}

	return &created, nil
}

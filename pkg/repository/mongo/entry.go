package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/leaktrawl/pkg/domain/interfaces"
	"github.com/secmon-lab/leaktrawl/pkg/domain/model"
	"github.com/secmon-lab/leaktrawl/pkg/utils/logging"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const defaultVectorIndexName = "vector_index"

type entryRepository struct {
	coll      *mongo.Collection
	indexName string
}

func newEntryRepository(coll *mongo.Collection) *entryRepository {
	return &entryRepository{
		coll:      coll,
		indexName: defaultVectorIndexName,
	}
}

func (r *entryRepository) Insert(ctx context.Context, entry *model.Entry) (*model.Entry, error) {
	created := entry.Clone()
	if created.ID.IsZero() {
		created.ID = bson.NewObjectID()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	if _, err := r.coll.InsertOne(ctx, created); err != nil {
		return nil, goerr.Wrap(err, "failed to insert entry",
			goerr.V("victim", created.Victim),
		)
	}

	return created, nil
}

// scoredEntryDoc carries the $vectorSearch projection including the
// search score meta field
type scoredEntryDoc struct {
	model.Entry `bson:",inline"`
	Score       float64 `bson:"score"`
}

func (r *entryRepository) FindNearest(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*interfaces.ScoredEntry, error) {
	if limit <= 0 {
		limit = 3
	}

	numCandidates := limit * 10
	if numCandidates > 100 {
		numCandidates = 100
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: r.indexName},
			{Key: "path", Value: "embedding"},
			{Key: "queryVector", Value: embedding},
			{Key: "numCandidates", Value: numCandidates},
			{Key: "limit", Value: limit},
		}}},
		bson.D{{Key: "$addFields", Value: bson.D{
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "score", Value: bson.D{{Key: "$gte", Value: threshold}}},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, goerr.Wrap(err, "vector search failed", goerr.V("index", r.indexName))
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			logging.From(ctx).Warn("failed to close cursor", "error", err.Error())
		}
	}()

	var docs []scoredEntryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, goerr.Wrap(err, "failed to decode vector search results")
	}

	result := make([]*interfaces.ScoredEntry, len(docs))
	for i := range docs {
		entry := docs[i].Entry
		result[i] = &interfaces.ScoredEntry{Entry: &entry, Score: docs[i].Score}
	}

	return result, nil
}

func (r *entryRepository) ListByGroup(ctx context.Context, group string) ([]*model.Entry, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"group": group})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list entries", goerr.V("group", group))
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			logging.From(ctx).Warn("failed to close cursor", "error", err.Error())
		}
	}()

	var entries []*model.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, goerr.Wrap(err, "failed to decode entries")
	}

	return entries, nil
}

func (r *entryRepository) DistinctGroups(ctx context.Context) ([]string, error) {
	var groups []string
	if err := r.coll.Distinct(ctx, "group", bson.M{}).Decode(&groups); err != nil {
		return nil, goerr.Wrap(err, "failed to list distinct groups")
	}
	return groups, nil
}

// EnsureVectorIndex declares the Atlas vector search index over the
// embedding field. The declaration is idempotent: an IndexAlreadyExists
// response is expected on restart and logged at debug level, while any
// other failure (unsupported deployment, permission error) is logged as a
// warning. Both are non-fatal; similarity search degrades and the
// deduplicator falls back to unembedded inserts.
func (r *entryRepository) EnsureVectorIndex(ctx context.Context) error {
	definition := bson.D{{Key: "fields", Value: bson.A{
		bson.D{
			{Key: "type", Value: "vector"},
			{Key: "path", Value: "embedding"},
			{Key: "numDimensions", Value: model.EmbeddingDimension},
			{Key: "similarity", Value: "cosine"},
		},
	}}}

	indexModel := mongo.SearchIndexModel{
		Definition: definition,
		Options: options.SearchIndexes().
			SetName(r.indexName).
			SetType("vectorSearch"),
	}

	logger := logging.From(ctx)

	if _, err := r.coll.SearchIndexes().CreateOne(ctx, indexModel); err != nil {
		if isIndexExistsError(err) {
			logger.Debug("vector index already exists", "index", r.indexName)
			return nil
		}
		logger.Warn("failed to create vector index, similarity search may be degraded",
			"index", r.indexName,
			"error", err.Error(),
		)
		return goerr.Wrap(err, "failed to create vector index", goerr.V("index", r.indexName))
	}

	logger.Info("vector index created", "index", r.indexName)
	return nil
}

func isIndexExistsError(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Name == "IndexAlreadyExists" || cmdErr.Code == 68
	}
	return strings.Contains(err.Error(), "already exists")
}

package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/leaktrawl/pkg/domain/interfaces"
	"github.com/secmon-lab/leaktrawl/pkg/domain/model"
	"github.com/secmon-lab/leaktrawl/pkg/repository/memory"
	"github.com/secmon-lab/leaktrawl/pkg/repository/mongo"
)

// runSessionRepositoryTest exercises the session contract shared by every
// backend: find-absent returns nil without error, create assigns identity
// fields, and lookups key on the (url, hash) pair.
func runSessionRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Find returns nil for unknown pair", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		record, err := repo.Session().Find(ctx, "http://leaks.example", "deadbeef")
		gt.NoError(t, err).Required()
		gt.Value(t, record).Nil()
	})

	t.Run("Create then Find round-trips", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Session().Create(ctx, &model.SessionRecord{
			URL:         "http://leaks.example/posts",
			ContentHash: "cafe01",
		})
		gt.NoError(t, err).Required()
		gt.Value(t, created.ID.IsZero()).Equal(false)
		gt.Value(t, created.CreatedAt.IsZero()).Equal(false)

		found, err := repo.Session().Find(ctx, "http://leaks.example/posts", "cafe01")
		gt.NoError(t, err).Required()
		gt.Value(t, found).NotNil().Required()
		gt.Value(t, found.ContentHash).Equal("cafe01")

		// A different hash for the same URL is a different session
		other, err := repo.Session().Find(ctx, "http://leaks.example/posts", "cafe02")
		gt.NoError(t, err).Required()
		gt.Value(t, other).Nil()
	})
}

// runEntryRepositoryTest exercises the corpus contract shared by every
// backend. Similarity search is backend-specific (the mongo path needs an
// Atlas vector index) and is covered in the memory package tests.
func runEntryRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Insert assigns identity fields", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Entry().Insert(ctx, &model.Entry{
			Victim: "acme corp",
			Group:  "lockbit",
		})
		gt.NoError(t, err).Required()
		gt.Value(t, created.ID.IsZero()).Equal(false)
		gt.Value(t, created.CreatedAt.IsZero()).Equal(false)
	})

	t.Run("ListByGroup filters on actor group", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for _, e := range []*model.Entry{
			{Victim: "acme corp", Group: "lockbit"},
			{Victim: "globex", Group: "lockbit"},
			{Victim: "initech", Group: "alphv"},
		} {
			_, err := repo.Entry().Insert(ctx, e)
			gt.NoError(t, err).Required()
		}

		entries, err := repo.Entry().ListByGroup(ctx, "lockbit")
		gt.NoError(t, err).Required()
		gt.Array(t, entries).Length(2)
	})

	t.Run("DistinctGroups lists each group once", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for _, e := range []*model.Entry{
			{Victim: "acme corp", Group: "lockbit"},
			{Victim: "globex", Group: "lockbit"},
			{Victim: "initech", Group: "alphv"},
		} {
			_, err := repo.Entry().Insert(ctx, e)
			gt.NoError(t, err).Required()
		}

		groups, err := repo.Entry().DistinctGroups(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, groups).Length(2)
	})
}

func TestSessionRepository_Memory(t *testing.T) {
	runSessionRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestEntryRepository_Memory(t *testing.T) {
	runEntryRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func newMongoRepo(t *testing.T) interfaces.Repository {
	t.Helper()

	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI not set")
	}

	database := fmt.Sprintf("leaktrawl_test_%d", time.Now().UnixNano())
	repo, err := mongo.New(context.Background(), uri, database)
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		_ = repo.Close(context.Background())
	})
	return repo
}

func TestSessionRepository_Mongo(t *testing.T) {
	runSessionRepositoryTest(t, newMongoRepo)
}

func TestEntryRepository_Mongo(t *testing.T) {
	runEntryRepositoryTest(t, newMongoRepo)
}

package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/leaktrawl/pkg/domain/interfaces"
	"github.com/secmon-lab/leaktrawl/pkg/repository/memory"
	"github.com/secmon-lab/leaktrawl/pkg/repository/mongo"
	"github.com/secmon-lab/leaktrawl/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Repository holds CLI flags for repository backend configuration
type Repository struct {
	backend         string
	mongoURI        string `masq:"secret"`
	mongoDatabase   string
	vectorIndexName string
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Repository backend type (mongo or memory)",
			Value:       "mongo",
			Sources:     cli.EnvVars("LEAKTRAWL_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "mongo-uri",
			Usage:       "MongoDB connection URI (required when using mongo backend)",
			Sources:     cli.EnvVars("LEAKTRAWL_MONGO_URI"),
			Destination: &r.mongoURI,
		},
		&cli.StringFlag{
			Name:        "mongo-database",
			Usage:       "MongoDB database name",
			Value:       "leaktrawl",
			Sources:     cli.EnvVars("LEAKTRAWL_MONGO_DATABASE"),
			Destination: &r.mongoDatabase,
		},
		&cli.StringFlag{
			Name:        "mongo-vector-index",
			Usage:       "Name of the Atlas vector search index over entry embeddings",
			Value:       "entry_embedding",
			Sources:     cli.EnvVars("LEAKTRAWL_MONGO_VECTOR_INDEX"),
			Destination: &r.vectorIndexName,
		},
	}
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

// Configure initializes and returns a repository based on the configured
// backend. The caller is responsible for calling Close() on the returned
// repository.
func (r *Repository) Configure(ctx context.Context) (interfaces.Repository, error) {
	switch r.backend {
	case "mongo":
		if r.mongoURI == "" {
			return nil, goerr.New("mongo-uri is required when using mongo backend")
		}
		repo, err := mongo.New(ctx, r.mongoURI, r.mongoDatabase,
			mongo.WithVectorIndexName(r.vectorIndexName),
		)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize mongo repository")
		}
		logging.Default().Info("Using MongoDB repository",
			"database", r.mongoDatabase,
			"vector_index", r.vectorIndexName,
		)

		// Similarity search degrades without the index but inserts still
		// work, so a declaration failure is logged, not fatal.
		if err := repo.Entry().EnsureVectorIndex(ctx); err != nil {
			logging.Default().Warn("failed to ensure vector index", "error", err.Error())
		}
		return repo, nil

	case "memory":
		logging.Default().Info("Using in-memory repository (development mode)")
		return memory.New(), nil

	default:
		return nil, goerr.New("invalid repository backend", goerr.V("backend", r.backend))
	}
}

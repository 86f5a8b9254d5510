package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/leaktrawl/pkg/domain/model"
	"github.com/secmon-lab/leaktrawl/pkg/utils/logging"
)

// nearestLimit is how many candidates the similarity search returns; only
// the top match is ever reused, the rest exist for logging.
const nearestLimit = 3

// StoreOrReuse routes one candidate entry through similarity deduplication.
// The candidate is normalized and embedded, then searched against the
// corpus; a match at or above the threshold reuses the existing entry,
// otherwise the candidate is inserted as a new corpus member. When
// embedding or search fails the candidate is inserted without an embedding
// rather than dropped: a duplicate in the corpus is recoverable, a lost
// sighting is not.
func (uc *ExtractUseCase) StoreOrReuse(ctx context.Context, entry *model.Entry) (*model.DedupResult, error) {
	logger := logging.From(ctx)

	entry.Normalize()
	entry.SearchableText = entry.BuildSearchableText()

	embedding, err := uc.gateway.Embed(ctx, entry.SearchableText)
	if err != nil {
		logger.Warn("embedding failed, storing entry without deduplication",
			"victim", entry.Victim,
			"error", err.Error(),
		)
		return uc.insert(ctx, entry)
	}
	entry.Embedding = embedding

	matches, err := uc.repo.Entry().FindNearest(ctx, embedding, nearestLimit, uc.threshold)
	if err != nil {
		logger.Warn("similarity search failed, storing entry without deduplication",
			"victim", entry.Victim,
			"error", err.Error(),
		)
		return uc.insert(ctx, entry)
	}

	if len(matches) > 0 {
		top := matches[0]
		logger.Debug("candidate matched existing entry",
			"victim", entry.Victim,
			"matched", top.Entry.Victim,
			"score", top.Score,
			"candidates", len(matches),
		)
		return &model.DedupResult{
			Stored:     false,
			Entry:      top.Entry,
			Similarity: top.Score,
		}, nil
	}

	return uc.insert(ctx, entry)
}

func (uc *ExtractUseCase) insert(ctx context.Context, entry *model.Entry) (*model.DedupResult, error) {
	stored, err := uc.repo.Entry().Insert(ctx, entry)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert entry", goerr.V("victim", entry.Victim))
	}
	return &model.DedupResult{Stored: true, Entry: stored}, nil
}

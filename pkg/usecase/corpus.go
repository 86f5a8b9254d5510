package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/leaktrawl/pkg/domain/interfaces"
	"github.com/secmon-lab/leaktrawl/pkg/domain/model"
)

// CorpusUseCase exposes read-only queries over the stored corpus
type CorpusUseCase struct {
	repo interfaces.Repository
}

// NewCorpusUseCase creates a new CorpusUseCase instance
func NewCorpusUseCase(repo interfaces.Repository) *CorpusUseCase {
	return &CorpusUseCase{repo: repo}
}

// Groups returns the distinct actor groups observed in the corpus
func (uc *CorpusUseCase) Groups(ctx context.Context) ([]string, error) {
	groups, err := uc.repo.Entry().DistinctGroups(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list actor groups")
	}
	return groups, nil
}

// EntriesByGroup returns all stored entries attributed to one actor group
func (uc *CorpusUseCase) EntriesByGroup(ctx context.Context, group string) ([]*model.Entry, error) {
	if group == "" {
		return nil, goerr.New("group is required")
	}
	entries, err := uc.repo.Entry().ListByGroup(ctx, group)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list entries", goerr.V("group", group))
	}
	return entries, nil
}

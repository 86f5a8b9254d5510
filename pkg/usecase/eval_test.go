package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/leaktrawl/pkg/domain/model"
	"github.com/secmon-lab/leaktrawl/pkg/repository/memory"
	"github.com/secmon-lab/leaktrawl/pkg/usecase"
)

func TestEvaluate(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	for _, e := range []*model.Entry{
		{Victim: "acme corp", Group: "lockbit", Country: "germany", Industry: "manufacturing"},
		{Victim: "globex", Group: "lockbit", Country: "france", Industry: "retail"},
	} {
		_, err := repo.Entry().Insert(ctx, e)
		gt.NoError(t, err).Required()
	}

	truth := []*model.Entry{
		// full match
		{Victim: "ACME Corp", Group: "LockBit", Country: "Germany", Industry: "Manufacturing"},
		// country disagrees with the stored record
		{Victim: "Globex", Group: "lockbit", Country: "spain"},
		// never extracted
		{Victim: "Initech", Group: "lockbit"},
	}

	report, err := usecase.NewEvalUseCase(repo).Evaluate(ctx, truth)
	gt.NoError(t, err).Required()

	gt.Value(t, report.Truth).Equal(3)
	gt.Value(t, report.Found).Equal(2)
	gt.Array(t, report.Missing).Length(1)
	gt.Value(t, report.Missing[0]).Equal("Initech")

	country := report.Fields["country"]
	gt.Value(t, country.Total).Equal(2)
	gt.Value(t, country.Matched).Equal(1)
	gt.Value(t, country.Accuracy()).Equal(0.5)

	industry := report.Fields["industry"]
	gt.Value(t, industry.Total).Equal(1)
	gt.Value(t, industry.Matched).Equal(1)
}

func TestEvaluateDomainAndDateFields(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	_, err := repo.Entry().Insert(ctx, &model.Entry{
		Victim:     "acme corp",
		Group:      "alphv",
		Domain:     "acme.example",
		AttackDate: "2026-08-01 13:45:00",
	})
	gt.NoError(t, err).Required()

	truth := []*model.Entry{{
		Victim:     "Acme Corp",
		Group:      "alphv",
		Domain:     "https://www.acme.example/leaks",
		AttackDate: "2026-08-01",
	}}

	report, err := usecase.NewEvalUseCase(repo).Evaluate(ctx, truth)
	gt.NoError(t, err).Required()

	// Scheme, path and www are stripped before the domain compare
	domain := report.Fields["domain"]
	gt.Value(t, domain.Matched).Equal(1)
	gt.Value(t, domain.Soft()).Equal(1.0)

	// Dates agree at day granularity despite differing precision
	attackDate := report.Fields["attack_date"]
	gt.Value(t, attackDate.Matched).Equal(1)
}

func TestEvaluateSoftSimilarity(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	_, err := repo.Entry().Insert(ctx, &model.Entry{
		Victim:  "acme corp",
		Group:   "alphv",
		Country: "germany",
	})
	gt.NoError(t, err).Required()

	truth := []*model.Entry{{
		Victim:  "Acme Corp",
		Group:   "alphv",
		Country: "germani",
	}}

	report, err := usecase.NewEvalUseCase(repo).Evaluate(ctx, truth)
	gt.NoError(t, err).Required()

	// Not an exact match, but the edit distance of one keeps the soft
	// ratio high
	country := report.Fields["country"]
	gt.Value(t, country.Matched).Equal(0)
	gt.Value(t, country.Total).Equal(1)
	gt.Number(t, country.Soft()).Greater(0.8)
}

func TestEvaluateEmptyTruth(t *testing.T) {
	_, err := usecase.NewEvalUseCase(memory.New()).Evaluate(context.Background(), nil)
	gt.Error(t, err)
}

func TestEvaluateSkipsUnnamedTruth(t *testing.T) {
	report, err := usecase.NewEvalUseCase(memory.New()).Evaluate(context.Background(), []*model.Entry{
		{Group: "lockbit"},
	})
	gt.NoError(t, err).Required()
	gt.Value(t, report.Found).Equal(0)
	gt.Array(t, report.Missing).Length(0)
}

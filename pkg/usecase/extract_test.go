package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/leaktrawl/pkg/domain/model"
	"github.com/secmon-lab/leaktrawl/pkg/repository/memory"
	"github.com/secmon-lab/leaktrawl/pkg/usecase"
)

// stubGateway is a scripted llm.Gateway for use-case tests
type stubGateway struct {
	generateFn     func(ctx context.Context, prompt, systemPrompt string) (string, error)
	generateJSONFn func(ctx context.Context, prompt, systemPrompt string) (string, error)
	embedFn        func(ctx context.Context, text string) ([]float32, error)
	window         int
}

func (g *stubGateway) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	if g.generateFn != nil {
		return g.generateFn(ctx, prompt, systemPrompt)
	}
	return "stub summary", nil
}

func (g *stubGateway) GenerateJSON(ctx context.Context, prompt, systemPrompt string) (string, error) {
	if g.generateJSONFn != nil {
		return g.generateJSONFn(ctx, prompt, systemPrompt)
	}
	return "[]", nil
}

func (g *stubGateway) Embed(ctx context.Context, text string) ([]float32, error) {
	if g.embedFn != nil {
		return g.embedFn(ctx, text)
	}
	return []float32{1, 0}, nil
}

func (g *stubGateway) ContextWindow() int {
	if g.window > 0 {
		return g.window
	}
	return 100_000
}

func (g *stubGateway) Model() string {
	return "stub-model"
}

const victimListHTML = `<html><body>
<h1>Leaked Companies</h1>
<div class="post">ACME Corp - manufacturing - Germany - 300GB</div>
</body></html>`

func TestProcessPageStoresEntries(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	gw := &stubGateway{
		generateJSONFn: func(ctx context.Context, prompt, systemPrompt string) (string, error) {
			return `[{"victim": "ACME Corp", "group": "lockbit", "industry": "manufacturing", "country": "germany"}]`, nil
		},
	}
	ucs := usecase.New(repo, gw)

	stored, err := ucs.Extract.ProcessPage(ctx, "http://leak.example/posts", victimListHTML)
	gt.NoError(t, err).Required()
	gt.Value(t, stored).Equal(true)

	entries, err := repo.Entry().ListByGroup(ctx, "lockbit")
	gt.NoError(t, err).Required()
	gt.Array(t, entries).Length(1)

	e := entries[0]
	gt.Value(t, e.Victim).Equal("acme corp")
	gt.Value(t, e.SearchableText).NotEqual("")
	gt.Value(t, e.Discovered).NotEqual("")
	gt.Value(t, e.PostURL).Equal("http://leak.example/posts")
	gt.Array(t, e.Embedding).Length(2)
}

func TestProcessPageSessionShortCircuit(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	extractCalls := 0
	gw := &stubGateway{
		generateJSONFn: func(ctx context.Context, prompt, systemPrompt string) (string, error) {
			extractCalls++
			return `[{"victim": "ACME Corp", "group": "lockbit"}]`, nil
		},
	}
	ucs := usecase.New(repo, gw)

	first, err := ucs.Extract.ProcessPage(ctx, "http://leak.example/posts", victimListHTML)
	gt.NoError(t, err).Required()
	gt.Value(t, first).Equal(true)

	// identical content on a revisit is skipped without touching the LLM
	second, err := ucs.Extract.ProcessPage(ctx, "http://leak.example/posts", victimListHTML)
	gt.NoError(t, err).Required()
	gt.Value(t, second).Equal(false)
	gt.Value(t, extractCalls).Equal(1)

	// changed content on the same URL is processed again
	third, err := ucs.Extract.ProcessPage(ctx, "http://leak.example/posts", victimListHTML+"<p>new post</p>")
	gt.NoError(t, err).Required()
	gt.Value(t, third).Equal(true)
	gt.Value(t, extractCalls).Equal(2)
}

func TestProcessPageDedupReuse(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	_, err := repo.Entry().Insert(ctx, &model.Entry{
		Victim:    "acme corp",
		Group:     "lockbit",
		Embedding: []float32{1, 0},
	})
	gt.NoError(t, err).Required()

	gw := &stubGateway{
		generateJSONFn: func(ctx context.Context, prompt, systemPrompt string) (string, error) {
			return `[{"victim": "ACME Corporation", "group": "lockbit"}]`, nil
		},
		embedFn: func(ctx context.Context, text string) ([]float32, error) {
			return []float32{1, 0}, nil
		},
	}
	ucs := usecase.New(repo, gw)

	processed, err := ucs.Extract.ProcessPage(ctx, "http://leak.example/posts", victimListHTML)
	gt.NoError(t, err).Required()
	gt.Value(t, processed).Equal(true)

	// the near-duplicate was matched, not inserted
	entries, err := repo.Entry().ListByGroup(ctx, "lockbit")
	gt.NoError(t, err).Required()
	gt.Array(t, entries).Length(1)
	gt.Value(t, entries[0].Victim).Equal("acme corp")
}

func TestStoreOrReuseBelowThreshold(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	_, err := repo.Entry().Insert(ctx, &model.Entry{
		Victim:    "acme corp",
		Group:     "lockbit",
		Embedding: []float32{1, 0},
	})
	gt.NoError(t, err).Required()

	gw := &stubGateway{
		embedFn: func(ctx context.Context, text string) ([]float32, error) {
			// orthogonal to the stored entry, similarity 0
			return []float32{0, 1}, nil
		},
	}
	ucs := usecase.New(repo, gw)

	result, err := ucs.Extract.StoreOrReuse(ctx, &model.Entry{Victim: "Globex", Group: "lockbit"})
	gt.NoError(t, err).Required()
	gt.Value(t, result.Stored).Equal(true)

	entries, err := repo.Entry().ListByGroup(ctx, "lockbit")
	gt.NoError(t, err).Required()
	gt.Array(t, entries).Length(2)
}

func TestStoreOrReuseEmbedFailure(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	gw := &stubGateway{
		embedFn: func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("embedding quota exhausted")
		},
	}
	ucs := usecase.New(repo, gw)

	// the sighting survives even when similarity search is unavailable
	result, err := ucs.Extract.StoreOrReuse(ctx, &model.Entry{Victim: "ACME Corp", Group: "lockbit"})
	gt.NoError(t, err).Required()
	gt.Value(t, result.Stored).Equal(true)
	gt.Array(t, result.Entry.Embedding).Length(0)
}

func TestProcessPageNoCandidates(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	gw := &stubGateway{
		generateJSONFn: func(ctx context.Context, prompt, systemPrompt string) (string, error) {
			return `[]`, nil
		},
	}
	ucs := usecase.New(repo, gw)

	processed, err := ucs.Extract.ProcessPage(ctx, "http://leak.example/empty", "<html><body>About us</body></html>")
	gt.NoError(t, err).Required()
	gt.Value(t, processed).Equal(false)
}

func TestProcessPageSkipsVictimless(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	gw := &stubGateway{
		generateJSONFn: func(ctx context.Context, prompt, systemPrompt string) (string, error) {
			return `[{"group": "lockbit", "description": "countdown banner"}]`, nil
		},
	}
	ucs := usecase.New(repo, gw)

	processed, err := ucs.Extract.ProcessPage(ctx, "http://leak.example/posts", victimListHTML)
	gt.NoError(t, err).Required()
	gt.Value(t, processed).Equal(false)

	groups, err := repo.Entry().DistinctGroups(ctx)
	gt.NoError(t, err).Required()
	gt.Array(t, groups).Length(0)
}

func TestProcessPageRepairsTruncatedOutput(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	gw := &stubGateway{
		generateJSONFn: func(ctx context.Context, prompt, systemPrompt string) (string, error) {
			return `[{"victim": "ACME Corp", "group": "lockbit"}, {"victim": "Glob`, nil
		},
	}
	ucs := usecase.New(repo, gw)

	processed, err := ucs.Extract.ProcessPage(ctx, "http://leak.example/posts", victimListHTML)
	gt.NoError(t, err).Required()
	gt.Value(t, processed).Equal(true)

	entries, err := repo.Entry().ListByGroup(ctx, "lockbit")
	gt.NoError(t, err).Required()
	gt.Array(t, entries).Length(1)
	gt.Value(t, entries[0].Victim).Equal("acme corp")
}

func TestProcessPageDeduplicatesAcrossChunks(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	// A tiny context window forces the page text through multiple
	// overlapping chunks, so the same record is extracted more than once.
	var extractions atomic.Int32
	gw := &stubGateway{
		window: 150,
		generateJSONFn: func(ctx context.Context, prompt, systemPrompt string) (string, error) {
			extractions.Add(1)
			return `[{"victim": "ACME Corp", "group": "lockbit", "country": "germany"}]`, nil
		},
		embedFn: func(ctx context.Context, text string) ([]float32, error) {
			return []float32{1, 0}, nil
		},
	}
	ucs := usecase.New(repo, gw)

	rawHTML := "<html><body>" +
		strings.Repeat(`<div class="post">ACME Corp - manufacturing - Germany - 300GB</div>`+"\n", 8) +
		"</body></html>"

	stored, err := ucs.Extract.ProcessPage(ctx, "http://leak.example/posts", rawHTML)
	gt.NoError(t, err).Required()
	gt.Value(t, stored).Equal(true)
	gt.Number(t, int(extractions.Load())).Greater(1)

	// Every chunk reported the same victim; similarity dedup keeps one
	entries, err := repo.Entry().ListByGroup(ctx, "lockbit")
	gt.NoError(t, err).Required()
	gt.Array(t, entries).Length(1)
	gt.Value(t, entries[0].Victim).Equal("acme corp")
}

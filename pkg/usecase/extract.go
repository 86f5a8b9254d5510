package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"text/template"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/leaktrawl/pkg/domain/interfaces"
	"github.com/secmon-lab/leaktrawl/pkg/domain/model"
	"github.com/secmon-lab/leaktrawl/pkg/service/llm"
	"github.com/secmon-lab/leaktrawl/pkg/utils/chunk"
	"github.com/secmon-lab/leaktrawl/pkg/utils/logging"
	"github.com/secmon-lab/leaktrawl/pkg/utils/normalize"
	"golang.org/x/sync/errgroup"
)

const (
	defaultDedupThreshold     = 0.85
	defaultExtractConcurrency = 2
)

//go:embed prompt/extract_system.md
var extractSystemPrompt string

//go:embed prompt/extract_user.md
var extractUserPromptTmpl string

var extractUserPrompt = template.Must(template.New("extract_user").Parse(extractUserPromptTmpl))

// ExtractUseCase turns raw page markup into deduplicated corpus entries
type ExtractUseCase struct {
	repo        interfaces.Repository
	gateway     llm.Gateway
	threshold   float64
	concurrency int
}

// NewExtractUseCase creates a new ExtractUseCase instance
func NewExtractUseCase(repo interfaces.Repository, gateway llm.Gateway, threshold float64, concurrency int) *ExtractUseCase {
	if threshold <= 0 {
		threshold = defaultDedupThreshold
	}
	if concurrency <= 0 {
		concurrency = defaultExtractConcurrency
	}
	return &ExtractUseCase{
		repo:        repo,
		gateway:     gateway,
		threshold:   threshold,
		concurrency: concurrency,
	}
}

// ProcessPage runs the full extraction pipeline on one page: normalize the
// markup, short-circuit if this exact page content was processed before,
// split into chunks, extract candidate entries from each chunk, and route
// every candidate through the deduplicator. It returns true when at least
// one candidate was stored or matched to an existing entry.
func (uc *ExtractUseCase) ProcessPage(ctx context.Context, pageURL, rawHTML string) (bool, error) {
	logger := logging.From(ctx)

	text := normalize.Text(rawHTML)
	if text == "" {
		logger.Debug("page reduced to empty text, nothing to extract", "url", pageURL)
		return false, nil
	}

	hash := model.NewContentHash(text)
	seen, err := uc.repo.Session().Find(ctx, pageURL, hash)
	if err != nil {
		return false, goerr.Wrap(err, "failed to look up processing session", goerr.V("url", pageURL))
	}
	if seen != nil {
		logger.Info("page content already processed, skipping",
			"url", pageURL,
			"first_seen", seen.CreatedAt,
		)
		return false, nil
	}

	record := &model.SessionRecord{
		URL:         pageURL,
		ContentHash: hash,
		CreatedAt:   time.Now(),
	}
	if _, err := uc.repo.Session().Create(ctx, record); err != nil {
		return false, goerr.Wrap(err, "failed to record processing session", goerr.V("url", pageURL))
	}

	candidates, err := uc.extractEntries(ctx, pageURL, text)
	if err != nil {
		return false, err
	}

	processed := 0
	for _, cand := range candidates {
		if cand.Victim == "" {
			logger.Warn("candidate entry without a victim name, skipped", "url", pageURL)
			continue
		}

		result, err := uc.StoreOrReuse(ctx, cand)
		if err != nil {
			logger.Warn("failed to store candidate entry",
				"victim", cand.Victim,
				"error", err.Error(),
			)
			continue
		}
		processed++

		if result.Stored {
			logger.Info("stored new entry", "victim", result.Entry.Victim, "group", result.Entry.Group)
		} else {
			logger.Info("reused existing entry",
				"victim", result.Entry.Victim,
				"similarity", result.Similarity,
			)
		}
	}

	return processed > 0, nil
}

// extractEntries splits the page text into overlapping chunks sized to the
// model context window and extracts from each chunk concurrently. A chunk
// whose extraction fails is skipped with a warning; the pipeline only fails
// as a whole when the context is cancelled.
func (uc *ExtractUseCase) extractEntries(ctx context.Context, pageURL, text string) ([]*model.Entry, error) {
	size := uc.gateway.ContextWindow() * 2 / 3
	chunks := chunk.Split(text, size)

	logging.From(ctx).Debug("extracting entries",
		"url", pageURL,
		"chunks", len(chunks),
		"chunk_size", size,
	)

	perChunk := make([][]*model.Entry, len(chunks))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(uc.concurrency)
	for i := range chunks {
		eg.Go(func() error {
			entries, err := uc.extractChunk(egCtx, pageURL, chunks, i)
			if err != nil {
				if egCtx.Err() != nil {
					return egCtx.Err()
				}
				logging.From(egCtx).Warn("chunk extraction failed, skipped",
					"url", pageURL,
					"chunk", i,
					"error", err.Error(),
				)
				return nil
			}
			perChunk[i] = entries
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, goerr.Wrap(err, "extraction interrupted", goerr.V("url", pageURL))
	}

	var all []*model.Entry
	for _, entries := range perChunk {
		all = append(all, entries...)
	}
	return all, nil
}

// extractChunk renders one chunk with its static prev/next neighbors as
// context so records straddling a chunk boundary can still be completed.
func (uc *ExtractUseCase) extractChunk(ctx context.Context, pageURL string, chunks []string, idx int) ([]*model.Entry, error) {
	var prev, next string
	if idx > 0 {
		prev = chunks[idx-1]
	}
	if idx < len(chunks)-1 {
		next = chunks[idx+1]
	}

	var buf bytes.Buffer
	err := extractUserPrompt.Execute(&buf, map[string]any{
		"URL":   pageURL,
		"Index": idx + 1,
		"Total": len(chunks),
		"Chunk": chunks[idx],
		"Prev":  prev,
		"Next":  next,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to render extraction prompt")
	}

	raw, err := uc.gateway.GenerateJSON(ctx, buf.String(), extractSystemPrompt)
	if err != nil {
		return nil, goerr.Wrap(err, "extraction request failed", goerr.V("chunk", idx))
	}

	logger := logging.From(ctx)
	today := time.Now().UTC().Format("2006-01-02")

	var entries []*model.Entry
	for _, obj := range llm.ParseOrRepair(ctx, raw) {
		var e model.Entry
		if err := json.Unmarshal(obj, &e); err != nil {
			logger.Warn("malformed candidate entry, skipped",
				"chunk", idx,
				"error", err.Error(),
			)
			continue
		}
		if e.Discovered == "" {
			e.Discovered = today
		}
		if e.Published == "" {
			e.Published = today
		}
		if e.PostURL == "" {
			e.PostURL = pageURL
		}
		entries = append(entries, &e)
	}
	return entries, nil
}

package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/leaktrawl/pkg/domain/model"
	"github.com/secmon-lab/leaktrawl/pkg/utils/chunk"
	"github.com/secmon-lab/leaktrawl/pkg/utils/logging"
	"github.com/secmon-lab/leaktrawl/pkg/utils/normalize"
	"golang.org/x/sync/errgroup"
)

const summarySystemPrompt = `You summarize web pages for an automated monitoring agent.
Describe what the page shows, what interactive elements are visible, and
whether the page lists breach or leak announcements. Be concise and factual.`

const mergeSystemPrompt = `You merge partial summaries of one web page into a single
coherent description. Keep every distinct fact, drop repetition.`

// Sense captures the current page and produces a compact natural-language
// description of it for the planner. Pages that fit within twice the model
// context window are summarized in one call; larger pages are split into
// overlapping chunks, summarized concurrently, and merged with a final
// call.
func (s *Session) Sense(ctx context.Context) (*model.PageState, error) {
	raw, err := s.Content(ctx)
	if err != nil {
		return nil, err
	}
	text := normalize.Text(raw)
	pageURL := s.URL()

	maxLen := s.gateway.ContextWindow() * 2

	var description string
	if len(text) <= maxLen {
		description, err = s.summarize(ctx, text)
	} else {
		description, err = s.summarizeChunked(ctx, text, maxLen)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to describe page", goerr.V("url", pageURL))
	}

	return &model.PageState{
		URL:         pageURL,
		Description: description,
		ContentHash: model.NewContentHash(text),
	}, nil
}

func (s *Session) summarize(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf("Summarize the following page content:\n\n%s", text)
	return s.gateway.Generate(ctx, prompt, summarySystemPrompt)
}

func (s *Session) summarizeChunked(ctx context.Context, text string, maxLen int) (string, error) {
	chunks := chunk.Split(text, maxLen)
	logging.From(ctx).Debug("summarizing oversized page in chunks",
		"chunks", len(chunks),
		"text_len", len(text),
	)

	summaries := make([]string, len(chunks))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		eg.Go(func() error {
			summary, err := s.summarize(egCtx, c)
			if err != nil {
				return goerr.Wrap(err, "failed to summarize chunk", goerr.V("chunk", i))
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return "", err
	}

	prompt := fmt.Sprintf("Merge these partial summaries of one page into a single description:\n\n%s",
		strings.Join(summaries, "\n---\n"))
	return s.gateway.Generate(ctx, prompt, mergeSystemPrompt)
}

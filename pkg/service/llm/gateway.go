package llm

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/leaktrawl/pkg/domain/model"
	"github.com/secmon-lab/leaktrawl/pkg/utils/logging"
)

// contextWindows maps known model identifiers to their approximate context
// budget in characters. Unknown models fall back to defaultContextWindow.
var contextWindows = map[string]int{
	"gemini-2.0-flash": 1_048_576,
	"gemini-2.5-flash": 1_048_576,
	"claude-sonnet-4":  200_000,
	"gpt-4o-mini":      128_000,
	"gpt-4o":           128_000,
	"deepseek-chat":    64_000,
}

const defaultContextWindow = 128_000

const (
	maxAttempts    = 3
	requestTimeout = 180 * time.Second
)

type gateway struct {
	client        gollem.LLMClient
	model         string
	contextWindow int
}

var _ Gateway = &gateway{}

// Option is a functional option for gateway configuration
type Option func(*gateway)

// WithContextWindow overrides the context window resolved from the model
// identifier.
func WithContextWindow(chars int) Option {
	return func(g *gateway) {
		g.contextWindow = chars
	}
}

// New creates a Gateway over the given gollem client. The model identifier
// is resolved to a context-window size used by callers to size chunks.
func New(client gollem.LLMClient, modelID string, opts ...Option) (Gateway, error) {
	if client == nil {
		return nil, goerr.New("LLM client is required")
	}
	if modelID == "" {
		return nil, goerr.New("model identifier is required")
	}

	window, ok := contextWindows[modelID]
	if !ok {
		window = defaultContextWindow
	}

	g := &gateway{
		client:        client,
		model:         modelID,
		contextWindow: window,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

func (g *gateway) Model() string {
	return g.model
}

func (g *gateway) ContextWindow() int {
	return g.contextWindow
}

func (g *gateway) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	return g.generate(ctx, prompt, systemPrompt, false)
}

func (g *gateway) GenerateJSON(ctx context.Context, prompt, systemPrompt string) (string, error) {
	text, err := g.generate(ctx, prompt, systemPrompt, true)
	if err != nil {
		return "", err
	}
	return StripFences(text), nil
}

// generate issues the completion with bounded retries. Transient timeouts
// are retried with linearly increasing backoff (2s, 4s); a definitive
// rejection (auth, quota, malformed request) propagates immediately.
func (g *gateway) generate(ctx context.Context, prompt, systemPrompt string, jsonMode bool) (string, error) {
	logger := logging.From(ctx)

	sessionOpts := []gollem.SessionOption{
		gollem.WithSessionSystemPrompt(systemPrompt),
	}
	if jsonMode {
		sessionOpts = append(sessionOpts, gollem.WithSessionContentType(gollem.ContentTypeJSON))
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, err := g.generateOnce(ctx, prompt, sessionOpts)
		if err == nil {
			return text, nil
		}

		if !isTransient(err) {
			return "", goerr.Wrap(err, "LLM request rejected", goerr.V("model", g.model))
		}

		lastErr = err
		if attempt < maxAttempts {
			backoff := time.Duration(2*attempt) * time.Second
			logger.Warn("LLM request timed out, retrying",
				"model", g.model,
				"attempt", attempt,
				"backoff", backoff.String(),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", goerr.Wrap(ctx.Err(), "LLM request canceled")
			}
		}
	}

	return "", goerr.Wrap(lastErr, "LLM request failed after retries",
		goerr.V("model", g.model),
		goerr.V("attempts", maxAttempts),
	)
}

func (g *gateway) generateOnce(ctx context.Context, prompt string, sessionOpts []gollem.SessionOption) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	session, err := g.client.NewSession(reqCtx, sessionOpts...)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(reqCtx, gollem.Text(prompt))
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Texts) == 0 {
		return "", goerr.New("empty LLM response")
	}

	return strings.TrimSpace(strings.Join(resp.Texts, "\n")), nil
}

func (g *gateway) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := g.client.GenerateEmbedding(ctx, model.EmbeddingDimension, []string{text})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embedding")
	}
	if len(embeddings) == 0 {
		return nil, goerr.New("no embedding returned")
	}

	result := make([]float32, len(embeddings[0]))
	for i, v := range embeddings[0] {
		result[i] = float32(v)
	}
	return result, nil
}

// isTransient reports whether the error is a transient network timeout
// worth retrying. Definitive rejections (HTTP 4xx class: auth, quota,
// malformed request) are not transient.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// StripFences removes Markdown code-fence wrapping (```json ... ``` or
// bare ```) so callers expecting raw structured text can parse the body.
func StripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/claude"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/secmon-lab/leaktrawl/pkg/service/llm"
	"github.com/urfave/cli/v3"
)

// LLM holds CLI flags for the language model gateway
type LLM struct {
	provider string
	model    string

	geminiProject  string
	geminiLocation string

	anthropicAPIKey string
	openaiAPIKey    string

	contextWindow int
}

// Flags returns CLI flags for LLM configuration
func (l *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-provider",
			Usage:       "LLM provider (gemini, claude or openai)",
			Value:       "gemini",
			Sources:     cli.EnvVars("LEAKTRAWL_LLM_PROVIDER"),
			Destination: &l.provider,
		},
		&cli.StringFlag{
			Name:        "llm-model",
			Usage:       "Model identifier for the selected provider",
			Value:       "gemini-2.0-flash",
			Sources:     cli.EnvVars("LEAKTRAWL_LLM_MODEL"),
			Destination: &l.model,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini API",
			Sources:     cli.EnvVars("LEAKTRAWL_GEMINI_PROJECT"),
			Destination: &l.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Value:       "us-central1",
			Sources:     cli.EnvVars("LEAKTRAWL_GEMINI_LOCATION"),
			Destination: &l.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "anthropic-api-key",
			Usage:       "Anthropic API key (claude provider)",
			Sources:     cli.EnvVars("LEAKTRAWL_ANTHROPIC_API_KEY"),
			Destination: &l.anthropicAPIKey,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key (openai provider)",
			Sources:     cli.EnvVars("LEAKTRAWL_OPENAI_API_KEY"),
			Destination: &l.openaiAPIKey,
		},
		&cli.IntFlag{
			Name:        "llm-context-window",
			Usage:       "Override the model context window in characters",
			Sources:     cli.EnvVars("LEAKTRAWL_LLM_CONTEXT_WINDOW"),
			Destination: &l.contextWindow,
		},
	}
}

// LogAttrs returns log attributes for the LLM configuration
func (l *LLM) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("provider", l.provider),
		slog.String("model", l.model),
	}
}

// Model returns the configured model identifier
func (l *LLM) Model() string {
	return l.model
}

// Configure builds the LLM gateway from the configured provider. Extra
// gateway options (e.g. a context window from the TOML config) are applied
// before the flag-based ones, so flags win.
func (l *LLM) Configure(ctx context.Context, extra ...llm.Option) (llm.Gateway, error) {
	client, err := l.newClient(ctx, l.model)
	if err != nil {
		return nil, err
	}

	opts := extra
	if l.contextWindow > 0 {
		opts = append(opts, llm.WithContextWindow(l.contextWindow))
	}
	return llm.New(client, l.model, opts...)
}

// GatewayFor builds a gateway for a model other than the configured default,
// against the same provider credentials. The flag-based context-window
// override does not apply here; it targets the default model.
func (l *LLM) GatewayFor(ctx context.Context, modelID string, extra ...llm.Option) (llm.Gateway, error) {
	client, err := l.newClient(ctx, modelID)
	if err != nil {
		return nil, err
	}
	return llm.New(client, modelID, extra...)
}

func (l *LLM) newClient(ctx context.Context, modelID string) (gollem.LLMClient, error) {
	var client gollem.LLMClient
	var err error

	switch l.provider {
	case "gemini":
		if l.geminiProject == "" {
			return nil, goerr.New("gemini-project is required for the gemini provider")
		}
		client, err = gemini.New(ctx, l.geminiProject, l.geminiLocation, gemini.WithModel(modelID))

	case "claude":
		if l.anthropicAPIKey == "" {
			return nil, goerr.New("anthropic-api-key is required for the claude provider")
		}
		client, err = claude.New(ctx, l.anthropicAPIKey, claude.WithModel(modelID))

	case "openai":
		if l.openaiAPIKey == "" {
			return nil, goerr.New("openai-api-key is required for the openai provider")
		}
		client, err = openai.New(ctx, l.openaiAPIKey, openai.WithModel(modelID))

	default:
		return nil, goerr.New("invalid LLM provider", goerr.V("provider", l.provider))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM client", goerr.V("provider", l.provider))
	}
	return client, nil
}

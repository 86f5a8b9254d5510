package usecase

import (
	"github.com/secmon-lab/leaktrawl/pkg/domain/interfaces"
	"github.com/secmon-lab/leaktrawl/pkg/service/llm"
)

type UseCases struct {
	repo    interfaces.Repository
	gateway llm.Gateway

	Agent   *AgentUseCase
	Extract *ExtractUseCase
	Eval    *EvalUseCase
	Corpus  *CorpusUseCase

	maxSteps       int
	dedupThreshold float64
	concurrency    int
	sessionFactory SessionFactory
	gatewayFactory GatewayFactory
}

type Option func(*UseCases)

// WithMaxSteps caps the number of sense/plan/execute cycles per run
func WithMaxSteps(n int) Option {
	return func(uc *UseCases) {
		if n > 0 {
			uc.maxSteps = n
		}
	}
}

// WithDedupThreshold overrides the similarity bar for entry deduplication
func WithDedupThreshold(t float64) Option {
	return func(uc *UseCases) {
		if t > 0 {
			uc.dedupThreshold = t
		}
	}
}

// WithExtractConcurrency caps concurrent chunk extraction requests
func WithExtractConcurrency(n int) Option {
	return func(uc *UseCases) {
		if n > 0 {
			uc.concurrency = n
		}
	}
}

// WithSessionFactory replaces the browser session constructor, used by the
// agent tests to run the loop without a real browser.
func WithSessionFactory(f SessionFactory) Option {
	return func(uc *UseCases) {
		uc.sessionFactory = f
	}
}

// WithGatewayFactory enables per-run model overrides by supplying a
// constructor for gateways on other models
func WithGatewayFactory(f GatewayFactory) Option {
	return func(uc *UseCases) {
		uc.gatewayFactory = f
	}
}

func New(repo interfaces.Repository, gateway llm.Gateway, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:           repo,
		gateway:        gateway,
		maxSteps:       defaultMaxSteps,
		dedupThreshold: defaultDedupThreshold,
		concurrency:    defaultExtractConcurrency,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Extract = NewExtractUseCase(repo, gateway, uc.dedupThreshold, uc.concurrency)
	uc.Agent = NewAgentUseCase(repo, gateway, uc.Extract, uc.maxSteps, uc.sessionFactory, uc.gatewayFactory)
	uc.Eval = NewEvalUseCase(repo)
	uc.Corpus = NewCorpusUseCase(repo)

	return uc
}

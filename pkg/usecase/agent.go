package usecase

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/leaktrawl/pkg/domain/interfaces"
	"github.com/secmon-lab/leaktrawl/pkg/domain/model"
	"github.com/secmon-lab/leaktrawl/pkg/domain/types"
	"github.com/secmon-lab/leaktrawl/pkg/service/llm"
	"github.com/secmon-lab/leaktrawl/pkg/utils/logging"
)

const defaultMaxSteps = 20

// ErrRunInProgress is returned when a second run is requested while one is
// still active. One agent owns one browser; callers queue runs, they do not
// overlap them.
var ErrRunInProgress = goerr.New("an agent run is already in progress")

// RunInput carries the target and the per-run overrides of one agent run.
// Zero-valued fields fall back to the configured defaults; Headless is a
// pointer so "not specified" and "explicitly false" stay distinguishable.
type RunInput struct {
	URL      string
	Headless *bool
	Model    string
	MaxSteps int
}

// SessionFactory constructs the browser session for one run. The gateway is
// the one the run planner uses, so a per-run model override reaches the
// browser's page sensing too.
type SessionFactory func(ctx context.Context, input RunInput, gateway llm.Gateway) (interfaces.BrowserSession, error)

// GatewayFactory builds a gateway for a model other than the configured
// default. A per-run model override rebuilds the provider client, the same
// credentials with a different model.
type GatewayFactory func(ctx context.Context, modelID string) (llm.Gateway, error)

// AgentUseCase drives the sense/plan/execute loop against one target site
type AgentUseCase struct {
	repo       interfaces.Repository
	gateway    llm.Gateway
	extract    *ExtractUseCase
	maxSteps   int
	newSession SessionFactory
	newGateway GatewayFactory

	running atomic.Bool
}

// NewAgentUseCase creates a new AgentUseCase instance
func NewAgentUseCase(repo interfaces.Repository, gateway llm.Gateway, extract *ExtractUseCase, maxSteps int, factory SessionFactory, gatewayFactory GatewayFactory) *AgentUseCase {
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}
	return &AgentUseCase{
		repo:       repo,
		gateway:    gateway,
		extract:    extract,
		maxSteps:   maxSteps,
		newSession: factory,
		newGateway: gatewayFactory,
	}
}

// Run executes one full agent run: open the target site, then loop
// sensing the page, asking the planner for the next actions, and executing
// them, until the planner emits an empty plan or the step cap is reached.
// The browser is released on every exit path. Only one run may be active
// at a time; a concurrent call fails fast with ErrRunInProgress.
func (uc *AgentUseCase) Run(ctx context.Context, input RunInput) (*model.RunReport, error) {
	if !uc.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer uc.running.Store(false)

	runID := uuid.Must(uuid.NewV7()).String()
	logger := logging.From(ctx).With("run_id", runID)
	report := &model.RunReport{
		RunID:    runID,
		Status:   types.RunStatusError,
		StartURL: input.URL,
	}

	if input.URL == "" {
		return report, goerr.New("start URL is required")
	}
	if uc.newSession == nil {
		return report, goerr.New("no browser session factory configured")
	}

	maxSteps := uc.maxSteps
	if input.MaxSteps > 0 {
		maxSteps = input.MaxSteps
	}

	gateway := uc.gateway
	if input.Model != "" && input.Model != uc.gateway.Model() {
		if uc.newGateway == nil {
			return report, goerr.New("per-run model override is not supported", goerr.V("model", input.Model))
		}
		derived, err := uc.newGateway(ctx, input.Model)
		if err != nil {
			return report, goerr.Wrap(err, "failed to switch model for run", goerr.V("model", input.Model))
		}
		logger.Info("using per-run model override", "model", input.Model)
		gateway = derived
	}

	session, err := uc.newSession(ctx, input, gateway)
	if err != nil {
		return report, goerr.Wrap(err, "failed to open browser session", goerr.V("url", input.URL))
	}
	defer session.Release(ctx)

	var history []model.HistoryEntry

	for step := 1; step <= maxSteps; step++ {
		state, err := session.Sense(ctx)
		if err != nil {
			report.StepsRan = step - 1
			return report, goerr.Wrap(err, "failed to sense page", goerr.V("step", step))
		}

		seen := uc.seenBefore(ctx, state)

		plan, err := uc.plan(ctx, gateway, state, seen, history)
		if err != nil {
			report.StepsRan = step - 1
			return report, goerr.Wrap(err, "failed to plan next actions", goerr.V("step", step))
		}
		if len(plan) == 0 {
			logger.Info("planner emitted empty plan, run complete",
				"step", step,
				"url", state.URL,
			)
			report.Status = types.RunStatusComplete
			report.StepsRan = step - 1
			return report, nil
		}

		logger.Info("executing planned actions",
			"step", step,
			"actions", len(plan),
			"url", state.URL,
		)

		results := session.Execute(ctx, plan)
		history = append(history, model.HistoryEntry{
			URL:     state.URL,
			Results: model.MapResults(plan, results),
		})
		report.StepsRan = step
	}

	logger.Warn("run hit step cap before the planner finished",
		"max_steps", maxSteps,
	)
	report.Status = types.RunStatusComplete
	return report, nil
}

// seenBefore reports whether the sensed page content was processed in an
// earlier run. Lookup failures only degrade the planner context, so they
// are logged and treated as unseen.
func (uc *AgentUseCase) seenBefore(ctx context.Context, state *model.PageState) bool {
	if state.ContentHash == "" {
		return false
	}
	record, err := uc.repo.Session().Find(ctx, state.URL, state.ContentHash)
	if err != nil {
		logging.From(ctx).Warn("failed to look up processing session",
			"url", state.URL,
			"error", err.Error(),
		)
		return false
	}
	return record != nil
}

func (uc *AgentUseCase) plan(ctx context.Context, gateway llm.Gateway, state *model.PageState, seen bool, history []model.HistoryEntry) ([]model.ActionDescriptor, error) {
	prompt, err := BuildPlannerPrompt(state, seen, history)
	if err != nil {
		return nil, err
	}

	raw, err := gateway.GenerateJSON(ctx, prompt, plannerSystemPrompt)
	if err != nil {
		return nil, goerr.Wrap(err, "planner request failed")
	}

	plan, err := model.ParsePlan(raw)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

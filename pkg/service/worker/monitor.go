package worker

import (
	"context"
	"errors"
	"time"

	"github.com/secmon-lab/leaktrawl/pkg/domain/model"
	"github.com/secmon-lab/leaktrawl/pkg/usecase"
	"github.com/secmon-lab/leaktrawl/pkg/utils/errutil"
	"github.com/secmon-lab/leaktrawl/pkg/utils/logging"
)

// AgentRunner runs one autonomous browsing session against a start URL.
type AgentRunner interface {
	Run(ctx context.Context, input usecase.RunInput) (*model.RunReport, error)
}

// MonitorWorker re-crawls a fixed set of leak sites on an interval.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - Sites are visited sequentially; the agent rejects overlapping runs anyway
type MonitorWorker struct {
	runner   AgentRunner
	urls     []string
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewMonitorWorker creates a worker that sweeps the given URLs every interval.
func NewMonitorWorker(runner AgentRunner, urls []string, interval time.Duration) *MonitorWorker {
	return &MonitorWorker{
		runner:   runner,
		urls:     urls,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop
// - Initial sweep and periodic re-sweeps both run in a background goroutine
// - Does not block server startup
func (w *MonitorWorker) Start(ctx context.Context) error {
	logging.Default().Info("monitor worker starting",
		"sites", len(w.urls),
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *MonitorWorker) Stop() {
	logging.Default().Info("monitor worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("monitor worker stopped")
}

// run is the main worker loop (runs in goroutine)
func (w *MonitorWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	// Initial sweep (runs in goroutine, does not block server startup)
	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sweep(ctx)

		case <-w.stopCh:
			logging.Default().Info("monitor worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("monitor worker context cancelled")
			return
		}
	}
}

// sweep runs the agent once for every configured site. A failed site is
// logged and skipped so the remaining sites still get visited this cycle.
func (w *MonitorWorker) sweep(ctx context.Context) {
	startTime := time.Now()
	logging.Default().Info("starting monitor sweep", "sites", len(w.urls))

	for _, url := range w.urls {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		report, err := w.runner.Run(ctx, usecase.RunInput{URL: url})
		if err != nil {
			if errors.Is(err, usecase.ErrRunInProgress) {
				// A manually triggered run is active; pick the site up next cycle
				logging.Default().Warn("agent busy, skipping site this cycle", "url", url)
				continue
			}
			_ = errutil.Handle(ctx, err, "monitor run failed (will retry next interval)")
			continue
		}

		logging.Default().Info("monitor run completed",
			"url", url,
			"status", report.Status,
			"steps", report.StepsRan)
	}

	logging.Default().Info("monitor sweep completed",
		"sites", len(w.urls),
		"duration", time.Since(startTime).String())
}

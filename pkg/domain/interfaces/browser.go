package interfaces

import (
	"context"

	"github.com/secmon-lab/leaktrawl/pkg/domain/model"
)

// BrowserSession is one live browser attached to one target site. The
// agent use case owns its lifecycle: it is created at run start and must be
// released on every exit path.
type BrowserSession interface {
	// Sense reduces the current page to a planner-facing description
	Sense(ctx context.Context) (*model.PageState, error)

	// Execute runs a batch of actions in order, one result per action.
	// A failing action is absorbed into its result and never stops the
	// batch.
	Execute(ctx context.Context, actions []model.ActionDescriptor) []model.ActionResult

	// URL returns the current page URL
	URL() string

	// Release tears the session down. Idempotent.
	Release(ctx context.Context)
}

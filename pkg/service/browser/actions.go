package browser

import (
	"context"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/leaktrawl/pkg/domain/model"
	"github.com/secmon-lab/leaktrawl/pkg/domain/types"
	"github.com/secmon-lab/leaktrawl/pkg/utils/async"
	"github.com/secmon-lab/leaktrawl/pkg/utils/logging"
)

const (
	defaultWaitTimeout = 20 * time.Second
	waitPollInterval   = 250 * time.Millisecond
)

var keyNames = map[string]input.Key{
	"Enter":      input.Enter,
	"Tab":        input.Tab,
	"Escape":     input.Escape,
	"Backspace":  input.Backspace,
	"ArrowUp":    input.ArrowUp,
	"ArrowDown":  input.ArrowDown,
	"ArrowLeft":  input.ArrowLeft,
	"ArrowRight": input.ArrowRight,
	"PageUp":     input.PageUp,
	"PageDown":   input.PageDown,
}

// Execute runs a batch of planned actions in order. A failing action is
// recorded in its own result and never stops the batch; the planner sees
// the failure in the next cycle's history and adjusts.
func (s *Session) Execute(ctx context.Context, actions []model.ActionDescriptor) []model.ActionResult {
	logger := logging.From(ctx)

	results := make([]model.ActionResult, 0, len(actions))
	for _, action := range actions {
		result := s.perform(ctx, action)
		if result.Error != "" {
			logger.Warn("action failed",
				"action", string(action.Type),
				"selector", action.Selector,
				"error", result.Error,
			)
		}
		results = append(results, result)
	}
	return results
}

func (s *Session) perform(ctx context.Context, action model.ActionDescriptor) (result model.ActionResult) {
	defer func() {
		if r := recover(); r != nil {
			result = model.FailedResult(goerr.New("action panicked", goerr.V("panic", r)))
		}
	}()

	if !action.Type.IsValid() {
		return model.FailedResult(goerr.New("unknown action type", goerr.V("type", string(action.Type))))
	}
	if action.Type.NeedsSelector() && action.Selector == "" {
		return model.FailedResult(goerr.New("action requires a selector", goerr.V("type", string(action.Type))))
	}

	switch action.Type {
	case types.ActionClick:
		return s.click(ctx, action.Selector)
	case types.ActionEnterText:
		return s.enterText(ctx, action)
	case types.ActionPressKey:
		return s.pressKey(ctx, action)
	case types.ActionWait:
		return s.waitForUpdate(ctx, action)
	case types.ActionScrollTo:
		return s.scrollTo(ctx, action.Selector)
	case types.ActionExtractHTML:
		return s.extractHTML(ctx, action.Selector)
	case types.ActionGetText:
		return s.getText(ctx, action.Selector)
	case types.ActionHandleDialog:
		return s.handleDialog(ctx, action)
	case types.ActionScrapeAndStore:
		return s.scrapeAndStore(ctx)
	default:
		return model.FailedResult(goerr.New("unhandled action type", goerr.V("type", string(action.Type))))
	}
}

// find looks the selector up without waiting. A missing element is not an
// error: the action reports OK=false so the planner can react.
func (s *Session) find(ctx context.Context, selector string) (*rod.Element, error) {
	has, el, err := s.page.Context(ctx).Has(selector)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query selector", goerr.V("selector", selector))
	}
	if !has {
		return nil, nil
	}
	return el, nil
}

func (s *Session) click(ctx context.Context, selector string) model.ActionResult {
	el, err := s.find(ctx, selector)
	if err != nil {
		return model.FailedResult(err)
	}
	if el == nil {
		return model.ActionResult{OK: false}
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return model.FailedResult(goerr.Wrap(err, "failed to click element", goerr.V("selector", selector)))
	}
	return model.ActionResult{OK: true}
}

func (s *Session) enterText(ctx context.Context, action model.ActionDescriptor) model.ActionResult {
	text, ok := stringParam(action.Params, "text")
	if !ok {
		return model.FailedResult(goerr.New("enter_text requires a text parameter"))
	}

	el, err := s.find(ctx, action.Selector)
	if err != nil {
		return model.FailedResult(err)
	}
	if el == nil {
		return model.ActionResult{OK: false}
	}
	if err := el.SelectAllText(); err != nil {
		return model.FailedResult(goerr.Wrap(err, "failed to select text", goerr.V("selector", action.Selector)))
	}
	if err := el.Input(text); err != nil {
		return model.FailedResult(goerr.Wrap(err, "failed to enter text", goerr.V("selector", action.Selector)))
	}
	return model.ActionResult{OK: true}
}

func (s *Session) pressKey(ctx context.Context, action model.ActionDescriptor) model.ActionResult {
	name, ok := stringParam(action.Params, "key")
	if !ok {
		return model.FailedResult(goerr.New("press_key requires a key parameter"))
	}
	key, ok := keyNames[name]
	if !ok {
		return model.FailedResult(goerr.New("unsupported key", goerr.V("key", name)))
	}

	el, err := s.find(ctx, action.Selector)
	if err != nil {
		return model.FailedResult(err)
	}
	if el == nil {
		return model.ActionResult{OK: false}
	}
	if err := el.Type(key); err != nil {
		return model.FailedResult(goerr.Wrap(err, "failed to press key", goerr.V("key", name)))
	}
	return model.ActionResult{OK: true}
}

// waitForUpdate waits for the element to appear and for its markup to
// change from the first observed snapshot. Unlike the other actions, a
// timeout here is an error: the planner asked for a state transition that
// never happened.
func (s *Session) waitForUpdate(ctx context.Context, action model.ActionDescriptor) model.ActionResult {
	timeout := durationParam(action.Params, "timeout_ms", defaultWaitTimeout)

	deadline := time.Now().Add(timeout)
	page := s.page.Context(ctx).Timeout(timeout)

	el, err := page.Element(action.Selector)
	if err != nil {
		return model.FailedResult(goerr.Wrap(err, "element did not appear",
			goerr.V("selector", action.Selector),
			goerr.V("timeout", timeout.String()),
		))
	}
	initial, err := el.HTML()
	if err != nil {
		return model.FailedResult(goerr.Wrap(err, "failed to snapshot element", goerr.V("selector", action.Selector)))
	}

	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return model.FailedResult(goerr.Wrap(ctx.Err(), "wait cancelled"))
		case <-ticker.C:
		}

		current, err := el.HTML()
		if err == nil && current != initial {
			return model.ActionResult{OK: true}
		}
		if time.Now().After(deadline) {
			return model.FailedResult(goerr.New("element did not update before timeout",
				goerr.V("selector", action.Selector),
				goerr.V("timeout", timeout.String()),
			))
		}
	}
}

func (s *Session) scrollTo(ctx context.Context, selector string) model.ActionResult {
	el, err := s.find(ctx, selector)
	if err != nil {
		return model.FailedResult(err)
	}
	if el == nil {
		return model.ActionResult{OK: false}
	}
	if err := el.ScrollIntoView(); err != nil {
		return model.FailedResult(goerr.Wrap(err, "failed to scroll to element", goerr.V("selector", selector)))
	}
	return model.ActionResult{OK: true}
}

func (s *Session) extractHTML(ctx context.Context, selector string) model.ActionResult {
	el, err := s.find(ctx, selector)
	if err != nil {
		return model.FailedResult(err)
	}
	if el == nil {
		return model.ActionResult{OK: false}
	}
	html, err := el.HTML()
	if err != nil {
		return model.FailedResult(goerr.Wrap(err, "failed to read element markup", goerr.V("selector", selector)))
	}
	return model.ActionResult{OK: true, Value: html}
}

func (s *Session) getText(ctx context.Context, selector string) model.ActionResult {
	el, err := s.find(ctx, selector)
	if err != nil {
		return model.FailedResult(err)
	}
	if el == nil {
		return model.ActionResult{OK: false}
	}
	text, err := el.Text()
	if err != nil {
		return model.FailedResult(goerr.Wrap(err, "failed to read element text", goerr.V("selector", selector)))
	}
	return model.ActionResult{OK: true, Value: text}
}

// handleDialog arms a one-shot handler for the next JavaScript dialog so a
// site's alert or confirm prompt cannot block the run.
func (s *Session) handleDialog(ctx context.Context, action model.ActionDescriptor) model.ActionResult {
	accept := boolParam(action.Params, "accept", true)

	wait, handle := s.page.Context(ctx).HandleDialog()
	async.Dispatch(ctx, func(ctx context.Context) error {
		wait()
		if err := handle(&proto.PageHandleJavaScriptDialog{Accept: accept}); err != nil {
			return goerr.Wrap(err, "failed to handle dialog")
		}
		return nil
	})
	return model.ActionResult{OK: true}
}

func (s *Session) scrapeAndStore(ctx context.Context) model.ActionResult {
	if s.extractor == nil {
		return model.FailedResult(goerr.New("no extractor configured for scrape_and_store"))
	}

	raw, err := s.Content(ctx)
	if err != nil {
		return model.FailedResult(err)
	}
	stored, err := s.extractor(ctx, s.URL(), raw)
	if err != nil {
		return model.FailedResult(goerr.Wrap(err, "extraction pipeline failed"))
	}
	return model.ActionResult{OK: stored}
}

func stringParam(params map[string]any, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func boolParam(params map[string]any, key string, fallback bool) bool {
	v, ok := params[key]
	if !ok {
		return fallback
	}
	b, ok := v.(bool)
	if !ok {
		return fallback
	}
	return b
}

func durationParam(params map[string]any, key string, fallback time.Duration) time.Duration {
	v, ok := params[key]
	if !ok {
		return fallback
	}
	// JSON numbers arrive as float64; the planner specifies milliseconds.
	ms, ok := v.(float64)
	if !ok || ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

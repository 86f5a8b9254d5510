package model

import (
	"encoding/json"

	"github.com/secmon-lab/leaktrawl/pkg/domain/types"
)

// ActionDescriptor is one planner-produced browser interaction. It is
// ephemeral: produced by one planning call and consumed once by the
// dispatcher.
type ActionDescriptor struct {
	Type     types.ActionType `json:"action"`
	Selector string           `json:"selector,omitempty"`
	Params   map[string]any   `json:"params,omitempty"`
}

// Key returns the canonical serialization of the descriptor, used to map
// results back onto descriptors in history. json.Marshal emits struct fields
// in declaration order and map keys sorted, so the key is stable.
//
// Two structurally identical descriptors in one batch collapse onto the same
// key. This mirrors the historical behavior and is kept intentionally; see
// MapResults.
func (a ActionDescriptor) Key() string {
	raw, err := json.Marshal(a)
	if err != nil {
		// Marshal of a map[string]any can only fail on values injected
		// programmatically; fall back to the type name so history stays
		// usable.
		return a.Type.String()
	}
	return string(raw)
}

// ActionResult is the outcome of executing one descriptor: a boolean for
// interaction actions, a string for text-returning actions, or a failure.
type ActionResult struct {
	OK    bool   `json:"ok"`
	Value string `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// FailedResult builds an ActionResult marking a per-action failure
func FailedResult(err error) ActionResult {
	r := ActionResult{OK: false}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// MapResults keys each result by its descriptor's canonical serialization.
// Duplicate descriptors within one batch collapse onto a single key, keeping
// only the later result.
func MapResults(actions []ActionDescriptor, results []ActionResult) map[string]ActionResult {
	mapped := make(map[string]ActionResult, len(actions))
	for i, a := range actions {
		if i >= len(results) {
			break
		}
		mapped[a.Key()] = results[i]
	}
	return mapped
}

package model

import (
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// ParsePlan parses LLM plan output into an ordered action sequence using
// strict JSON only. Non-JSON text yields an empty plan, which terminates the
// agent loop gracefully rather than erroring. A syntactically valid plan
// containing an unknown action name is a typed error: the model referenced
// an action outside the closed set, which the caller should surface rather
// than crash on.
func ParsePlan(raw string) ([]ActionDescriptor, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var plan []ActionDescriptor
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		// A single object is accepted as a one-step plan
		var single ActionDescriptor
		if err2 := json.Unmarshal([]byte(raw), &single); err2 != nil {
			return nil, nil
		}
		plan = []ActionDescriptor{single}
	}

	for _, a := range plan {
		if !a.Type.IsValid() {
			return nil, goerr.New("plan contains unknown action type",
				goerr.V("action", a.Type.String()))
		}
	}

	return plan, nil
}

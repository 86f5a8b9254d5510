package usecase

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/leaktrawl/pkg/domain/model"
)

//go:embed prompt/planner_system.md
var plannerSystemPrompt string

//go:embed prompt/planner_user.md
var plannerUserPromptTmpl string

var plannerUserPrompt = template.Must(template.New("planner_user").Parse(plannerUserPromptTmpl))

// BuildPlannerPrompt renders the planner request for the current page
// state, whether this exact page content was processed before, and the
// accumulated run history. It is a pure function of its inputs: same
// arguments, same prompt.
func BuildPlannerPrompt(state *model.PageState, seen bool, history []model.HistoryEntry) (string, error) {
	if state == nil {
		return "", goerr.New("page state is required to build a planner prompt")
	}

	historyJSON := "[]"
	if len(history) > 0 {
		encoded, err := json.MarshalIndent(history, "", "  ")
		if err != nil {
			return "", goerr.Wrap(err, "failed to encode run history")
		}
		historyJSON = string(encoded)
	}

	var buf bytes.Buffer
	err := plannerUserPrompt.Execute(&buf, map[string]any{
		"URL":         state.URL,
		"Description": state.Description,
		"Seen":        seen,
		"History":     historyJSON,
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to render planner prompt")
	}
	return buf.String(), nil
}

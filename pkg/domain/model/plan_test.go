package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/leaktrawl/pkg/domain/model"
	"github.com/secmon-lab/leaktrawl/pkg/domain/types"
)

func TestParsePlanArray(t *testing.T) {
	raw := `[
		{"action": "click", "selector": "#next"},
		{"action": "scrape_and_store"},
		{"action": "enter_text", "selector": "input[name=q]", "params": {"text": "acme"}}
	]`

	plan, err := model.ParsePlan(raw)
	gt.NoError(t, err).Required()
	gt.Array(t, plan).Length(3)
	gt.Value(t, plan[0].Type).Equal(types.ActionClick)
	gt.Value(t, plan[0].Selector).Equal("#next")
	gt.Value(t, plan[1].Type).Equal(types.ActionScrapeAndStore)
	gt.Value(t, plan[2].Params["text"]).Equal("acme")
}

func TestParsePlanSingleObject(t *testing.T) {
	plan, err := model.ParsePlan(`{"action": "wait", "selector": ".posts"}`)
	gt.NoError(t, err).Required()
	gt.Array(t, plan).Length(1)
	gt.Value(t, plan[0].Type).Equal(types.ActionWait)
}

func TestParsePlanNonJSONTerminates(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"prose", "I think the page has been fully scraped, we are done here."},
		{"empty", ""},
		{"whitespace", "  \n\t "},
		{"fenced", "```json\n[]\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := model.ParsePlan(tt.raw)
			gt.NoError(t, err)
			gt.Array(t, plan).Length(0)
		})
	}
}

func TestParsePlanEmptyArray(t *testing.T) {
	plan, err := model.ParsePlan(`[]`)
	gt.NoError(t, err)
	gt.Array(t, plan).Length(0)
}

func TestParsePlanUnknownAction(t *testing.T) {
	_, err := model.ParsePlan(`[{"action": "teleport", "selector": "#x"}]`)
	gt.Error(t, err)
}

func TestParsePlanMixedKnownUnknown(t *testing.T) {
	// One unknown member poisons the whole plan: a partially understood
	// plan must not be partially executed.
	raw := `[{"action": "click", "selector": "#a"}, {"action": "fly", "selector": "#b"}]`
	_, err := model.ParsePlan(raw)
	gt.Error(t, err)
}

package usecase_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/leaktrawl/pkg/domain/model"
	"github.com/secmon-lab/leaktrawl/pkg/domain/types"
	"github.com/secmon-lab/leaktrawl/pkg/usecase"
)

func TestBuildPlannerPrompt(t *testing.T) {
	state := &model.PageState{
		URL:         "http://leak.example/posts?page=2",
		Description: "Second page of victim listings with 8 posts",
	}
	history := []model.HistoryEntry{
		{
			URL: "http://leak.example/posts",
			Results: map[string]model.ActionResult{
				`{"action":"click","selector":"#next"}`: {OK: true},
			},
		},
	}

	prompt, err := usecase.BuildPlannerPrompt(state, false, history)
	gt.NoError(t, err).Required()

	gt.Value(t, strings.Contains(prompt, state.URL)).Equal(true)
	gt.Value(t, strings.Contains(prompt, state.Description)).Equal(true)
	gt.Value(t, strings.Contains(prompt, "http://leak.example/posts")).Equal(true)
}

func TestBuildPlannerPromptDeterministic(t *testing.T) {
	state := &model.PageState{URL: "http://leak.example", Description: "landing page"}
	history := []model.HistoryEntry{
		{URL: "http://leak.example", Results: map[string]model.ActionResult{
			model.ActionDescriptor{Type: types.ActionClick, Selector: "#a"}.Key(): {OK: true},
			model.ActionDescriptor{Type: types.ActionClick, Selector: "#b"}.Key(): {OK: false},
		}},
	}

	first, err := usecase.BuildPlannerPrompt(state, false, history)
	gt.NoError(t, err).Required()
	second, err := usecase.BuildPlannerPrompt(state, false, history)
	gt.NoError(t, err).Required()
	gt.Value(t, first).Equal(second)
}

func TestBuildPlannerPromptEmptyHistory(t *testing.T) {
	state := &model.PageState{URL: "http://leak.example", Description: "landing page"}

	prompt, err := usecase.BuildPlannerPrompt(state, false, nil)
	gt.NoError(t, err).Required()
	gt.Value(t, strings.Contains(prompt, "[]")).Equal(true)
}

func TestBuildPlannerPromptSeenFlag(t *testing.T) {
	state := &model.PageState{URL: "http://leak.example", Description: "landing page"}

	prompt, err := usecase.BuildPlannerPrompt(state, true, nil)
	gt.NoError(t, err).Required()
	gt.Value(t, strings.Contains(prompt, "already processed in an earlier run: true")).Equal(true)
}

func TestBuildPlannerPromptNilState(t *testing.T) {
	_, err := usecase.BuildPlannerPrompt(nil, false, nil)
	gt.Error(t, err)
}

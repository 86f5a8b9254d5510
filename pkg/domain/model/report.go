package model

import "github.com/secmon-lab/leaktrawl/pkg/domain/types"

// RunReport summarizes one completed agent run
type RunReport struct {
	RunID    string          `json:"run_id"`
	Status   types.RunStatus `json:"status"`
	StepsRan int             `json:"steps_ran"`
	StartURL string          `json:"start_url"`
}

// FieldScore is the per-field tally of an evaluation run. Matched counts
// exact agreements; SoftSum accumulates per-record similarity ratios so the
// mean survives aggregation.
type FieldScore struct {
	Matched int     `json:"matched"`
	Total   int     `json:"total"`
	SoftSum float64 `json:"soft_sum"`
}

// Accuracy returns Matched/Total, or zero for an empty tally
func (s FieldScore) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Matched) / float64(s.Total)
}

// Soft returns the mean soft-similarity ratio, or zero for an empty tally
func (s FieldScore) Soft() float64 {
	if s.Total == 0 {
		return 0
	}
	return s.SoftSum / float64(s.Total)
}

// EvalReport compares the stored corpus against a ground-truth dataset
type EvalReport struct {
	Truth   int                   `json:"truth"`
	Found   int                   `json:"found"`
	Missing []string              `json:"missing,omitempty"`
	Fields  map[string]FieldScore `json:"fields"`
}

package model

// HistoryEntry records the outcome of one executed plan step. History is
// append-only and lives only for the duration of a single agent run; it is
// never persisted.
type HistoryEntry struct {
	URL     string                  `json:"url"`
	Results map[string]ActionResult `json:"results"`
}

// PageState is the sensed state of the current page, reduced to a
// natural-language description for planning. ContentHash identifies the
// normalized page text so the planner can learn whether this exact content
// was processed in an earlier run.
type PageState struct {
	URL         string
	Description string
	ContentHash string
}

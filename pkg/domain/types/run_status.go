package types

// RunStatus represents the terminal state of one agent run
type RunStatus string

const (
	RunStatusComplete RunStatus = "complete"
	RunStatusError    RunStatus = "error"
)

// String returns the string representation of the run status
func (s RunStatus) String() string {
	return string(s)
}

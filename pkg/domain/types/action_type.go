package types

import "fmt"

// ActionType identifies one kind of browser interaction the planner may emit.
// The set is closed: an unknown name is a parse error, not a runtime lookup
// failure.
type ActionType string

const (
	ActionClick          ActionType = "click"
	ActionEnterText      ActionType = "enter_text"
	ActionPressKey       ActionType = "press_key"
	ActionWait           ActionType = "wait"
	ActionScrollTo       ActionType = "scroll_to"
	ActionExtractHTML    ActionType = "extract_html"
	ActionGetText        ActionType = "get_text"
	ActionHandleDialog   ActionType = "handle_dialog"
	ActionScrapeAndStore ActionType = "scrape_and_store"
)

// AllActionTypes returns all valid action types
func AllActionTypes() []ActionType {
	return []ActionType{
		ActionClick,
		ActionEnterText,
		ActionPressKey,
		ActionWait,
		ActionScrollTo,
		ActionExtractHTML,
		ActionGetText,
		ActionHandleDialog,
		ActionScrapeAndStore,
	}
}

// IsValid checks if the action type is a member of the closed set
func (t ActionType) IsValid() bool {
	switch t {
	case ActionClick,
		ActionEnterText,
		ActionPressKey,
		ActionWait,
		ActionScrollTo,
		ActionExtractHTML,
		ActionGetText,
		ActionHandleDialog,
		ActionScrapeAndStore:
		return true
	default:
		return false
	}
}

// String returns the string representation of the action type
func (t ActionType) String() string {
	return string(t)
}

// ParseActionType parses a string into an ActionType
func ParseActionType(s string) (ActionType, error) {
	t := ActionType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid action type: %s", s)
	}
	return t, nil
}

// NeedsSelector reports whether the action type requires a selector argument
func (t ActionType) NeedsSelector() bool {
	switch t {
	case ActionHandleDialog, ActionScrapeAndStore:
		return false
	default:
		return true
	}
}

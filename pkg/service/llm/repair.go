package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/secmon-lab/leaktrawl/pkg/utils/logging"
)

// ParseOrRepair parses LLM output into a list of JSON objects. The primary
// path is a strict parse, with a single object normalized into a one-element
// list. On failure it attempts a best-effort repair of truncated output:
// everything after the last closing brace is discarded (cut-off trailing
// garbage), then the remainder is re-wrapped or re-closed and parsed again.
// Unrepairable text yields an empty list; a skipped chunk is logged by the
// caller, never fatal to the extraction run.
func ParseOrRepair(ctx context.Context, raw string) []json.RawMessage {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if parsed, ok := parseObjects(raw); ok {
		return parsed
	}

	repaired, ok := repairTruncated(raw)
	if !ok {
		logging.From(ctx).Warn("LLM output irrecoverably broken, chunk skipped")
		return nil
	}

	parsed, ok := parseObjects(repaired)
	if !ok {
		logging.From(ctx).Warn("LLM output irrecoverably broken after repair, chunk skipped")
		return nil
	}

	logging.From(ctx).Debug("repaired truncated LLM output")
	return parsed
}

// parseObjects strictly parses either a JSON array of objects or a single
// object (normalized to a one-element list)
func parseObjects(raw string) ([]json.RawMessage, bool) {
	var list []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		return list, true
	}

	var single map[string]any
	if err := json.Unmarshal([]byte(raw), &single); err == nil {
		return []json.RawMessage{json.RawMessage(raw)}, true
	}

	return nil, false
}

// repairTruncated salvages a broken or truncated JSON array by truncating
// at the last complete object and closing the outer bracket if missing
func repairTruncated(raw string) (string, bool) {
	lastBrace := strings.LastIndex(raw, "}")
	if lastBrace == -1 {
		return "", false
	}
	repaired := raw[:lastBrace+1]

	trimmed := strings.TrimSpace(repaired)
	switch {
	case strings.HasPrefix(trimmed, "{"):
		repaired = "[" + repaired + "]"
	case strings.Contains(repaired, "[") && !strings.HasSuffix(trimmed, "]"):
		repaired += "]"
	}

	return repaired, true
}

package browser

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
)

func TestStringParam(t *testing.T) {
	params := map[string]any{"text": "acme", "count": 3}

	v, ok := stringParam(params, "text")
	gt.Value(t, ok).Equal(true)
	gt.Value(t, v).Equal("acme")

	_, ok = stringParam(params, "missing")
	gt.Value(t, ok).Equal(false)

	// wrong type is treated as absent
	_, ok = stringParam(params, "count")
	gt.Value(t, ok).Equal(false)
}

func TestBoolParam(t *testing.T) {
	params := map[string]any{"accept": false, "text": "x"}

	gt.Value(t, boolParam(params, "accept", true)).Equal(false)
	gt.Value(t, boolParam(params, "missing", true)).Equal(true)
	gt.Value(t, boolParam(params, "text", true)).Equal(true)
}

func TestDurationParam(t *testing.T) {
	// JSON decoding produces float64 for all numbers
	params := map[string]any{"timeout_ms": float64(1500), "zero": float64(0), "text": "x"}

	gt.Value(t, durationParam(params, "timeout_ms", time.Second)).Equal(1500 * time.Millisecond)
	gt.Value(t, durationParam(params, "missing", time.Second)).Equal(time.Second)
	gt.Value(t, durationParam(params, "zero", time.Second)).Equal(time.Second)
	gt.Value(t, durationParam(params, "text", time.Second)).Equal(time.Second)
}

func TestKeyNamesCoverCommonKeys(t *testing.T) {
	for _, name := range []string{"Enter", "Tab", "Escape", "ArrowDown"} {
		_, ok := keyNames[name]
		gt.Value(t, ok).Equal(true)
	}
	_, ok := keyNames["HyperShift"]
	gt.Value(t, ok).Equal(false)
}

package llm_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/leaktrawl/pkg/service/llm"
)

func TestParseOrRepairValidArray(t *testing.T) {
	ctx := context.Background()
	raw := `[{"victim": "acme corp"}, {"victim": "globex"}]`

	objs := llm.ParseOrRepair(ctx, raw)
	gt.Array(t, objs).Length(2)

	var first map[string]string
	gt.NoError(t, json.Unmarshal(objs[0], &first))
	gt.Value(t, first["victim"]).Equal("acme corp")
}

func TestParseOrRepairSingleObject(t *testing.T) {
	objs := llm.ParseOrRepair(context.Background(), `{"victim": "acme corp"}`)
	gt.Array(t, objs).Length(1)
}

func TestParseOrRepairTruncatedArray(t *testing.T) {
	// a response cut off mid-object: the complete members survive
	raw := `[{"victim": "acme corp"}, {"victim": "globex"}, {"vict`

	objs := llm.ParseOrRepair(context.Background(), raw)
	gt.Array(t, objs).Length(2)

	var second map[string]string
	gt.NoError(t, json.Unmarshal(objs[1], &second))
	gt.Value(t, second["victim"]).Equal("globex")
}

func TestParseOrRepairMissingBrackets(t *testing.T) {
	raw := `{"victim": "acme corp"}, {"victim": "globex"}`

	objs := llm.ParseOrRepair(context.Background(), raw)
	gt.Array(t, objs).Length(2)
}

func TestParseOrRepairTrailingGarbage(t *testing.T) {
	raw := `[{"victim": "acme corp"}] That is every record I could find.`

	objs := llm.ParseOrRepair(context.Background(), raw)
	gt.Array(t, objs).Length(1)
}

func TestParseOrRepairIrrecoverable(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"prose", "no structured data on this page"},
		{"empty", ""},
		{"whitespace", "  \n "},
		{"no closing brace", `[{"victim": "acme`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Array(t, llm.ParseOrRepair(context.Background(), tt.raw)).Length(0)
		})
	}
}

func TestParseOrRepairIdempotent(t *testing.T) {
	// already-valid output must come back unchanged
	raw := `[{"victim": "acme corp", "group": "lockbit"}]`
	first := llm.ParseOrRepair(context.Background(), raw)
	second := llm.ParseOrRepair(context.Background(), raw)
	gt.Value(t, first).Equal(second)
}

func TestStripFences(t *testing.T) {
	gt.Value(t, llm.StripFences("```json\n[1, 2]\n```")).Equal("[1, 2]")
	gt.Value(t, llm.StripFences("```\n{}\n```")).Equal("{}")
	gt.Value(t, llm.StripFences("[1]")).Equal("[1]")
}

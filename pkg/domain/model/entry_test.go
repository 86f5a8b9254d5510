package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/leaktrawl/pkg/domain/model"
)

func TestEntryNormalize(t *testing.T) {
	e := &model.Entry{Victim: "  ACME Corp  "}
	e.Normalize()
	gt.Value(t, e.Victim).Equal("acme corp")
}

func TestBuildSearchableText(t *testing.T) {
	e := &model.Entry{
		Victim:      "acme corp",
		Group:       "lockbit",
		Industry:    "manufacturing",
		Country:     "germany",
		Description: "claims 300GB of internal data",
	}
	gt.Value(t, e.BuildSearchableText()).
		Equal("acme corp manufacturing germany lockbit claims 300GB of internal data")
}

func TestBuildSearchableTextSkipsEmpty(t *testing.T) {
	e := &model.Entry{Victim: "acme corp", Group: "lockbit"}
	gt.Value(t, e.BuildSearchableText()).Equal("acme corp lockbit")
}

func TestEntryClone(t *testing.T) {
	e := &model.Entry{
		Victim:    "acme corp",
		Embedding: []float32{0.1, 0.2, 0.3},
	}
	c := e.Clone()
	c.Embedding[0] = 0.9
	c.Victim = "other"

	gt.Value(t, e.Embedding[0]).Equal(float32(0.1))
	gt.Value(t, e.Victim).Equal("acme corp")
}

func TestContentHash(t *testing.T) {
	a := model.NewContentHash("victim list page 1")
	b := model.NewContentHash("victim list page 1")
	c := model.NewContentHash("victim list page 2")

	gt.Value(t, a).Equal(b)
	gt.Value(t, a).NotEqual(c)
	// sha256 hex digest
	gt.Value(t, len(a)).Equal(64)
}

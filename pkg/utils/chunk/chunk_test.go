package chunk_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/leaktrawl/pkg/utils/chunk"
)

func TestSplitShortInput(t *testing.T) {
	chunks := chunk.Split("hello", 100)
	gt.Array(t, chunks).Length(1)
	gt.Value(t, chunks[0]).Equal("hello")
}

func TestSplitEmptyInput(t *testing.T) {
	gt.Array(t, chunk.Split("", 100)).Length(0)
	gt.Array(t, chunk.Split("text", 0)).Length(0)
}

func TestSplitOverlap(t *testing.T) {
	text := strings.Repeat("a", 95) + strings.Repeat("b", 95)
	chunks := chunk.Split(text, 100)

	gt.Array(t, chunks).Length(2)
	gt.Value(t, len(chunks[0])).Equal(100)
	// The second window starts at the step offset, so the last 10 bytes of
	// the first chunk reappear at the head of the second.
	gt.Value(t, chunks[1][:10]).Equal(chunks[0][90:])
}

func TestSplitCoversWholeInput(t *testing.T) {
	text := strings.Repeat("0123456789", 100)
	size := 64
	chunks := chunk.Split(text, size)

	step := chunk.Step(size)
	for i, c := range chunks {
		start := i * step
		end := start + len(c)
		gt.Value(t, c).Equal(text[start:end])
	}

	last := chunks[len(chunks)-1]
	gt.Value(t, (len(chunks)-1)*step+len(last)).Equal(len(text))
}

func TestSplitFinalChunkTruncated(t *testing.T) {
	text := strings.Repeat("x", 150)
	chunks := chunk.Split(text, 100)

	gt.Array(t, chunks).Length(2)
	gt.Value(t, len(chunks[0])).Equal(100)
	// step is 90, so the final chunk holds the remaining 60 bytes
	gt.Value(t, len(chunks[1])).Equal(60)
}

func TestSplitDeterministic(t *testing.T) {
	text := strings.Repeat("payload ", 500)
	gt.Value(t, chunk.Split(text, 128)).Equal(chunk.Split(text, 128))
}

func TestStepMinimum(t *testing.T) {
	gt.Value(t, chunk.Step(1)).Equal(1)
	gt.Value(t, chunk.Step(10)).Equal(9)
	gt.Value(t, chunk.Step(100)).Equal(90)
}

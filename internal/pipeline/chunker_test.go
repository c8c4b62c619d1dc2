package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestChunkTextShortTextSingleChunk(t *testing.T) {
	chunks := chunkText("short sentence.", 4000, 200)
	if len(chunks) != 1 || chunks[0] != "short sentence." {
		t.Fatalf("unexpected chunks %q", chunks)
	}
	if got := chunkText("   ", 4000, 200); got != nil {
		t.Fatalf("expected nil for blank text, got %q", got)
	}
}

func TestChunkTextBoundsAndOverlap(t *testing.T) {
	sentence := "The quick brown fox jumps over the lazy dog. "
	text := strings.Repeat(sentence, 250) // well past one chunk

	chunks := chunkText(text, 1000, 100)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 1000 {
			t.Fatalf("chunk %d exceeds size: %d", i, len(c))
		}
	}
	// Overlap carries the tail of each chunk into the next: each chunk
	// starts with the last 100 bytes of its predecessor.
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		if len(prev) < 100 || len(chunks[i]) < 100 {
			continue
		}
		if prev[len(prev)-100:] != chunks[i][:100] {
			t.Fatalf("chunk %d does not overlap its predecessor", i)
		}
	}
	// No text is lost.
	joined := strings.Join(chunks, "")
	for _, word := range []string{"quick", "lazy"} {
		if !strings.Contains(joined, word) {
			t.Fatalf("word %q missing from chunks", word)
		}
	}
}

func TestChunkTextPrefersSentenceBoundary(t *testing.T) {
	// One terminator well past the midpoint of the chunk window.
	text := strings.Repeat("a", 700) + ". " + strings.Repeat("b", 900)
	chunks := chunkText(text, 1000, 0)
	if len(chunks) < 2 {
		t.Fatalf("expected a split, got %d chunks", len(chunks))
	}
	if !strings.HasSuffix(chunks[0], ".") {
		t.Fatalf("expected first chunk to end at the sentence boundary, got tail %q",
			chunks[0][len(chunks[0])-5:])
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("One. Two! Three? Trailing fragment")
	want := []string{"One.", "Two!", "Three?", "Trailing fragment"}
	if len(got) != len(want) {
		t.Fatalf("got %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sentence %d: got %q want %q", i, got[i], want[i])
		}
	}
}

type scriptedGen struct {
	calls   int
	fail    map[int]error // 1-based call index to error
	outputs map[int]string
}

func (g *scriptedGen) ClassifyLabel(ctx context.Context, text string) (string, error) {
	return "", errors.New("not used")
}

func (g *scriptedGen) Summarize(ctx context.Context, prompt string) (string, error) {
	g.calls++
	if err, ok := g.fail[g.calls]; ok {
		return "", err
	}
	if out, ok := g.outputs[g.calls]; ok {
		return out, nil
	}
	return "summary " + prompt[:20], nil
}

func TestSummarizeShortTextSingleCall(t *testing.T) {
	gen := &scriptedGen{outputs: map[int]string{1: "one call"}}
	out := summarize(context.Background(), gen, "A short document.")
	if out != "one call" {
		t.Fatalf("got %q", out)
	}
	if gen.calls != 1 {
		t.Fatalf("expected 1 call, got %d", gen.calls)
	}
}

func TestSummarizeLongTextChunksAndMerges(t *testing.T) {
	text := strings.Repeat("Sentence number one about the contract. ", 300)
	if len(text) <= singleCallLimit {
		t.Fatal("test text must exceed the single-call limit")
	}
	gen := &scriptedGen{outputs: map[int]string{}}
	out := summarize(context.Background(), gen, text)
	if out == "" {
		t.Fatal("expected a summary")
	}
	// At least two chunk calls plus one merge.
	if gen.calls < 3 {
		t.Fatalf("expected chunk calls plus a merge, got %d calls", gen.calls)
	}
}

func TestSummarizeChunkFailureFallsBackExtractive(t *testing.T) {
	text := strings.Repeat("First point here. Second point there. ", 300)
	gen := &scriptedGen{
		fail:    map[int]error{1: errors.New("model down")},
		outputs: map[int]string{},
	}
	out := summarize(context.Background(), gen, text)
	if out == "" {
		t.Fatal("expected degraded summary, not empty")
	}
}

func TestSummarizeMergeFailureJoinsPartials(t *testing.T) {
	text := strings.Repeat("Alpha beta gamma delta epsilon zeta. ", 300)
	gen := &scriptedGen{
		outputs: map[int]string{1: "part one", 2: "part two", 3: "part three"},
		fail:    map[int]error{},
	}
	// Fail only the final merge call. Chunk count for this text at
	// chunkSize 4000 is 3, so call 4 is the merge.
	chunks := chunkText(strings.TrimSpace(text), chunkSize, chunkOverlap)
	gen.fail[len(chunks)+1] = errors.New("merge failed")

	out := summarize(context.Background(), gen, text)
	if !strings.Contains(out, "\n") {
		t.Fatalf("expected joined partials, got %q", out)
	}
	if !strings.Contains(out, "part one") {
		t.Fatalf("partials missing from output: %q", out)
	}
}

func TestSummarizeAllFailuresStillReturnsText(t *testing.T) {
	gen := &scriptedGen{fail: map[int]error{1: errors.New("down")}}
	out := summarize(context.Background(), gen, "First sentence. Second sentence. Third sentence. Fourth sentence.")
	if !strings.HasPrefix(out, "First sentence.") {
		t.Fatalf("expected extractive fallback, got %q", out)
	}
	if strings.Contains(out, "Fourth") {
		t.Fatalf("extractive fallback should cap sentences, got %q", out)
	}
}

package pipeline

import "strings"

const (
	// singleCallLimit is the largest text summarized in one model call.
	singleCallLimit = 8000
	// chunkSize is the target chunk length for long documents.
	chunkSize = 4000
	// chunkOverlap carries trailing context into the next chunk.
	chunkOverlap = 200
)

// chunkText splits text into size-bounded pieces, preferring sentence
// boundaries near the end of each chunk and overlapping adjacent chunks so
// sentences cut mid-chunk still appear whole somewhere.
func chunkText(text string, size, overlap int) []string {
	if size <= 0 {
		size = chunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	if len(text) <= size {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}

		cut := end
		if idx := lastSentenceEnd(text[start:end]); idx > size/2 {
			cut = start + idx
		}
		chunks = append(chunks, text[start:cut])

		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

// lastSentenceEnd returns the index just past the last sentence terminator,
// or -1 when none is found.
func lastSentenceEnd(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case '.', '!', '?', '\n':
			return i + 1
		}
	}
	return -1
}

// splitSentences naively splits text on sentence terminators, used by the
// extractive fallback.
func splitSentences(text string) []string {
	var out []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(b.String()); s != "" {
				out = append(out, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		out = append(out, s)
	}
	return out
}

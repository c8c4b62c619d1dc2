package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docclassifier-backend/internal/llm"
	"docclassifier-backend/internal/shared/telemetry"
)

const extractiveSentences = 3

// summarize produces a summary of text. Short texts go to the model in one
// call; long texts are chunked, summarized per chunk, and merged. Every
// model failure degrades instead of aborting: token-limited or failed chunks
// fall back to extractive summaries, and a failed merge returns the joined
// partials.
func summarize(ctx context.Context, gen llm.Client, text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}

	if len(trimmed) <= singleCallLimit {
		out, err := gen.Summarize(ctx, buildSummaryPrompt(trimmed))
		if err == nil {
			return out
		}
		logSummaryFallback("single", err)
		return extractiveSummary(trimmed)
	}

	chunks := chunkText(trimmed, chunkSize, chunkOverlap)
	partials := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		out, err := gen.Summarize(ctx, buildChunkPrompt(chunk, i+1, len(chunks)))
		if err != nil {
			logSummaryFallback(fmt.Sprintf("chunk_%d", i+1), err)
			out = extractiveSummary(chunk)
		}
		if strings.TrimSpace(out) != "" {
			partials = append(partials, strings.TrimSpace(out))
		}
	}
	if len(partials) == 0 {
		return extractiveSummary(trimmed)
	}
	if len(partials) == 1 {
		return partials[0]
	}

	joined := strings.Join(partials, "\n")
	merged, err := gen.Summarize(ctx, buildMergePrompt(joined))
	if err != nil {
		logSummaryFallback("merge", err)
		return joined
	}
	return merged
}

// extractiveSummary returns the first few sentences of the text, used when
// the generative path is unavailable.
func extractiveSummary(text string) string {
	sentences := splitSentences(text)
	if len(sentences) > extractiveSentences {
		sentences = sentences[:extractiveSentences]
	}
	return strings.Join(sentences, " ")
}

func buildSummaryPrompt(text string) string {
	return "Summarize the following document in a short paragraph. Keep names, dates, and amounts.\n\n" + text
}

func buildChunkPrompt(chunk string, index, total int) string {
	return fmt.Sprintf(
		"This is part %d of %d of a longer document. Summarize only this part in 2-3 sentences. Keep names, dates, and amounts.\n\n%s",
		index, total, chunk)
}

func buildMergePrompt(partials string) string {
	return "The following are partial summaries of consecutive parts of one document. Merge them into a single coherent summary paragraph.\n\n" + partials
}

func logSummaryFallback(stage string, err error) {
	fields := map[string]any{"stage": stage, "error": err.Error()}
	if errors.Is(err, llm.ErrTokenLimit) {
		fields["token_limit"] = true
	}
	telemetry.Info("summarize.fallback", fields)
}

package llm

import (
	"context"
	"errors"
)

// Client abstracts the generative model used for low-confidence label
// override and summarization.
type Client interface {
	// ClassifyLabel asks the model to pick exactly one label from the
	// allowed set. The returned string is raw model output; callers must
	// coerce it against the set before trusting it.
	ClassifyLabel(ctx context.Context, text string) (string, error)
	// Summarize generates text for an arbitrary prompt.
	Summarize(ctx context.Context, prompt string) (string, error)
}

// ErrTokenLimit indicates the model stopped because the output hit its token
// budget. Summarization falls back to extractive mode on this error.
var ErrTokenLimit = errors.New("model output hit token limit")

// ErrNoCredential indicates no generative credential is configured; the
// override and generative summarization paths are skipped.
var ErrNoCredential = errors.New("no generative credential configured")

// PlaceholderClient is used when no credential is configured.
type PlaceholderClient struct{}

func (PlaceholderClient) ClassifyLabel(ctx context.Context, text string) (string, error) {
	return "", ErrNoCredential
}

func (PlaceholderClient) Summarize(ctx context.Context, prompt string) (string, error) {
	return "", ErrNoCredential
}

var _ Client = PlaceholderClient{}

package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"docclassifier-backend/internal/llm"
	"docclassifier-backend/internal/shared/telemetry"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client implements llm.Client against the Gemini generateContent API.
type Client struct {
	model      string
	baseURL    string
	tokens     oauth2.TokenSource
	httpClient *http.Client
}

// NewClient constructs a Gemini client. The token source supplies the bearer
// credential; use oauth2.StaticTokenSource for a plain API token.
func NewClient(model string, tokens oauth2.TokenSource) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("GEMINI_MODEL is required")
	}
	if tokens == nil {
		return nil, llm.ErrNoCredential
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("GEMINI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		model:   model,
		baseURL: defaultBaseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generateRequest struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature float32 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content      generateContent `json:"content"`
		FinishReason string          `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// ClassifyLabel asks for exactly one label from the allowed set as compact
// JSON. The raw label string is returned for the caller to coerce.
func (c *Client) ClassifyLabel(ctx context.Context, text string) (string, error) {
	prompt := buildClassifyPrompt(text)
	raw, err := c.generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	// The model is asked for {"label": ..., "reason": ...}; tolerate prose
	// around the JSON.
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		var parsed struct {
			Label  string `json:"label"`
			Reason string `json:"reason"`
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err == nil && parsed.Label != "" {
			return parsed.Label, nil
		}
	}
	return strings.TrimSpace(raw), nil
}

// Summarize generates text for the given prompt.
func (c *Client) Summarize(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt)
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []generateContent{
			{Parts: []generatePart{{Text: prompt}}},
		},
		GenerationConfig: &generationConfig{Temperature: 0},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	token, err := c.tokens.Token()
	if err != nil {
		return "", fmt.Errorf("gemini credential: %w", err)
	}
	token.SetAuthHeader(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("gemini request timeout: %w", err)
		}
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("gemini response parse: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("gemini error: %s (%s)", parsed.Error.Message, parsed.Error.Status)
	}
	if len(parsed.Candidates) == 0 {
		return "", fmt.Errorf("gemini response missing candidates")
	}

	candidate := parsed.Candidates[0]
	if strings.EqualFold(candidate.FinishReason, "MAX_TOKENS") {
		telemetry.Info("gemini.token_limit", map[string]any{"model": c.model})
		return "", llm.ErrTokenLimit
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		b.WriteString(part.Text)
	}
	content := strings.TrimSpace(b.String())
	if content == "" {
		return "", fmt.Errorf("gemini response empty content")
	}
	return content, nil
}

func buildClassifyPrompt(text string) string {
	var b strings.Builder
	b.WriteString("You are a legal document classifier. Pick exactly one label for the document below from this set: ")
	b.WriteString(strings.Join(llm.AllowedLabels, ", "))
	b.WriteString(`. Reply with compact JSON only: {"label": "<label>", "reason": "<one sentence>"}.`)
	b.WriteString("\n\nDocument:\n")
	b.WriteString(text)
	return b.String()
}

var _ llm.Client = (*Client)(nil)

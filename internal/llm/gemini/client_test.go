package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"docclassifier-backend/internal/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient("gemini-2.5-flash", oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"}))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	client.baseURL = server.URL
	return client
}

func TestClassifyLabelParsesJSONReply(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected auth header %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{
					"content": map[string]any{
						"parts": []map[string]any{
							{"text": `Here you go: {"label": "Invoice", "reason": "mentions amounts due"}`},
						},
					},
					"finishReason": "STOP",
				},
			},
		})
	})

	label, err := client.ClassifyLabel(context.Background(), "pay 500 by March")
	if err != nil {
		t.Fatalf("ClassifyLabel: %v", err)
	}
	if label != "Invoice" {
		t.Fatalf("expected Invoice, got %q", label)
	}
}

func TestSummarizeJoinsParts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{
					"content": map[string]any{
						"parts": []map[string]any{
							{"text": "First part. "},
							{"text": "Second part."},
						},
					},
					"finishReason": "STOP",
				},
			},
		})
	})

	got, err := client.Summarize(context.Background(), "summarize this")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "First part. Second part." {
		t.Fatalf("unexpected summary: %q", got)
	}
}

func TestSummarizeTokenLimit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{
					"content":      map[string]any{"parts": []map[string]any{{"text": "trunc"}}},
					"finishReason": "MAX_TOKENS",
				},
			},
		})
	})

	_, err := client.Summarize(context.Background(), "summarize this")
	if !errors.Is(err, llm.ErrTokenLimit) {
		t.Fatalf("expected ErrTokenLimit, got %v", err)
	}
}

func TestGenerateSurfacesAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 403, "message": "permission denied", "status": "PERMISSION_DENIED"},
		})
	})

	_, err := client.Summarize(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "permission denied") {
		t.Fatalf("expected API error surfaced, got %v", err)
	}
}

package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.sh")
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestRunnerParsesJSONWithSurroundingNoise(t *testing.T) {
	script := writeScript(t, `#!/bin/sh
cat > /dev/null
echo "loading model..."
echo '{"prediction": "Invoice", "confidence": 0.92}'
echo "done"
`)
	r := NewRunner("/bin/sh", script, 10*time.Second)

	var out ClassifyResult
	if err := r.Run(context.Background(), classifyRequest{Text: "hello"}, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Label != "Invoice" || out.Confidence != 0.92 {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestRunnerNonZeroExitIsFatal(t *testing.T) {
	// Valid JSON on stdout must not mask the failure.
	script := writeScript(t, `#!/bin/sh
cat > /dev/null
echo '{"prediction": "Invoice", "confidence": 0.9}'
echo "model crashed" >&2
exit 3
`)
	r := NewRunner("/bin/sh", script, 10*time.Second)

	var out ClassifyResult
	err := r.Run(context.Background(), classifyRequest{Text: "hello"}, &out)
	var bridgeErr *BridgeError
	if !errors.As(err, &bridgeErr) {
		t.Fatalf("expected BridgeError, got %v", err)
	}
	if bridgeErr.Kind != KindExit {
		t.Fatalf("expected kind %q, got %q", KindExit, bridgeErr.Kind)
	}
	if bridgeErr.Output == "" {
		t.Fatal("expected stderr captured in Output")
	}
}

func TestRunnerRejectsNonJSONOutput(t *testing.T) {
	script := writeScript(t, `#!/bin/sh
cat > /dev/null
echo "Traceback (most recent call last):"
`)
	r := NewRunner("/bin/sh", script, 10*time.Second)

	var out PreprocessResult
	err := r.Run(context.Background(), preprocessRequest{Text: "x"}, &out)
	var bridgeErr *BridgeError
	if !errors.As(err, &bridgeErr) {
		t.Fatalf("expected BridgeError, got %v", err)
	}
	if bridgeErr.Kind != KindBadJSON {
		t.Fatalf("expected kind %q, got %q", KindBadJSON, bridgeErr.Kind)
	}
}

func TestRunnerTimeout(t *testing.T) {
	script := writeScript(t, `#!/bin/sh
cat > /dev/null
sleep 10
`)
	r := NewRunner("/bin/sh", script, 200*time.Millisecond)

	var out PreprocessResult
	err := r.Run(context.Background(), preprocessRequest{Text: "x"}, &out)
	var bridgeErr *BridgeError
	if !errors.As(err, &bridgeErr) {
		t.Fatalf("expected BridgeError, got %v", err)
	}
	if bridgeErr.Kind != KindTimeout {
		t.Fatalf("expected kind %q, got %q", KindTimeout, bridgeErr.Kind)
	}
}

func TestRunnerReadsReplyFromStderr(t *testing.T) {
	script := writeScript(t, `#!/bin/sh
cat > /dev/null
echo '{"prediction": "Memo", "confidence": 0.8}' >&2
`)
	r := NewRunner("/bin/sh", script, 10*time.Second)

	var out ClassifyResult
	if err := r.Run(context.Background(), classifyRequest{Text: "hello"}, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Label != "Memo" || out.Confidence != 0.8 {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestPreprocessSendsModeAndJoinsTokenArray(t *testing.T) {
	// The engine replies only when the mode field is present.
	script := writeScript(t, `#!/bin/sh
payload=$(cat)
case "$payload" in
*'"mode":"preprocess"'*) echo '["hello","world"]' ;;
*) exit 1 ;;
esac
`)
	client := &RunnerPreprocess{Runner: NewRunner("/bin/sh", script, 10*time.Second)}

	out, err := client.Preprocess(context.Background(), "Hello, World!")
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if out.Text != "hello world" {
		t.Fatalf("unexpected text %q", out.Text)
	}
}

func TestPreprocessAcceptsNormalizedObject(t *testing.T) {
	script := writeScript(t, `#!/bin/sh
cat > /dev/null
echo '{"normalized": "clean text"}'
`)
	client := &RunnerPreprocess{Runner: NewRunner("/bin/sh", script, 10*time.Second)}

	out, err := client.Preprocess(context.Background(), "Clean Text?")
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if out.Text != "clean text" {
		t.Fatalf("unexpected text %q", out.Text)
	}
}

func TestPreprocessFallsBackToRawOutput(t *testing.T) {
	// An unparseable reply is used verbatim rather than failing the stage.
	script := writeScript(t, `#!/bin/sh
cat > /dev/null
echo 'plain tokens without any json'
`)
	client := &RunnerPreprocess{Runner: NewRunner("/bin/sh", script, 10*time.Second)}

	out, err := client.Preprocess(context.Background(), "whatever")
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if out.Text != "plain tokens without any json" {
		t.Fatalf("unexpected text %q", out.Text)
	}
}

func TestPreprocessSurfacesErrorObject(t *testing.T) {
	script := writeScript(t, `#!/bin/sh
cat > /dev/null
echo '{"error": "tokenizer crashed"}'
`)
	client := &RunnerPreprocess{Runner: NewRunner("/bin/sh", script, 10*time.Second)}

	_, err := client.Preprocess(context.Background(), "whatever")
	var bridgeErr *BridgeError
	if !errors.As(err, &bridgeErr) {
		t.Fatalf("expected BridgeError, got %v", err)
	}
	if bridgeErr.Kind != KindReply || bridgeErr.Detail != "tokenizer crashed" {
		t.Fatalf("unexpected error %+v", bridgeErr)
	}
}

func TestAdapterSurfacesReplyError(t *testing.T) {
	script := writeScript(t, `#!/bin/sh
cat > /dev/null
echo '{"error": "model file missing"}'
`)
	client := &RunnerClassify{Runner: NewRunner("/bin/sh", script, 10*time.Second)}

	_, err := client.Classify(context.Background(), "hello")
	var bridgeErr *BridgeError
	if !errors.As(err, &bridgeErr) {
		t.Fatalf("expected BridgeError, got %v", err)
	}
	if bridgeErr.Kind != KindReply || bridgeErr.Detail != "model file missing" {
		t.Fatalf("unexpected error %+v", bridgeErr)
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{`{"a":1}`, `{"a":1}`, true},
		{"noise {\"a\":1} trailing", `{"a":1}`, true},
		{"pre {\"a\":{\"b\":2}} post", `{"a":{"b":2}}`, true},
		{"no braces here", "", false},
		{"} reversed {", "", false},
	}
	for _, tc := range cases {
		got, ok := extractJSON(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("extractJSON(%q) = %q,%v want %q,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestExtractJSONArray(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{`["a","b"]`, `["a","b"]`, true},
		{"loading model\n[\"a\"]\ndone", `["a"]`, true},
		{"no brackets", "", false},
		{"] reversed [", "", false},
	}
	for _, tc := range cases {
		got, ok := extractJSONArray(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("extractJSONArray(%q) = %q,%v want %q,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

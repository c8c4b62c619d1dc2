package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"
	"time"

	"docclassifier-backend/internal/shared/telemetry"
)

// Runner invokes one engine script as a subprocess. The request is written
// as JSON on stdin and the response is parsed from the JSON object found in
// the combined output stream. Engines may print diagnostics around the JSON,
// on either stream; everything outside the outermost braces is ignored.
type Runner struct {
	PythonBin string
	Script    string
	Timeout   time.Duration
}

// NewRunner constructs a Runner for the given script.
func NewRunner(pythonBin, script string, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Runner{PythonBin: pythonBin, Script: script, Timeout: timeout}
}

// Run executes the script, sending req as JSON and decoding the reply into
// out. A non-zero exit is always fatal, regardless of anything printed.
func (r *Runner) Run(ctx context.Context, req any, out any) error {
	combined, err := r.RunRaw(ctx, req)
	if err != nil {
		return err
	}

	raw, ok := extractJSON(combined)
	if !ok {
		return &BridgeError{
			Kind:   KindBadJSON,
			Script: r.Script,
			Detail: "no JSON object in engine output",
			Output: truncate(combined, 2048),
		}
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return &BridgeError{
			Kind:   KindBadJSON,
			Script: r.Script,
			Detail: err.Error(),
			Output: truncate(raw, 2048),
		}
	}
	return nil
}

// RunRaw executes the script and returns its combined stdout and stderr.
// Exit failures and timeouts are bridge errors; what the output means is
// the caller's problem.
func (r *Runner) RunRaw(ctx context.Context, req any) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	runCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.PythonBin, r.Script)
	cmd.Stdin = bytes.NewReader(payload)
	// Some engines write their reply to stderr; capture one stream.
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	start := time.Now()
	err = cmd.Run()
	elapsed := time.Since(start)

	if runCtx.Err() != nil && ctx.Err() == nil {
		telemetry.Error("engine.timeout", map[string]any{
			"script":      r.Script,
			"timeout_sec": r.Timeout.Seconds(),
		})
		return "", &BridgeError{
			Kind:   KindTimeout,
			Script: r.Script,
			Detail: "engine did not respond within " + r.Timeout.String(),
			Output: truncate(output.String(), 2048),
		}
	}
	if err != nil {
		detail := err.Error()
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail = exitErr.String()
		}
		telemetry.Error("engine.exit", map[string]any{
			"script": r.Script,
			"error":  detail,
		})
		return "", &BridgeError{
			Kind:   KindExit,
			Script: r.Script,
			Detail: detail,
			Output: truncate(output.String(), 2048),
		}
	}

	telemetry.Info("engine.complete", map[string]any{
		"script":      r.Script,
		"duration_ms": float64(elapsed.Microseconds()) / 1000.0,
	})
	return output.String(), nil
}

// extractJSON returns the substring between the first '{' and last '}' so
// engines can print warnings around their JSON reply.
func extractJSON(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

// extractJSONArray is the bracket analogue, for engines replying with a bare
// JSON array.
func extractJSONArray(s string) (string, bool) {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

package engine

import (
	"context"
	"encoding/json"
	"strings"
)

// PreprocessResult is the reply from the preprocessing engine.
type PreprocessResult struct {
	Text string `json:"normalized"`
	Err  string `json:"error,omitempty"`
}

// ClassifyResult is the reply from the statistical classifier engine.
type ClassifyResult struct {
	Label      string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
	Err        string  `json:"error,omitempty"`
}

// OCRResult is the reply from the OCR engine.
type OCRResult struct {
	Text string `json:"text"`
	Err  string `json:"error,omitempty"`
}

// PreprocessClient normalizes raw extracted text for classification.
type PreprocessClient interface {
	Preprocess(ctx context.Context, text string) (PreprocessResult, error)
}

// ClassifyClient returns a label and a confidence in [0,1].
type ClassifyClient interface {
	Classify(ctx context.Context, text string) (ClassifyResult, error)
}

// OCRClient recognizes text from image bytes or scanned documents.
type OCRClient interface {
	Recognize(ctx context.Context, filePath string) (OCRResult, error)
}

// The preprocessing engine multiplexes on a mode field.
type preprocessRequest struct {
	Mode string `json:"mode"`
	Text string `json:"text"`
}

type classifyRequest struct {
	Text string `json:"text"`
}

type ocrRequest struct {
	Path string `json:"path"`
}

// RunnerPreprocess adapts a Runner to PreprocessClient.
type RunnerPreprocess struct {
	Runner *Runner
}

func (c *RunnerPreprocess) Preprocess(ctx context.Context, text string) (PreprocessResult, error) {
	raw, err := c.Runner.RunRaw(ctx, preprocessRequest{Mode: "preprocess", Text: text})
	if err != nil {
		return PreprocessResult{}, err
	}
	return parsePreprocessReply(c.Runner.Script, raw)
}

// parsePreprocessReply accepts the token array the preprocessing engine
// emits, or an object carrying "normalized" or "error". Anything else is
// used verbatim so an unparseable reply degrades instead of failing the
// stage.
func parsePreprocessReply(script, raw string) (PreprocessResult, error) {
	if arr, ok := extractJSONArray(raw); ok {
		var tokens []string
		if err := json.Unmarshal([]byte(arr), &tokens); err == nil {
			return PreprocessResult{Text: strings.Join(tokens, " ")}, nil
		}
	}
	if obj, ok := extractJSON(raw); ok {
		var out PreprocessResult
		if err := json.Unmarshal([]byte(obj), &out); err == nil {
			if out.Err != "" {
				return PreprocessResult{}, &BridgeError{Kind: KindReply, Script: script, Detail: out.Err}
			}
			if out.Text != "" {
				return out, nil
			}
		}
	}
	return PreprocessResult{Text: strings.TrimSpace(raw)}, nil
}

// RunnerClassify adapts a Runner to ClassifyClient.
type RunnerClassify struct {
	Runner *Runner
}

func (c *RunnerClassify) Classify(ctx context.Context, text string) (ClassifyResult, error) {
	var out ClassifyResult
	if err := c.Runner.Run(ctx, classifyRequest{Text: text}, &out); err != nil {
		return ClassifyResult{}, err
	}
	if out.Err != "" {
		return ClassifyResult{}, &BridgeError{Kind: KindReply, Script: c.Runner.Script, Detail: out.Err}
	}
	return out, nil
}

// RunnerOCR adapts a Runner to OCRClient.
type RunnerOCR struct {
	Runner *Runner
}

func (c *RunnerOCR) Recognize(ctx context.Context, filePath string) (OCRResult, error) {
	var out OCRResult
	if err := c.Runner.Run(ctx, ocrRequest{Path: filePath}, &out); err != nil {
		return OCRResult{}, err
	}
	if out.Err != "" {
		return OCRResult{}, &BridgeError{Kind: KindReply, Script: c.Runner.Script, Detail: out.Err}
	}
	return out, nil
}

var (
	_ PreprocessClient = (*RunnerPreprocess)(nil)
	_ ClassifyClient   = (*RunnerClassify)(nil)
	_ OCRClient        = (*RunnerOCR)(nil)
)

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"docclassifier-backend/internal/credits"
	"docclassifier-backend/internal/documents"
	"docclassifier-backend/internal/engine"
	"docclassifier-backend/internal/extract"
	"docclassifier-backend/internal/llm"
	"docclassifier-backend/internal/shared/metrics"
	"docclassifier-backend/internal/shared/telemetry"
)

// overrideThreshold is the classifier confidence below which the generative
// model is consulted for a second opinion.
const overrideThreshold = 0.65

const serviceTag = "document_processing"

// Service orchestrates one document through extraction, preprocessing,
// classification, the confidence-gated override, summarization, credit
// settlement, and persistence. Stages run strictly in order.
type Service struct {
	Credits   *credits.Service
	Docs      *documents.Service
	Extractor *extract.Extractor
	Preproc   engine.PreprocessClient
	Classify  engine.ClassifyClient
	Gen       llm.Client
}

// NewService constructs a pipeline Service.
func NewService(cr *credits.Service, docs *documents.Service, ex *extract.Extractor,
	pre engine.PreprocessClient, cls engine.ClassifyClient, gen llm.Client) *Service {
	if gen == nil {
		gen = llm.PlaceholderClient{}
	}
	return &Service{Credits: cr, Docs: docs, Extractor: ex, Preproc: pre, Classify: cls, Gen: gen}
}

// Run processes one uploaded document identified by content hash. Admission
// is checked before any engine call; the debit lands before persistence so a
// saved result is always a paid result.
func (s *Service) Run(ctx context.Context, ownerID, email, contentHash string) (Result, error) {
	start := time.Now()
	metrics.IncPipelineStarted()

	res, err := s.run(ctx, ownerID, email, contentHash)
	if err != nil {
		metrics.IncPipelineFailed()
		return Result{}, err
	}
	metrics.IncPipelineCompleted()
	metrics.ObservePipelineDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
	return res, nil
}

func (s *Service) run(ctx context.Context, ownerID, email, contentHash string) (Result, error) {
	// Admission: suspension and a usable balance, before any engine work.
	acct, err := s.Credits.GetOrCreateAccount(ctx, ownerID, email)
	if err != nil {
		return Result{}, err
	}
	if acct.Suspended {
		return Result{}, &credits.SuspendedAccountError{Reason: acct.SuspensionReason}
	}
	if acct.Balance <= 0 {
		return Result{}, &credits.InsufficientCreditsError{
			Available: acct.Balance,
			Required:  credits.AdvisoryPerFileEstimate(),
		}
	}

	doc, err := s.Docs.GetByHash(ctx, contentHash)
	if err != nil {
		return Result{}, err
	}
	path, err := s.Docs.ResolvePath(ctx, doc)
	if err != nil {
		return Result{}, err
	}

	// Extraction. A failed extraction is recorded in the text itself so the
	// document still flows through classification instead of vanishing.
	extracted, err := s.Extractor.FromFile(ctx, path)
	if err != nil {
		extracted = fmt.Sprintf("[Extraction error: %v]", err)
		telemetry.Error("pipeline.extract_failed", map[string]any{
			"content_hash": contentHash,
			"error":        err.Error(),
		})
	}

	// A reply the bridge could not parse falls back to the extracted text
	// verbatim; only process-level failures abort.
	pre, err := s.Preproc.Preprocess(ctx, extracted)
	if err != nil {
		var bridgeErr *engine.BridgeError
		if !errors.As(err, &bridgeErr) || bridgeErr.Kind != engine.KindBadJSON {
			return Result{}, err
		}
		telemetry.Error("pipeline.preprocess_fallback", map[string]any{
			"content_hash": contentHash,
			"error":        err.Error(),
		})
		pre = engine.PreprocessResult{Text: extracted}
	}
	preprocessed := pre.Text
	if strings.TrimSpace(preprocessed) == "" {
		preprocessed = extracted
	}

	cls, err := s.Classify.Classify(ctx, preprocessed)
	if err != nil {
		return Result{}, err
	}
	label := cls.Label
	confidence := cls.Confidence
	source := SourceSVM

	if confidence < overrideThreshold {
		if coerced, ok := s.tryOverride(ctx, preprocessed); ok {
			label = coerced
			source = SourceOverride
		}
	}

	summary := summarize(ctx, s.Gen, extracted)

	// Cost derives from the extracted document, not the upload size or the
	// stripped-down preprocessed form.
	words := len(extracted) / 5
	pages := len(extracted)/1800 + 1
	cost := credits.EstimateCost(pages, words)

	acct, err = s.Credits.Debit(ctx, ownerID, cost, serviceTag, contentHash)
	if err != nil {
		return Result{}, err
	}
	metrics.AddCreditsDebited(cost)

	saved, err := s.Docs.SaveResults(ctx, documents.SaveParams{
		OwnerID:       ownerID,
		ContentHash:   contentHash,
		Label:         label,
		Confidence:    confidence,
		ExtractedText: extracted,
		Summary:       summary,
		Notes:         fmt.Sprintf("decision_source=%s", source),
	})
	if err != nil {
		return Result{}, err
	}

	telemetry.Info("pipeline.complete", map[string]any{
		"content_hash":    contentHash,
		"label":           label,
		"confidence":      confidence,
		"decision_source": source,
		"credits_used":    cost,
		"balance":         acct.Balance,
	})

	return Result{
		ContentHash:    contentHash,
		FileName:       saved.FileName,
		ExtractedText:  extracted,
		Preprocessed:   preprocessed,
		Label:          label,
		Confidence:     confidence,
		DecisionSource: source,
		Summary:        summary,
		CreditsUsed:    cost,
		Balance:        acct.Balance,
		Document:       saved,
	}, nil
}

// tryOverride asks the generative model for a label and coerces the answer
// onto the allowed set. Any failure leaves the classifier's label standing.
func (s *Service) tryOverride(ctx context.Context, text string) (string, bool) {
	raw, err := s.Gen.ClassifyLabel(ctx, text)
	if err != nil {
		return "", false
	}
	coerced, ok := llm.CoerceLabel(raw)
	if !ok {
		telemetry.Info("pipeline.override_rejected", map[string]any{"raw_label": raw})
		return "", false
	}
	return coerced, true
}

// RunAsync runs the pipeline in a goroutine and invokes done with the
// outcome. The caller's context governs cancellation.
func (s *Service) RunAsync(ctx context.Context, ownerID, email, contentHash string, done func(Result, error)) {
	go func() {
		res, err := s.Run(ctx, ownerID, email, contentHash)
		if done != nil {
			done(res, err)
		}
	}()
}

package pipeline

import (
	"context"
	"errors"

	"docclassifier-backend/internal/credits"
	"docclassifier-backend/internal/documents"
	"docclassifier-backend/internal/shared/telemetry"
)

// RunBatch processes several documents for one owner. Admission is
// re-checked per file against the flat advisory estimate, already processed
// hashes are skipped, and one failing file never stops the rest. A canceled
// context stops between files; untouched hashes are reported as skipped.
func (s *Service) RunBatch(ctx context.Context, ownerID, email string, contentHashes []string) []BatchOutcome {
	outcomes := make([]BatchOutcome, 0, len(contentHashes))
	for _, hash := range contentHashes {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, BatchOutcome{
				ContentHash: hash,
				Status:      BatchSkipped,
				Reason:      err.Error(),
			})
			continue
		}
		outcomes = append(outcomes, s.runBatchItem(ctx, ownerID, email, hash))
	}
	return outcomes
}

func (s *Service) runBatchItem(ctx context.Context, ownerID, email, hash string) BatchOutcome {
	outcome := BatchOutcome{ContentHash: hash}

	doc, err := s.Docs.GetByHash(ctx, hash)
	if err == nil {
		outcome.FileName = doc.FileName
		if doc.Processed {
			outcome.Status = BatchSkipped
			outcome.Reason = "already processed"
			return outcome
		}
	}

	acct, err := s.Credits.GetOrCreateAccount(ctx, ownerID, email)
	if err != nil {
		outcome.Status = BatchFailure
		outcome.Reason = err.Error()
		return outcome
	}
	if acct.Suspended {
		outcome.Status = BatchSkipped
		outcome.Reason = (&credits.SuspendedAccountError{Reason: acct.SuspensionReason}).Error()
		return outcome
	}
	if acct.Balance < credits.AdvisoryPerFileEstimate() {
		outcome.Status = BatchSkipped
		outcome.Reason = (&credits.InsufficientCreditsError{
			Available: acct.Balance,
			Required:  credits.AdvisoryPerFileEstimate(),
		}).Error()
		return outcome
	}

	res, err := s.Run(ctx, ownerID, email, hash)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			outcome.Status = BatchFailure
			outcome.Reason = "document not found"
			return outcome
		}
		telemetry.Error("pipeline.batch_item_failed", map[string]any{
			"content_hash": hash,
			"error":        err.Error(),
		})
		outcome.Status = BatchFailure
		outcome.Reason = err.Error()
		return outcome
	}

	outcome.Status = BatchSuccess
	outcome.FileName = res.FileName
	outcome.Result = &res
	return outcome
}

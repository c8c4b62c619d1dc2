package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"docclassifier-backend/internal/pipeline"
	"docclassifier-backend/internal/queue"
	"docclassifier-backend/internal/shared/telemetry"
)

// MessageMeta captures payload details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrMissingJob indicates a message without a job id or documents to process.
type ErrMissingJob struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingJob) Error() string { return "missing job id or content hashes" }

// ErrProcess indicates processing failed after successful parsing.
type ErrProcess struct {
	JobID     string
	RequestID string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process job"
	}
	return "process job: " + e.Err.Error()
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.JobID) == "" || len(msg.ContentHashes) == 0 {
		return msg, meta, ErrMissingJob{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

// HandleMessage parses a payload and runs the batch it describes. Per-file
// failures are isolated by the batch runner; the message only fails as a
// whole when nothing in it could be processed.
func HandleMessage(ctx context.Context, svc *pipeline.Service, body string) error {
	if svc == nil {
		return errors.New("pipeline service not configured")
	}

	msg, _, err := ParseMessage(body)
	if err != nil {
		return err
	}

	outcomes := svc.RunBatch(ctx, msg.OwnerID, msg.Email, msg.ContentHashes)

	failures := 0
	for _, outcome := range outcomes {
		if outcome.Status == pipeline.BatchFailure {
			failures++
		}
	}
	telemetry.Info("worker.job.outcomes", map[string]any{
		"job_id":     msg.JobID,
		"request_id": msg.RequestID,
		"total":      len(outcomes),
		"failures":   failures,
	})

	if failures == len(outcomes) {
		return ErrProcess{
			JobID:     msg.JobID,
			RequestID: msg.RequestID,
			Err:       errors.New("all documents in job failed"),
		}
	}
	return nil
}

package workerproc

import (
	"errors"
	"testing"
)

func TestParseMessageEmptyBody(t *testing.T) {
	_, meta, err := ParseMessage("   ")
	var empty ErrEmptyBody
	if !errors.As(err, &empty) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}
	if meta.BodyLen != 3 {
		t.Fatalf("unexpected meta %+v", meta)
	}
}

func TestParseMessageBadJSON(t *testing.T) {
	_, meta, err := ParseMessage("{broken")
	var decode ErrDecode
	if !errors.As(err, &decode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if meta.BodySHA == "" {
		t.Fatal("expected body hash in meta")
	}
}

func TestParseMessageMissingJob(t *testing.T) {
	_, _, err := ParseMessage(`{"requestId":"req-1","contentHashes":["h1"]}`)
	var missing ErrMissingJob
	if !errors.As(err, &missing) {
		t.Fatalf("expected ErrMissingJob, got %v", err)
	}
	if missing.RequestID != "req-1" {
		t.Fatalf("expected request id carried, got %q", missing.RequestID)
	}

	_, _, err = ParseMessage(`{"jobId":"j1","contentHashes":[]}`)
	if !errors.As(err, &missing) {
		t.Fatalf("expected ErrMissingJob for empty hashes, got %v", err)
	}
}

func TestParseMessageValid(t *testing.T) {
	msg, _, err := ParseMessage(`{"jobId":"j1","ownerId":"o1","contentHashes":["h1","h2"],"version":1}`)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if msg.JobID != "j1" || msg.OwnerID != "o1" || len(msg.ContentHashes) != 2 {
		t.Fatalf("unexpected message %+v", msg)
	}
}

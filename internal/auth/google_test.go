package auth

import (
	"strings"
	"testing"
	"time"
)

func TestStateStoreConsumeOnce(t *testing.T) {
	store := newStateStore()
	store.put("abc", time.Now().Add(time.Minute))

	if !store.consume("abc") {
		t.Fatal("expected first consume to succeed")
	}
	if store.consume("abc") {
		t.Fatal("state must be single-use")
	}
	if store.consume("never-stored") {
		t.Fatal("unknown state must be rejected")
	}
}

func TestStateStoreExpiry(t *testing.T) {
	store := newStateStore()
	store.put("old", time.Now().Add(-time.Second))
	if store.consume("old") {
		t.Fatal("expired state must be rejected")
	}
}

func TestAppendToken(t *testing.T) {
	out, err := appendToken("https://ui.example.com/login?next=%2Fdocs", "tok123")
	if err != nil {
		t.Fatalf("appendToken: %v", err)
	}
	if !strings.Contains(out, "token=tok123") || !strings.Contains(out, "next=") {
		t.Fatalf("unexpected url %q", out)
	}

	if _, err := appendToken("", "tok"); err == nil {
		t.Fatal("expected error for empty redirect url")
	}
}

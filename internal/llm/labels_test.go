package llm

import "testing"

func TestCoerceLabelExactCaseInsensitive(t *testing.T) {
	got, ok := CoerceLabel("invoice")
	if !ok || got != "Invoice" {
		t.Fatalf("got %q ok=%v", got, ok)
	}
	got, ok = CoerceLabel("  POWER OF ATTORNEY  ")
	if !ok || got != "Power of Attorney" {
		t.Fatalf("got %q ok=%v", got, ok)
	}
}

func TestCoerceLabelWholeWordMention(t *testing.T) {
	got, ok := CoerceLabel("This document appears to be a contract between two parties.")
	if !ok || got != "Contract" {
		t.Fatalf("got %q ok=%v", got, ok)
	}
}

func TestCoerceLabelSubstringFallback(t *testing.T) {
	got, ok := CoerceLabel("ruling/judgement/orders issued last week")
	if !ok || got != "Ruling/Judgement/Order" {
		t.Fatalf("got %q ok=%v", got, ok)
	}
}

func TestCoerceLabelNoMatch(t *testing.T) {
	if got, ok := CoerceLabel("a grocery list"); ok {
		t.Fatalf("expected no match, got %q", got)
	}
	if _, ok := CoerceLabel(""); ok {
		t.Fatal("expected no match for empty input")
	}
}

package ratelimit

import "testing"

func TestEstimateInputPlainText(t *testing.T) {
	msgs := []Message{{Role: "user", Text: "0123456789"}} // 10 chars
	if got := EstimateInput(msgs); got != 2 {
		t.Fatalf("expected 2 tokens (10/4), got %d", got)
	}
}

func TestEstimateInputMinimumOne(t *testing.T) {
	msgs := []Message{{Role: "user", Text: "hi"}}
	if got := EstimateInput(msgs); got != 1 {
		t.Fatalf("expected floor of 1, got %d", got)
	}
}

func TestEstimateInputMultipart(t *testing.T) {
	msgs := []Message{{
		Role: "user",
		Parts: []MessagePart{
			{Text: "01234567"}, // 8 chars
			{Text: ""},         // part without text contributes zero
		},
	}}
	if got := EstimateInput(msgs); got != 2 {
		t.Fatalf("expected 2 tokens (8/4), got %d", got)
	}
}

func TestDeriveOutputDefault(t *testing.T) {
	if got := DeriveOutput(nil); got != DefaultMaxTokens {
		t.Fatalf("expected default %d, got %d", DefaultMaxTokens, got)
	}
}

func TestDeriveOutputExplicit(t *testing.T) {
	mt := 42
	if got := DeriveOutput(&mt); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

package ratelimit

import "testing"

func TestResolveBudgetDeterministic(t *testing.T) {
	a, ok := ResolveBudget("k1")
	if !ok {
		t.Fatal("expected ok for non-empty credential")
	}
	b, _ := ResolveBudget("k1")
	if a != b {
		t.Fatalf("expected deterministic budget, got %+v and %+v", a, b)
	}
}

func TestResolveBudgetBounds(t *testing.T) {
	for _, cred := range []string{"k1", "k2", "a-very-long-credential-string", ""} {
		if cred == "" {
			if _, ok := ResolveBudget(cred); ok {
				t.Fatalf("expected empty credential to be rejected")
			}
			continue
		}
		b, ok := ResolveBudget(cred)
		if !ok {
			t.Fatalf("expected ok for %q", cred)
		}
		if b.InputTPM < 10_000 || b.InputTPM >= 60_000 {
			t.Fatalf("input_tpm out of range: %d", b.InputTPM)
		}
		if b.OutputTPM < 5_000 || b.OutputTPM >= 30_000 {
			t.Fatalf("output_tpm out of range: %d", b.OutputTPM)
		}
		if b.RPM < 100 || b.RPM >= 1000 {
			t.Fatalf("rpm out of range: %d", b.RPM)
		}
	}
}

func TestResolveBudgetDiffersAcrossCredentials(t *testing.T) {
	a, _ := ResolveBudget("k1")
	b, _ := ResolveBudget("k2")
	if a == b {
		t.Fatalf("expected different credentials to (overwhelmingly likely) resolve different budgets, got identical %+v", a)
	}
}

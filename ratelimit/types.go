/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L4
Logic:       Shared types for the distributed sliding-window
             admission controller: budgets, counter keys, and
             the store-agnostic admission result.
Root Cause:  Sprint task — distributed rate limit core (C1-C3).
Context:     Every store backend and the admission controller
             share this vocabulary; kept dependency-free so both
             RedisStore and MemStore can import it without a
             cycle.
Suitability: L4 — this is the contract the rest of the package
             is built against.
──────────────────────────────────────────────────────────────
*/

package ratelimit

import "fmt"

// Window is the sliding interval, in seconds, over which budgets are enforced.
const Window = 60

// KeyTTL is the hygiene TTL applied to counter keys in the Redis-backed
// store so abandoned credentials are eventually evicted. The 60s window
// itself is enforced by score-range deletion, not by this TTL.
const KeyTTL = 3600

// BudgetTriple is the per-credential budget resolved deterministically
// from the credential string.
type BudgetTriple struct {
	InputTPM  uint32
	OutputTPM uint32
	RPM       uint32
}

// CounterKeys is the triple of sorted-set keys backing one credential.
type CounterKeys struct {
	Input   string
	Output  string
	Request string
}

// KeysFor builds the canonical key layout for a credential:
// rate_limit:<credential>:{input_tokens|output_tokens|requests}
func KeysFor(credential string) CounterKeys {
	base := fmt.Sprintf("rate_limit:%s", credential)
	return CounterKeys{
		Input:   base + ":input_tokens",
		Output:  base + ":output_tokens",
		Request: base + ":requests",
	}
}

// Usage is a point-in-time snapshot of a credential's consumption,
// returned by Store.Usage without mutating any state.
type Usage struct {
	InputTokensUsed   int64
	InputTokensLimit  uint32
	OutputTokensUsed  int64
	OutputTokensLimit uint32
	RequestsUsed      int64
	RequestsLimit     uint32
	WindowSeconds     int
}

// Reason strings are part of the admission contract — callers and tests
// match on these verbatim, so they are exported constants rather than
// ad-hoc fmt.Sprintf calls scattered through the store implementations.
const (
	ReasonOK                  = "OK"
	ReasonInputExceeded       = "Input TPM limit exceeded"
	ReasonOutputExceeded      = "Output TPM limit exceeded"
	ReasonRequestsExceeded    = "RPM limit exceeded"
	ReasonMissingCredential   = "Missing API key"
	ReasonInvalidCredential   = "Invalid API key"
	reasonStoreFailurePrefix  = "Rate limit check failed"
)

// StoreFailureReason formats the fail-closed reason surfaced when the
// counter store itself errors out.
func StoreFailureReason(cause error) string {
	return fmt.Sprintf("%s: %s", reasonStoreFailurePrefix, cause.Error())
}

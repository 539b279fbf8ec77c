/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L4
Logic:       Admission Controller (C3). Single entry point:
             resolve budget → invoke the store's atomic
             admit_and_charge → return its verdict verbatim.
             Performs no locking of its own; atomicity is
             delegated entirely to the Store.
Root Cause:  Sprint task — distributed rate limit core (C3).
Context:     This is the seam the ingress handler calls through;
             it is intentionally thin so the hard part stays in
             the Store implementations.
Suitability: L4 — orchestrates the system's core guarantee.
──────────────────────────────────────────────────────────────
*/

package ratelimit

import (
	"context"
	"time"
)

// Controller is the Admission Controller (C3).
type Controller struct {
	store Store
}

// NewController builds an admission controller over the given Store.
func NewController(store Store) *Controller {
	return &Controller{store: store}
}

// Decision is the verdict returned by Check.
type Decision struct {
	Admitted bool
	Reason   string
	Limits   BudgetTriple
}

// Check resolves the credential's budget and performs one atomic
// admission against the store, charging one request unit plus the
// given input/output token units on success.
func (c *Controller) Check(ctx context.Context, credential string, inputTokens, outputTokens int) Decision {
	if credential == "" {
		return Decision{Admitted: false, Reason: ReasonMissingCredential}
	}

	limits, ok := ResolveBudget(credential)
	if !ok {
		return Decision{Admitted: false, Reason: ReasonInvalidCredential}
	}

	now := time.Now().Unix()
	windowStart := now - Window

	admitted, reason, err := c.store.AdmitAndCharge(
		ctx,
		KeysFor(credential),
		now, windowStart,
		int64(inputTokens), int64(outputTokens), 1,
		limits,
	)
	if err != nil {
		return Decision{Admitted: false, Reason: StoreFailureReason(err), Limits: limits}
	}

	return Decision{Admitted: admitted, Reason: reason, Limits: limits}
}

// Usage returns the credential's current usage snapshot without
// charging anything.
func (c *Controller) Usage(ctx context.Context, credential string) (Usage, bool, error) {
	limits, ok := ResolveBudget(credential)
	if !ok {
		return Usage{}, false, nil
	}

	now := time.Now().Unix()
	windowStart := now - Window

	u, err := c.store.Usage(ctx, KeysFor(credential), now, windowStart, limits)
	return u, true, err
}

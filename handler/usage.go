/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       GET /v1/usage/{credential} — a non-mutating snapshot
             of a credential's current sliding-window consumption.
Root Cause:  Sprint task — usage introspection endpoint.
Suitability: L2 — thin wrapper over Controller.Usage.
──────────────────────────────────────────────────────────────
*/

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alfred-dev/sentry-gateway/ratelimit"
)

// UsageHandler serves non-mutating usage snapshots.
type UsageHandler struct {
	ctrl *ratelimit.Controller
}

// NewUsageHandler builds a UsageHandler over the given controller.
func NewUsageHandler(ctrl *ratelimit.Controller) *UsageHandler {
	return &UsageHandler{ctrl: ctrl}
}

type usageResponse struct {
	InputTokensUsed    int64 `json:"input_tokens_used"`
	InputTokensLimit   int64 `json:"input_tokens_limit"`
	OutputTokensUsed   int64 `json:"output_tokens_used"`
	OutputTokensLimit  int64 `json:"output_tokens_limit"`
	RequestsUsed       int64 `json:"requests_used"`
	RequestsLimit      int64 `json:"requests_limit"`
	WindowSizeSeconds  int   `json:"window_size_seconds"`
}

// Usage handles GET /v1/usage/{credential}.
func (h *UsageHandler) Usage(w http.ResponseWriter, r *http.Request) {
	credential := chi.URLParam(r, "credential")

	u, ok, err := h.ctrl.Usage(r.Context(), credential)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "usage lookup failed")
		return
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid credential")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(usageResponse{
		InputTokensUsed:   u.InputTokensUsed,
		InputTokensLimit:  int64(u.InputTokensLimit),
		OutputTokensUsed:  u.OutputTokensUsed,
		OutputTokensLimit: int64(u.OutputTokensLimit),
		RequestsUsed:      u.RequestsUsed,
		RequestsLimit:     int64(u.RequestsLimit),
		WindowSizeSeconds: int(ratelimit.Window),
	})
}

/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L1
Logic:       Static model listing — the completion generator is
             synthetic, so this just advertises the names clients
             may pass through as "model".
Root Cause:  Sprint task — GET /v1/models.
Suitability: L1 — static catalog, no upstream provider to query.
──────────────────────────────────────────────────────────────
*/

package handler

import (
	"encoding/json"
	"net/http"
)

type modelEntry struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by"`
}

var catalog = []modelEntry{
	{ID: "gpt-3.5-turbo", Object: "model", OwnedBy: "sentry-gateway"},
	{ID: "gpt-4", Object: "model", OwnedBy: "sentry-gateway"},
	{ID: "gpt-4-turbo", Object: "model", OwnedBy: "sentry-gateway"},
}

// Models lists the model names accepted by the completion endpoint.
func Models(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"object": "list",
		"data":   catalog,
	})
}

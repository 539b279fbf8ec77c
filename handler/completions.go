/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L4
Logic:       Ingress Handler (C6). Extracts the bearer credential,
             validates the chat-completion request body, estimates
             token usage (C4), drives the admission controller (C3),
             and on admit invokes the completion generator (C5) —
             either a one-shot JSON body or an SSE-style chunk
             stream terminated by a literal "data: [DONE]\n\n".
Root Cause:  Sprint task — POST /v1/chat/completions.
Context:     This is the seam every other component is wired
             through; admission always runs before generation so
             a rejected request never reaches C5.
Suitability: L4 — the request/response contract other clients
             depend on.
──────────────────────────────────────────────────────────────
*/

package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/alfred-dev/sentry-gateway/completion"
	gwmw "github.com/alfred-dev/sentry-gateway/middleware"
	"github.com/alfred-dev/sentry-gateway/observability"
	"github.com/alfred-dev/sentry-gateway/ratelimit"
)

// chatMessage mirrors the OpenAI chat message shape accepted on ingress.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionRequest is the body accepted by POST /v1/chat/completions.
type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

const (
	maxTokensFloor = 1
	maxTokensCeil  = 4096
	tempFloor      = 0.0
	tempCeil       = 2.0
)

func (req *chatCompletionRequest) validate() error {
	if req.MaxTokens != nil {
		if *req.MaxTokens < maxTokensFloor || *req.MaxTokens > maxTokensCeil {
			return fmt.Errorf("max_tokens must be in [%d,%d]", maxTokensFloor, maxTokensCeil)
		}
	}
	if req.Temperature != nil {
		if *req.Temperature < tempFloor || *req.Temperature > tempCeil {
			return fmt.Errorf("temperature must be in [%.1f,%.1f]", tempFloor, tempCeil)
		}
	}
	return nil
}

// CompletionsHandler implements the ingress handler (C6).
type CompletionsHandler struct {
	logger  zerolog.Logger
	ctrl    *ratelimit.Controller
	gen     *completion.Generator
	metrics *observability.Metrics
}

// NewCompletionsHandler wires the ingress handler over its collaborators.
func NewCompletionsHandler(logger zerolog.Logger, ctrl *ratelimit.Controller, gen *completion.Generator, metrics *observability.Metrics) *CompletionsHandler {
	return &CompletionsHandler{logger: logger, ctrl: ctrl, gen: gen, metrics: metrics}
}

// ChatCompletions handles POST /v1/chat/completions.
func (h *CompletionsHandler) ChatCompletions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		if h.metrics != nil {
			h.metrics.RequestDuration.WithLabelValues("/v1/chat/completions", strconv.Itoa(status)).Observe(time.Since(start).Seconds())
		}
	}()

	credential := gwmw.GetCredential(r.Context())
	if credential == "" {
		status = http.StatusUnauthorized
		writeError(w, status, "Missing or invalid Authorization header")
		return
	}

	var req chatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = http.StatusUnprocessableEntity
		writeError(w, status, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		status = http.StatusUnprocessableEntity
		writeError(w, status, err.Error())
		return
	}

	maxTokens := ratelimit.DeriveOutput(req.MaxTokens)

	estMessages := make([]ratelimit.Message, len(req.Messages))
	genMessages := make([]completion.Message, len(req.Messages))
	for i, m := range req.Messages {
		estMessages[i] = ratelimit.Message{Role: m.Role, Text: m.Content}
		genMessages[i] = completion.Message{Role: m.Role, Content: m.Content}
	}
	inputTokens := ratelimit.EstimateInput(estMessages)

	decision := h.ctrl.Check(r.Context(), credential, inputTokens, maxTokens)
	if h.metrics != nil {
		h.metrics.AdmissionTotal.WithLabelValues(decision.Reason).Inc()
	}

	w.Header().Set("X-Request-ID", r.Header.Get("X-Request-ID"))
	w.Header().Set("X-RateLimit-InputTPM-Limit", strconv.FormatUint(uint64(decision.Limits.InputTPM), 10))
	w.Header().Set("X-RateLimit-OutputTPM-Limit", strconv.FormatUint(uint64(decision.Limits.OutputTPM), 10))
	w.Header().Set("X-RateLimit-RPM-Limit", strconv.FormatUint(uint64(decision.Limits.RPM), 10))

	if !decision.Admitted {
		if strings.HasPrefix(decision.Reason, "Rate limit check failed: ") {
			h.logger.Error().Str("reason", decision.Reason).Msg("admission store failure")
			if h.metrics != nil {
				h.metrics.StoreErrors.Inc()
			}
		} else {
			h.logger.Warn().Str("reason", decision.Reason).Msg("admission rejected")
		}
		status = http.StatusTooManyRequests
		w.Header().Set("Retry-After", "1")
		writeError(w, status, decision.Reason)
		return
	}

	if req.Stream {
		h.streamCompletion(w, req, genMessages, inputTokens, maxTokens)
		return
	}

	resp := h.gen.Generate(genMessages, req.Model, inputTokens, maxTokens)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// streamCompletion emits the SSE-style chunk sequence per §4.5/§4.6: a
// small per-chunk delay is permitted (tested for presence, not timing),
// surfacing backpressure the way a real streaming upstream would.
func (h *CompletionsHandler) streamCompletion(w http.ResponseWriter, req chatCompletionRequest, messages []completion.Message, inputTokens, maxTokens int) {
	flusher, ok := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	chunks := h.gen.GenerateStream(messages, req.Model, inputTokens, maxTokens)
	for _, c := range chunks {
		payload, err := json.Marshal(c)
		if err != nil {
			h.logger.Error().Err(err).Msg("failed to marshal stream chunk")
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		if ok {
			flusher.Flush()
		}
		time.Sleep(10 * time.Millisecond)
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	if ok {
		flusher.Flush()
	}
}

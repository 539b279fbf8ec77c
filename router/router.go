/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Gateway router with middleware chain:
             CORS → Security Headers → Request ID → Recoverer →
             Request Logger → Body Size Limit → credential
             extraction (on POST /v1/chat/completions only).
             Routes: /, /health, /v1/models, /v1/chat/completions,
             /v1/usage/{credential}, /metrics.
Root Cause:  Sprint tasks — gateway core routing.
Context:     Trimmed to the five endpoints and /metrics this
             service actually exposes; no provider/cache/routing/
             policy/analytics surface survives here.
Suitability: L3 model for middleware chain design.
──────────────────────────────────────────────────────────────
*/

package router

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/alfred-dev/sentry-gateway/completion"
	"github.com/alfred-dev/sentry-gateway/config"
	"github.com/alfred-dev/sentry-gateway/handler"
	gwmw "github.com/alfred-dev/sentry-gateway/middleware"
	"github.com/alfred-dev/sentry-gateway/observability"
	"github.com/alfred-dev/sentry-gateway/ratelimit"
)

// NewRouter returns a configured chi Router with the full middleware
// chain and all API routes mounted.
func NewRouter(cfg *config.Config, appLogger zerolog.Logger, ctrl *ratelimit.Controller, gen *completion.Generator, metrics *observability.Metrics) http.Handler {
	r := chi.NewRouter()

	// --- Middleware chain (order matters) ---
	r.Use(gwmw.CORSMiddleware([]string{"*"}))
	r.Use(gwmw.SecurityHeadersMiddleware)
	r.Use(gwmw.RequestIDMiddleware)
	r.Use(chimw.Recoverer)
	r.Use(mwRequestLogger(appLogger))
	r.Use(mwMaxBodySize(cfg.MaxBodyBytes))

	healthHandler := handler.NewHealthHandler(portFromAddr(cfg.Addr))
	r.Get("/", healthHandler.Root)
	r.Get("/health", healthHandler.Health)

	if metrics != nil {
		r.Get("/metrics", metrics.Handler().ServeHTTP)
	}

	completionsHandler := handler.NewCompletionsHandler(appLogger, ctrl, gen, metrics)
	usageHandler := handler.NewUsageHandler(ctrl)
	authMW := gwmw.NewAuthMiddleware(cfg.CredentialHeader)

	// /v1/models is unauthenticated (a static catalog); /v1/usage/{credential}
	// takes its credential from the path, not the Authorization header.
	// Only /v1/chat/completions needs the bearer credential extracted.
	r.Route("/v1", func(r chi.Router) {
		r.Get("/models", handler.Models)
		r.Get("/usage/{credential}", usageHandler.Usage)

		r.With(authMW.Handler).Post("/chat/completions", completionsHandler.ChatCompletions)
	})

	return r
}

// mwMaxBodySize returns middleware that limits the request body size.
func mwMaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = 1 * 1024 * 1024 // default 1MB
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			max := maxBytes
			if v := os.Getenv("GATEWAY_MAX_BODY_BYTES"); v != "" {
				if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed > 0 {
					max = parsed
				}
			}

			if r.ContentLength > 0 && r.ContentLength > max {
				http.Error(w, `{"detail":"request body too large"}`, http.StatusRequestEntityTooLarge)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, max)
			next.ServeHTTP(w, r)
		})
	}
}

func mwRequestLogger(appLogger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler.RequestCount.Add(1)

			start := time.Now()
			rw := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(rw, r)
			dur := time.Since(start)
			appLogger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("req_id", rw.Header().Get("X-Request-ID")).
				Int("status", rw.Status()).
				Dur("duration", dur).
				Msg("request completed")
		})
	}
}

// portFromAddr extracts the numeric port from a listen address of the
// form ":8000" or "host:8000". Returns 0 if it cannot be parsed.
func portFromAddr(addr string) int {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 {
		return 0
	}
	port, err := strconv.Atoi(addr[idx+1:])
	if err != nil {
		return 0
	}
	return port
}

/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Gateway entry point with graceful shutdown. Wires
             config → logger → counter store (Redis, falling back
             to in-process memory if unreachable) → admission
             controller → completion generator → router → HTTP
             server with OS signal handling.
Root Cause:  Sprint task — HTTP server with graceful shutdown.
Context:     No provider registry, analytics pipeline, health
             poller, or model syncer survive here — there are no
             real upstream providers in this system; the
             completion generator is synthetic.
Suitability: L3 model for graceful shutdown and system wiring.
──────────────────────────────────────────────────────────────
*/

package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alfred-dev/sentry-gateway/completion"
	"github.com/alfred-dev/sentry-gateway/config"
	"github.com/alfred-dev/sentry-gateway/logger"
	"github.com/alfred-dev/sentry-gateway/observability"
	"github.com/alfred-dev/sentry-gateway/ratelimit"
	"github.com/alfred-dev/sentry-gateway/redisclient"
	"github.com/alfred-dev/sentry-gateway/router"
	"github.com/rs/zerolog"
)

func main() {
	cfg := config.Load()

	port := flag.String("port", "", "override GATEWAY_PORT")
	redisURL := flag.String("redis", "", "override REDIS_URL")
	workers := flag.Int("workers", 0, "override GATEWAY_WORKERS (informational; net/http pools goroutines per connection)")
	flag.Parse()

	if *port != "" {
		cfg.Addr = ":" + *port
	}
	if *redisURL != "" {
		cfg.RedisURL = *redisURL
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	log := logger.New(cfg)
	log.Info().Str("env", cfg.Env).Msg("sentry gateway starting")

	store, backend := newStore(cfg, log)
	log.Info().Str("backend", backend).Msg("counter store ready")

	ctrl := ratelimit.NewController(store)
	gen := completion.NewGenerator(completion.DefaultConfig())
	metrics := observability.NewMetrics()

	r := router.NewRouter(cfg, log, ctrl, gen, metrics)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // streaming responses hold the connection open
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("gateway listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-done
	log.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GracefulTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		log.Info().Msg("gateway stopped gracefully")
	}
}

// newStore builds the counter store per cfg.StoreBackend, falling back to
// an in-process MemStore if Redis is configured but unreachable — the
// admission controller is fail-closed per request, not fail-closed at
// startup, so a down Redis at boot degrades to single-node semantics
// rather than refusing to start.
func newStore(cfg *config.Config, log zerolog.Logger) (ratelimit.Store, string) {
	if cfg.StoreBackend == config.StoreBackendMemory {
		return ratelimit.NewMemStore(), string(config.StoreBackendMemory)
	}

	rc, err := redisclient.New(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("redis init failed — falling back to in-memory store")
		return ratelimit.NewMemStore(), string(config.StoreBackendMemory)
	}
	if err := rc.Ping(); err != nil {
		log.Warn().Err(err).Msg("redis ping failed — falling back to in-memory store")
		return ratelimit.NewMemStore(), string(config.StoreBackendMemory)
	}

	return ratelimit.NewRedisStore(rc.C), string(config.StoreBackendRedis)
}

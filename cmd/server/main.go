package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bisman/telemetry/internal/alerts"
	"github.com/bisman/telemetry/internal/api"
	"github.com/bisman/telemetry/internal/auth"
	"github.com/bisman/telemetry/internal/config"
	"github.com/bisman/telemetry/internal/dbhealth"
	"github.com/bisman/telemetry/internal/metrics"
	"github.com/bisman/telemetry/internal/ratelimit"
	"github.com/bisman/telemetry/internal/sentrypoll"
	"github.com/bisman/telemetry/internal/sysmon"
	"github.com/bisman/telemetry/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional; defaults apply without one)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("telemetry-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	thresholds := config.ThresholdsFromEnv()

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"rate_limit_enabled", cfg.Server.RateLimit.Enabled,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Telemetry store with background retention sweeping.
	store := metrics.New(thresholds)
	go store.RunSweeper(ctx)

	// Alert delivery: bus plus the configured sinks.
	bus := alerts.NewBus()
	bus.Subscribe("log", alerts.LogSink())
	if len(cfg.Server.Webhooks) > 0 {
		notifier := alerts.NewNotifier(cfg.Server.Webhooks)
		bus.Subscribe("webhook", notifier.Notify)
	}
	if dsn := cfg.Server.Sentry.DSN(); dsn != "" {
		sink, err := alerts.NewSentrySink(dsn)
		if err != nil {
			slog.Error("failed to init sentry sink", "err", err)
		} else {
			bus.Subscribe("sentry", sink.Notify)
			defer sink.Close()
		}
	}

	// WebSocket hub: periodic summaries plus pushed alerts.
	hub := ws.New(store, 5*time.Second)
	go hub.Run(ctx)
	bus.Subscribe("ws", hub.Notify)

	// Alert engine evaluates thresholds synchronously after recordings.
	store.SetHook(alerts.NewEngine(store, thresholds, bus))

	// Host CPU/memory sampler.
	go sysmon.New(store).Run(ctx)

	// Optional database pool health checks.
	if dsn := cfg.Server.Database.DSN(); dsn != "" {
		pool, err := dbhealth.Connect(ctx, dsn)
		if err != nil {
			slog.Error("database unreachable at startup", "err", err)
			store.RecordDBConnectionError(err, map[string]string{"op": "startup"})
		} else {
			defer pool.Close()
			go dbhealth.NewChecker(pool, store, cfg.Server.Database.CheckInterval).Run(ctx)
		}
	}

	// Optional Sentry issue polling.
	if cfg.Server.Sentry.APIURL != "" && cfg.Server.Sentry.Token() != "" {
		poller := sentrypoll.New(
			cfg.Server.Sentry.APIURL,
			cfg.Server.Sentry.Token(),
			cfg.Server.Sentry.PollInterval,
			store,
		)
		go poller.Run(ctx)
	}

	// Monitoring API: public probes stay outside the auth/rate-limit chain.
	apiHandler := api.New(store)
	authed := buildChain(cfg, store, apiHandler)

	mux := http.NewServeMux()
	mux.Handle("/metrics", apiHandler)
	mux.Handle("/health", apiHandler)
	mux.Handle("/api/monitoring/", authed)
	// The stream carries cross-tenant summaries, so it is admin-only.
	mux.Handle("/ws/stream", auth.Middleware(cfg.Server.Auth)(auth.RequireAdmin(hub)))

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: mux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("telemetry-server shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
	bus.Close()
}

// buildChain wraps the API handler with auth, the optional rate limiter, and
// request instrumentation (innermost, so it records the final status).
func buildChain(cfg *config.Config, store *metrics.Store, h http.Handler) http.Handler {
	h = api.Instrument(store)(h)

	if cfg.Server.RateLimit.Enabled {
		limiter := newLimiter(cfg.Server.RateLimit)
		h = ratelimit.Middleware(limiter, cfg.Server.RateLimit.RequestsPerMinute, store)(h)
	}

	return auth.Middleware(cfg.Server.Auth)(h)
}

// newLimiter picks the Redis backend when configured, falling back to the
// in-process limiter if Redis is unreachable.
func newLimiter(cfg config.RateLimitConfig) ratelimit.Limiter {
	if cfg.Redis.Addr == "" {
		return ratelimit.NewMemory()
	}
	limiter, err := ratelimit.NewRedis(cfg.Redis.Addr, cfg.Redis.Password(), cfg.Redis.DB)
	if err != nil {
		slog.Error("redis limiter unavailable, falling back to in-memory", "err", err)
		return ratelimit.NewMemory()
	}
	return limiter
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/pricewatch/api"
	"github.com/use-agent/pricewatch/config"
	"github.com/use-agent/pricewatch/scheduler"
	"github.com/use-agent/pricewatch/store"
	"github.com/use-agent/pricewatch/tracker"
	"github.com/use-agent/pricewatch/webhook"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("pricewatch starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"retries", cfg.Fetch.MaxRetries,
	)

	// ── 3. Initialise tracker (engine, strategies, cache) ───────────
	svc, cleanup, err := tracker.FromConfig(cfg)
	if err != nil {
		slog.Error("failed to initialise tracker", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// ── 4. Open alert store (optional) ──────────────────────────────
	var st *store.Store
	if cfg.Store.DSN != "" {
		st, err = store.Open(cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			slog.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
			os.Exit(1)
		}
		defer st.Close()
		slog.Info("alert store ready", "driver", st.Driver())
	} else {
		slog.Info("no database configured, alert endpoints disabled")
	}

	// ── 5. Start alert scheduler ────────────────────────────────────
	var sched *scheduler.Scheduler
	if st != nil && cfg.Scheduler.Enabled {
		var notifier webhook.Notifier
		if cfg.Webhook.URL != "" {
			sender := webhook.NewSender(cfg.Webhook.URL, cfg.Webhook.Secret)
			sender.Retries = cfg.Webhook.Retries
			notifier = sender
		}
		sched = scheduler.New(st, svc, notifier, scheduler.Options{
			Spec:        cfg.Scheduler.Spec,
			Concurrency: cfg.Scheduler.Concurrency,
			RunTimeout:  cfg.Scheduler.RunTimeout,
		})
		if err := sched.Start(); err != nil {
			slog.Error("failed to start scheduler", "error", err)
			os.Exit(1)
		}
	}

	// ── 6. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(svc, st, cfg, startTime)

	// ── 7. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.WithCORS(router, cfg.CORS.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if sched != nil {
		sched.Stop(ctx)
	}
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("pricewatch stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

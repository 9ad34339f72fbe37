package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/sneakerscope/api"
	"github.com/use-agent/sneakerscope/browser"
	"github.com/use-agent/sneakerscope/config"
	"github.com/use-agent/sneakerscope/logging"
	"github.com/use-agent/sneakerscope/metrics"
	"github.com/use-agent/sneakerscope/scraper"
	"github.com/use-agent/sneakerscope/sites"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// ── 2. Initialise structured logging ────────────────────────────
	logging.Setup(cfg.Log, os.Stdout)
	slog.Info("sneakerscope starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"fetchMode", cfg.Scraper.FetchMode,
		"maxSessions", cfg.Browser.MaxSessions,
	)

	// ── 3. Wire the scrape pipeline ─────────────────────────────────
	m := metrics.New()
	sr := scraper.NewRouter(sites.Default(), newLauncher(cfg), cfg, scraper.WithMetrics(m))

	// ── 4. Setup router ─────────────────────────────────────────────
	bg, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	router := api.NewRouter(bg, sr, m, cfg)

	// ── 5. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 6. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// In-flight scrapes get one navigation plus readiness window to finish.
	grace := cfg.Scraper.NavigationTimeout + cfg.Scraper.ReadinessTimeout
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}
	stopBackground()
	slog.Info("sneakerscope stopped")
}

// newLauncher picks the page backend for cfg.Scraper.FetchMode.
func newLauncher(cfg *config.Config) browser.Launcher {
	if cfg.Scraper.FetchMode == config.FetchModeHTTP {
		slog.Info("using direct HTTP fetch; pages are not rendered")
		return browser.NewFetchLauncher(cfg.Browser)
	}
	return browser.NewRodLauncher(cfg.Browser)
}

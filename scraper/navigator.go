package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/use-agent/sneakerscope/browser"
	"github.com/use-agent/sneakerscope/config"
	"github.com/use-agent/sneakerscope/models"
)

// snapshotTimeout bounds the diagnostic screenshot.
const snapshotTimeout = 5 * time.Second

// Navigator loads search pages and waits for their results to render.
type Navigator struct {
	NavigationTimeout time.Duration
	ReadinessTimeout  time.Duration

	// SnapshotDir receives a PNG per invocation after readiness. Empty disables it.
	SnapshotDir string
}

// NewNavigator builds a Navigator from the scraper config.
func NewNavigator(cfg config.ScraperConfig) *Navigator {
	return &Navigator{
		NavigationTimeout: cfg.NavigationTimeout,
		ReadinessTimeout:  cfg.ReadinessTimeout,
		SnapshotDir:       cfg.SnapshotDir,
	}
}

// Navigate opens a page in h and loads url within NavigationTimeout.
func (n *Navigator) Navigate(ctx context.Context, h *browser.Handle, url string) (browser.Page, error) {
	page, err := h.NewPage(ctx)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeLaunch, "failed to open browser page", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, n.NavigationTimeout)
	defer cancel()

	if err := page.Navigate(navCtx, url); err != nil {
		_ = page.Close()
		return nil, categorizeError(err, models.ErrCodeNavigationTimeout, models.ErrCodeNavigation,
			"navigation to search page failed")
	}
	return page, nil
}

// AwaitReady blocks until selector matches within ReadinessTimeout.
func (n *Navigator) AwaitReady(ctx context.Context, page browser.Page, selector string) error {
	readyCtx, cancel := context.WithTimeout(ctx, n.ReadinessTimeout)
	defer cancel()

	if err := page.WaitElement(readyCtx, selector); err != nil {
		return categorizeError(err, models.ErrCodeReadinessTimeout, models.ErrCodeReadinessTimeout,
			"search results did not render")
	}
	return nil
}

// Snapshot writes a screenshot named name.png into SnapshotDir. Every
// failure is logged at debug level and otherwise ignored.
func (n *Navigator) Snapshot(ctx context.Context, page browser.Page, name string) {
	if n.SnapshotDir == "" {
		return
	}
	shotCtx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	data, err := page.Screenshot(shotCtx)
	if err != nil {
		slog.Debug("snapshot skipped", "name", name, "error", err)
		return
	}
	if err := os.MkdirAll(n.SnapshotDir, 0o755); err != nil {
		slog.Debug("snapshot dir unavailable", "dir", n.SnapshotDir, "error", err)
		return
	}
	path := filepath.Join(n.SnapshotDir, name+".png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		slog.Debug("snapshot write failed", "path", path, "error", err)
		return
	}
	slog.Debug("snapshot saved", "path", path)
}

// categorizeError wraps raw page errors into typed ScrapeErrors so the API
// layer can map them to HTTP status codes. Deadlines become timeoutCode and
// failed direct fetches become UPSTREAM_FETCH_FAILED. Anything else gets
// fallbackCode.
func categorizeError(err error, timeoutCode, fallbackCode, msg string) *models.ScrapeError {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se
	}
	var fe *browser.FetchError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(timeoutCode, msg+": timed out", err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(timeoutCode, "request canceled", err)
	case errors.As(err, &fe):
		return models.NewScrapeError(models.ErrCodeUpstream, fetchMessage(fe), err)
	case errors.Is(err, browser.ErrSelectorAbsent):
		return models.NewScrapeError(models.ErrCodeReadinessTimeout, msg, err)
	default:
		return models.NewScrapeError(fallbackCode, msg, err)
	}
}

func fetchMessage(fe *browser.FetchError) string {
	if fe.StatusCode != 0 {
		return fmt.Sprintf("upstream returned HTTP %d", fe.StatusCode)
	}
	return "upstream fetch failed"
}

// Package scraper drives one scrape invocation: site lookup, session
// acquisition, navigation, readiness, extraction and normalization.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/sneakerscope/browser"
	"github.com/use-agent/sneakerscope/config"
	"github.com/use-agent/sneakerscope/metrics"
	"github.com/use-agent/sneakerscope/models"
	"github.com/use-agent/sneakerscope/sites"
)

// brandScanLimit is the candidate bound used while a brand filter is set.
const brandScanLimit = 100

// Phase is a step of the invocation lifecycle.
type Phase string

const (
	PhaseInit       Phase = "INIT"
	PhaseLaunched   Phase = "LAUNCHED"
	PhaseNavigated  Phase = "NAVIGATED"
	PhaseReady      Phase = "READY"
	PhaseExtracting Phase = "EXTRACTING"
	PhaseDone       Phase = "DONE"
	PhaseFailed     Phase = "FAILED"
	PhaseClosed     Phase = "CLOSED"
)

// PhaseHook observes every phase an invocation enters.
type PhaseHook func(invocationID string, site sites.Site, phase Phase)

// Option configures a Router.
type Option func(*Router)

// WithPhaseHook registers h to be called on every phase transition.
func WithPhaseHook(h PhaseHook) Option {
	return func(r *Router) { r.hook = h }
}

// WithMetrics records invocation metrics to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) {
		r.metrics = m
		r.extractor = NewExtractor(m)
	}
}

// Router resolves a site identifier to its adapter and runs one isolated
// invocation per call. It is safe for concurrent use; at most MaxSessions
// browser sessions are open at once.
type Router struct {
	registry   *sites.Registry
	launcher   browser.Launcher
	launchOpts browser.LaunchOptions
	navigator  *Navigator
	extractor  *Extractor
	metrics    *metrics.Metrics
	hook       PhaseHook

	slots       chan struct{}
	maxSessions int
	active      atomic.Int32
	startTime   time.Time
}

// NewRouter builds a Router over registry that opens sessions with launcher.
func NewRouter(registry *sites.Registry, launcher browser.Launcher, cfg *config.Config, opts ...Option) *Router {
	maxSessions := max(cfg.Browser.MaxSessions, 1)
	userAgent := cfg.Browser.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}
	r := &Router{
		registry: registry,
		launcher: launcher,
		launchOpts: browser.LaunchOptions{
			Headless:  cfg.Browser.Headless,
			UserAgent: userAgent,
		},
		navigator:   NewNavigator(cfg.Scraper),
		extractor:   NewExtractor(nil),
		slots:       make(chan struct{}, maxSessions),
		maxSessions: maxSessions,
		startTime:   time.Now(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sites returns the routing metadata of every supported site.
func (r *Router) Sites() []models.SiteInfo {
	return r.registry.Sites()
}

// Stats returns a snapshot of session usage.
func (r *Router) Stats() models.SessionStats {
	return models.SessionStats{
		MaxSessions:    r.maxSessions,
		ActiveSessions: int(r.active.Load()),
	}
}

// Uptime reports how long the router has existed.
func (r *Router) Uptime() time.Duration {
	return time.Since(r.startTime)
}

// Route returns up to q.Limit sneakers from siteID in page order. On error
// the returned slice is nil; partial results are never returned.
func (r *Router) Route(ctx context.Context, siteID string, q models.SearchQuery) ([]models.Sneaker, error) {
	adapter, err := r.registry.Lookup(siteID)
	if err != nil {
		return nil, err
	}
	if q.Limit <= 0 {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput,
			fmt.Sprintf("limit must be positive, got %d", q.Limit), nil)
	}

	inv := &invocation{id: uuid.NewString(), site: adapter.Site(), hook: r.hook}
	start := time.Now()
	inv.enter(PhaseInit)

	var items []models.ExtractedItem
	switch a := adapter.(type) {
	case sites.LiveAdapter:
		items, err = r.scrapeLive(ctx, inv, a, q)
	case sites.SyntheticAdapter:
		items, err = r.synthesize(inv, a, q)
	default:
		err = models.NewScrapeError(models.ErrCodeInternal,
			fmt.Sprintf("site %s has no data source", adapter.Site()), nil)
		inv.enter(PhaseFailed)
		inv.enter(PhaseClosed)
	}

	elapsed := time.Since(start)
	if err != nil {
		r.metrics.ObserveInvocation(string(inv.site), metrics.OutcomeFailure, elapsed.Seconds())
		slog.Info("scrape failed",
			"invocation", inv.id,
			"site", inv.site,
			"code", models.CodeOf(err),
			"duration", elapsed,
			"error", err,
		)
		return nil, err
	}

	sneakers := normalize(adapter, items, q)
	r.metrics.ObserveInvocation(string(inv.site), metrics.OutcomeSuccess, elapsed.Seconds())
	slog.Info("scrape completed",
		"invocation", inv.id,
		"site", inv.site,
		"extracted", len(items),
		"returned", len(sneakers),
		"duration", elapsed,
	)
	return sneakers, nil
}

func (r *Router) synthesize(inv *invocation, a sites.SyntheticAdapter, q models.SearchQuery) ([]models.ExtractedItem, error) {
	inv.enter(PhaseExtracting)
	sq := q
	sq.Limit = scanBound(q)
	items := a.Synthesize(sq)
	inv.enter(PhaseDone)
	inv.enter(PhaseClosed)
	return items, nil
}

// scrapeLive runs the browser half of an invocation. The session, when one
// was launched, is released exactly once on every return path, panics
// included.
func (r *Router) scrapeLive(ctx context.Context, inv *invocation, a sites.LiveAdapter, q models.SearchQuery) (items []models.ExtractedItem, err error) {
	if err := r.acquireSlot(ctx); err != nil {
		inv.enter(PhaseFailed)
		inv.enter(PhaseClosed)
		return nil, err
	}
	defer r.releaseSlot()

	var handle *browser.Handle
	defer func() {
		if rec := recover(); rec != nil {
			items = nil
			err = models.NewScrapeError(models.ErrCodeInternal, "scrape aborted", fmt.Errorf("panic: %v", rec))
		}
		if err != nil {
			inv.enter(PhaseFailed)
		} else {
			inv.enter(PhaseDone)
		}
		if handle != nil {
			if relErr := handle.Release(); relErr != nil {
				slog.Warn("session release failed", "invocation", inv.id, "error", relErr)
			}
			r.active.Add(-1)
			r.metrics.SessionClosed()
		}
		inv.enter(PhaseClosed)
	}()

	handle, err = browser.Acquire(ctx, r.launcher, r.launchOpts)
	if err != nil {
		return nil, err
	}
	r.active.Add(1)
	r.metrics.SessionOpened()
	inv.enter(PhaseLaunched)

	target := a.BuildSearchURL(q)
	slog.Debug("navigating", "invocation", inv.id, "url", target)
	page, err := r.navigator.Navigate(ctx, handle, target)
	if err != nil {
		return nil, err
	}
	defer page.Close()
	inv.enter(PhaseNavigated)

	profile := a.Profile()
	if err = r.navigator.AwaitReady(ctx, page, profile.ReadinessSelector); err != nil {
		return nil, err
	}
	inv.enter(PhaseReady)
	r.navigator.Snapshot(ctx, page, fmt.Sprintf("%s-%s", inv.site, inv.id))

	inv.enter(PhaseExtracting)
	return r.extractor.Extract(ctx, page, string(inv.site), profile, scanBound(q))
}

// scanBound is how many candidates to read for q. A brand filter may
// discard candidates, so more are read before the limit is applied.
func scanBound(q models.SearchQuery) int {
	if q.Brand != "" {
		return max(q.Limit, brandScanLimit)
	}
	return q.Limit
}

func (r *Router) acquireSlot(ctx context.Context) error {
	select {
	case r.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return models.NewScrapeError(models.ErrCodeLaunch, "no browser session became available", ctx.Err())
	}
}

func (r *Router) releaseSlot() {
	<-r.slots
}

// normalize maps items through the adapter, applies the brand filter and
// caps the result at q.Limit, keeping page order.
func normalize(a sites.Adapter, items []models.ExtractedItem, q models.SearchQuery) []models.Sneaker {
	out := make([]models.Sneaker, 0, min(len(items), q.Limit))
	for _, item := range items {
		if len(out) == q.Limit {
			break
		}
		s := a.Normalize(item)
		if q.Brand != "" && !strings.EqualFold(s.Brand, strings.TrimSpace(q.Brand)) {
			continue
		}
		out = append(out, s)
	}
	return out
}

type invocation struct {
	id   string
	site sites.Site
	hook PhaseHook
}

func (inv *invocation) enter(p Phase) {
	slog.Debug("scrape phase", "invocation", inv.id, "site", inv.site, "phase", p)
	if inv.hook != nil {
		inv.hook(inv.id, inv.site, p)
	}
}

package scraper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/use-agent/sneakerscope/browser"
	"github.com/use-agent/sneakerscope/sites"
)

// card is one search result in a fixture page. Empty fields are left out
// of the markup.
type card struct {
	title string
	price string
	href  string
	image string
}

func namedCard(name string) card {
	return card{
		title: "Air Max " + name,
		price: "$120.00",
		href:  "/dp/" + name,
		image: "https://m.media-amazon.com/images/I/" + name + ".jpg",
	}
}

func searchPage(cards ...card) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="s-main-slot">`)
	for _, c := range cards {
		b.WriteString(`<div data-component-type="s-search-result">`)
		if c.image != "" {
			fmt.Fprintf(&b, `<img class="s-image" src="%s">`, c.image)
		}
		if c.title != "" {
			fmt.Fprintf(&b, `<h2 class="a-size-base-plus"><span>%s</span></h2>`, c.title)
		}
		if c.href != "" {
			fmt.Fprintf(&b, `<a class="a-link-normal" href="%s">See options</a>`, c.href)
		}
		if c.price != "" {
			fmt.Fprintf(&b, `<span class="a-price"><span class="a-offscreen">%s</span></span>`, c.price)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

var nikeProfile = sites.NewNike().Profile()

// loadPage returns a navigated static page holding html.
func loadPage(t *testing.T, html string) browser.Page {
	t.Helper()
	const u = "https://www.amazon.com/s?k=test"
	ctx := context.Background()
	s, err := browser.NewStaticLauncher(map[string]string{u: html}).Launch(ctx, browser.LaunchOptions{})
	if err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	page, err := s.NewPage(ctx)
	if err != nil {
		t.Fatalf("NewPage() error = %v", err)
	}
	if err := page.Navigate(ctx, u); err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}
	return page
}

// fakePage is a browser.Page whose behaviour is set per test. Nil hooks succeed.
type fakePage struct {
	navigate   func(ctx context.Context, url string) error
	wait       func(ctx context.Context, selector string) error
	elements   func(ctx context.Context, selector string) ([]browser.Node, error)
	screenshot func(ctx context.Context) ([]byte, error)
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	if p.navigate == nil {
		return nil
	}
	return p.navigate(ctx, url)
}

func (p *fakePage) WaitElement(ctx context.Context, selector string) error {
	if p.wait == nil {
		return nil
	}
	return p.wait(ctx, selector)
}

func (p *fakePage) Elements(ctx context.Context, selector string) ([]browser.Node, error) {
	if p.elements == nil {
		return nil, nil
	}
	return p.elements(ctx, selector)
}

func (p *fakePage) Screenshot(ctx context.Context) ([]byte, error) {
	if p.screenshot == nil {
		return nil, browser.ErrUnsupported
	}
	return p.screenshot(ctx)
}

func (p *fakePage) Close() error { return nil }

// blockUntilDone waits for the context deadline like a stalled browser would.
func blockUntilDone(ctx context.Context, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

// panicNode fails hard on every read.
type panicNode struct{}

func (panicNode) Find(string) (browser.Node, bool, error) { panic("node detached") }
func (panicNode) FindAll(string) ([]browser.Node, error)  { panic("node detached") }
func (panicNode) Text() (string, error)                   { panic("node detached") }
func (panicNode) Attr(string) (string, bool, error)       { panic("node detached") }

// pageLauncher hands out sessions whose only page is page.
type pageLauncher struct {
	page browser.Page
}

func (l *pageLauncher) Launch(ctx context.Context, opts browser.LaunchOptions) (browser.Session, error) {
	return pageSession{page: l.page}, nil
}

type pageSession struct {
	page browser.Page
}

func (s pageSession) NewPage(ctx context.Context) (browser.Page, error) { return s.page, nil }
func (s pageSession) Close() error                                     { return nil }

// countingLauncher counts launches and session closes of an inner launcher.
type countingLauncher struct {
	inner browser.Launcher
	err   error

	launches atomic.Int32
	closes   atomic.Int32
}

func (l *countingLauncher) Launch(ctx context.Context, opts browser.LaunchOptions) (browser.Session, error) {
	l.launches.Add(1)
	if l.err != nil {
		return nil, l.err
	}
	s, err := l.inner.Launch(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &countingSession{Session: s, closes: &l.closes}, nil
}

type countingSession struct {
	browser.Session
	closes *atomic.Int32
}

func (s *countingSession) Close() error {
	s.closes.Add(1)
	return s.Session.Close()
}

// phaseRecorder collects the phases of every invocation.
type phaseRecorder struct {
	mu     sync.Mutex
	phases []Phase
}

func (r *phaseRecorder) hook(_ string, _ sites.Site, p Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phases = append(r.phases, p)
}

func (r *phaseRecorder) get() []Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Phase(nil), r.phases...)
}

// metricValue returns the value of the counter series name{labels}, or 0.
func metricValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	series:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue series
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

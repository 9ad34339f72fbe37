package browser

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/sneakerscope/config"
	"github.com/use-agent/sneakerscope/models"
	"github.com/ysmood/gson"
)

// RodLauncher starts a dedicated Chromium process per session.
type RodLauncher struct {
	cfg config.BrowserConfig
}

// NewRodLauncher creates a launcher using the binary, proxy and sandbox
// settings of cfg.
func NewRodLauncher(cfg config.BrowserConfig) *RodLauncher {
	return &RodLauncher{cfg: cfg}
}

// Launch starts Chromium, connects over CDP and opens an incognito context.
// Every partially acquired resource is torn down on failure.
func (l *RodLauncher) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	ln := launcher.New().
		Headless(opts.Headless).
		NoSandbox(l.cfg.NoSandbox)

	if l.cfg.BrowserBin != "" {
		ln = ln.Bin(l.cfg.BrowserBin)
	}
	if l.cfg.Proxy != "" {
		ln = ln.Proxy(l.cfg.Proxy)
	}

	ln.Set(flags.Flag("disable-dev-shm-usage"))
	ln.Set(flags.Flag("disable-extensions"))
	ln.Set(flags.Flag("disable-default-apps"))
	ln.Set(flags.Flag("disable-component-update"))
	ln.Set(flags.Flag("no-first-run"))

	controlURL, err := ln.Launch()
	if err != nil {
		ln.Kill()
		return nil, models.NewScrapeError(models.ErrCodeLaunch, "failed to launch browser", err)
	}

	root := rod.New().ControlURL(controlURL)
	if err := root.Connect(); err != nil {
		ln.Kill()
		ln.Cleanup()
		return nil, models.NewScrapeError(models.ErrCodeLaunch, "failed to connect to browser", err)
	}

	incognito, err := root.Incognito()
	if err != nil {
		_ = root.Close()
		ln.Kill()
		ln.Cleanup()
		return nil, models.NewScrapeError(models.ErrCodeLaunch, "failed to create isolated browser context", err)
	}

	slog.Debug("browser launched", "controlURL", controlURL, "headless", opts.Headless)

	return &rodSession{
		launcher:  ln,
		root:      root,
		incognito: incognito,
		userAgent: opts.UserAgent,
		headers:   l.cfg.ExtraHeaders,
		blocked:   l.cfg.BlockedResourceTypes,
	}, nil
}

type rodSession struct {
	launcher  *launcher.Launcher
	root      *rod.Browser
	incognito *rod.Browser
	userAgent string
	headers   map[string]string
	blocked   []string
}

func (s *rodSession) NewPage(ctx context.Context) (Page, error) {
	page, err := s.incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}

	if s.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      s.userAgent,
			AcceptLanguage: "en-US,en;q=0.9",
		}); err != nil {
			_ = page.Close()
			return nil, err
		}
	}
	if len(s.headers) > 0 {
		if err := (proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(s.headers)}).Call(page); err != nil {
			slog.Warn("extra headers not applied", "error", err)
		}
	}

	return &rodPage{
		page:   page,
		router: setupHijack(page, s.blocked),
	}, nil
}

// Close disposes the incognito context, closes the browser and kills the
// process. All steps run even if an earlier one fails.
func (s *rodSession) Close() error {
	var errs []error
	if err := s.incognito.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.root.Close(); err != nil {
		errs = append(errs, err)
	}
	s.launcher.Kill()
	s.launcher.Cleanup()
	return errors.Join(errs...)
}

type rodPage struct {
	page   *rod.Page
	router *rod.HijackRouter
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	pg := p.page.Context(ctx)
	if err := pg.Navigate(url); err != nil {
		return err
	}
	return pg.WaitLoad()
}

func (p *rodPage) WaitElement(ctx context.Context, selector string) error {
	_, err := p.page.Context(ctx).Element(selector)
	return err
}

func (p *rodPage) Elements(ctx context.Context, selector string) ([]Node, error) {
	els, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrapRodElements(els), nil
}

func (p *rodPage) Screenshot(ctx context.Context) ([]byte, error) {
	return p.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

func (p *rodPage) Close() error {
	if p.router != nil {
		_ = p.router.Stop()
	}
	return p.page.Close()
}

type rodNode struct {
	el *rod.Element
}

func wrapRodElements(els rod.Elements) []Node {
	nodes := make([]Node, len(els))
	for i, el := range els {
		nodes[i] = rodNode{el: el}
	}
	return nodes
}

func (n rodNode) Find(selector string) (Node, bool, error) {
	has, el, err := n.el.Has(selector)
	if err != nil {
		return nil, false, err
	}
	if !has {
		return nil, false, nil
	}
	return rodNode{el: el}, true, nil
}

func (n rodNode) FindAll(selector string) ([]Node, error) {
	els, err := n.el.Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrapRodElements(els), nil
}

// Text prefers innerText and falls back to textContent, which is still
// populated for visually hidden elements such as screen-reader price spans.
func (n rodNode) Text() (string, error) {
	text, err := n.el.Text()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) != "" {
		return text, nil
	}
	prop, err := n.el.Property("textContent")
	if err != nil {
		return text, nil
	}
	return prop.Str(), nil
}

func (n rodNode) Attr(name string) (string, bool, error) {
	v, err := n.el.Attribute(name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

package browser

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// FetchFunc returns the raw HTML of url.
type FetchFunc func(ctx context.Context, url string) ([]byte, error)

// documentSession renders nothing: pages hold the parsed HTML exactly as
// fetched, so content produced by JavaScript is never present.
type documentSession struct {
	fetch FetchFunc
}

func (s *documentSession) NewPage(ctx context.Context) (Page, error) {
	return &documentPage{fetch: s.fetch}, nil
}

func (s *documentSession) Close() error { return nil }

type documentPage struct {
	fetch FetchFunc

	mu  sync.Mutex
	doc *goquery.Document
}

func (p *documentPage) Navigate(ctx context.Context, url string) error {
	body, err := p.fetch(ctx, url)
	if err != nil {
		return err
	}
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("parse %s: %w", url, err)
	}
	p.mu.Lock()
	p.doc = goquery.NewDocumentFromNode(root)
	p.mu.Unlock()
	return nil
}

func (p *documentPage) document() (*goquery.Document, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.doc == nil {
		return nil, fmt.Errorf("browser: page has no document, navigate first")
	}
	return p.doc, nil
}

// WaitElement checks the selector once. A static document will not change,
// so an absent selector fails immediately with ErrSelectorAbsent.
func (p *documentPage) WaitElement(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := p.document()
	if err != nil {
		return err
	}
	m, err := compile(selector)
	if err != nil {
		return err
	}
	if doc.FindMatcher(m).Length() == 0 {
		return fmt.Errorf("%w: %s", ErrSelectorAbsent, selector)
	}
	return nil
}

func (p *documentPage) Elements(ctx context.Context, selector string) ([]Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := p.document()
	if err != nil {
		return nil, err
	}
	m, err := compile(selector)
	if err != nil {
		return nil, err
	}
	return wrapSelection(doc.FindMatcher(m)), nil
}

func (p *documentPage) Screenshot(ctx context.Context) ([]byte, error) {
	return nil, ErrUnsupported
}

func (p *documentPage) Close() error { return nil }

type docNode struct {
	sel *goquery.Selection
}

func wrapSelection(sel *goquery.Selection) []Node {
	nodes := make([]Node, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, docNode{sel: s})
	})
	return nodes
}

func (n docNode) Find(selector string) (Node, bool, error) {
	m, err := compile(selector)
	if err != nil {
		return nil, false, err
	}
	found := n.sel.FindMatcher(m).First()
	if found.Length() == 0 {
		return nil, false, nil
	}
	return docNode{sel: found}, true, nil
}

func (n docNode) FindAll(selector string) ([]Node, error) {
	m, err := compile(selector)
	if err != nil {
		return nil, err
	}
	return wrapSelection(n.sel.FindMatcher(m)), nil
}

func (n docNode) Text() (string, error) {
	return n.sel.Text(), nil
}

func (n docNode) Attr(name string) (string, bool, error) {
	v, ok := n.sel.Attr(name)
	return v, ok, nil
}

// compile parses a CSS selector group, reporting syntax errors instead of panicking.
func compile(selector string) (cascadia.Selector, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("browser: invalid selector %q: %w", selector, err)
	}
	return sel, nil
}

// ValidSelector reports whether selector parses as CSS.
func ValidSelector(selector string) error {
	_, err := compile(selector)
	return err
}

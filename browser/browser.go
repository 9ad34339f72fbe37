// Package browser acquires isolated page-rendering sessions and exposes the
// rendered DOM through a small interface, so the extraction pipeline runs
// the same way against headless Chrome, a plain HTTP fetch, or fixtures.
package browser

import (
	"context"
	"errors"
	"fmt"
)

// LaunchOptions are the per-session launch parameters.
type LaunchOptions struct {
	Headless  bool
	UserAgent string
}

// Launcher starts a new isolated session.
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Session, error)
}

// Session is one isolated browsing context. Close releases every resource
// the session owns, pages included.
type Session interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is a single tab inside a session.
type Page interface {
	// Navigate loads url and returns once the load event fired.
	Navigate(ctx context.Context, url string) error

	// WaitElement blocks until selector matches or ctx is done.
	WaitElement(ctx context.Context, selector string) error

	// Elements returns every match of selector in document order without waiting.
	Elements(ctx context.Context, selector string) ([]Node, error)

	// Screenshot captures the current viewport as PNG.
	Screenshot(ctx context.Context) ([]byte, error)

	Close() error
}

// Node is a handle to one rendered element. It is only valid until the page
// that produced it is closed.
type Node interface {
	// Find returns the first descendant matching selector without waiting.
	Find(selector string) (Node, bool, error)

	// FindAll returns every descendant matching selector.
	FindAll(selector string) ([]Node, error)

	// Text returns the rendered text of the element.
	Text() (string, error)

	// Attr returns the attribute value and whether it is present.
	Attr(name string) (string, bool, error)
}

// ErrSelectorAbsent is returned by pages that cannot wait for content to
// appear (no JavaScript) when the selector does not match.
var ErrSelectorAbsent = errors.New("browser: selector not present in document")

// ErrUnsupported is returned for operations a backend cannot perform.
var ErrUnsupported = errors.New("browser: operation not supported by this backend")

// FetchError reports a failed direct document fetch.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

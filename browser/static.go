package browser

import (
	"context"
	"net/http"
	"os"
)

// StaticLauncher serves pages from in-memory HTML. It backs offline replays of
// saved search pages and the pipeline tests.
type StaticLauncher struct {
	pages    map[string]string
	fallback string
}

// NewStaticLauncher serves pages[url] for each navigation. Unknown URLs fail
// with a 404 FetchError.
func NewStaticLauncher(pages map[string]string) *StaticLauncher {
	return &StaticLauncher{pages: pages}
}

// NewFileLauncher serves the HTML file at path for every URL.
func NewFileLauncher(path string) (*StaticLauncher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &StaticLauncher{fallback: string(data)}, nil
}

func (l *StaticLauncher) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &documentSession{fetch: l.fetch}, nil
}

func (l *StaticLauncher) fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if body, ok := l.pages[url]; ok {
		return []byte(body), nil
	}
	if l.fallback != "" {
		return []byte(l.fallback), nil
	}
	return nil, &FetchError{URL: url, StatusCode: http.StatusNotFound}
}

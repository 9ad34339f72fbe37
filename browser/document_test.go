package browser

import (
	"context"
	"errors"
	"testing"
)

const listingHTML = `<html><body>
<div class="result" id="r1"><h2><span>First</span></h2><a class="link" href="/dp/1">go</a><img src="https://img/1.jpg"></div>
<div class="result" id="r2"><h2><span>Second</span></h2></div>
<div class="result" id="r3"><h2><span>Third</span></h2><a class="link" href="/dp/3">go</a></div>
</body></html>`

func newLoadedPage(t *testing.T) Page {
	t.Helper()
	ctx := context.Background()
	l := NewStaticLauncher(map[string]string{"https://shop.test/s": listingHTML})
	s, err := l.Launch(ctx, LaunchOptions{Headless: true})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	p, err := s.NewPage(ctx)
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	if err := p.Navigate(ctx, "https://shop.test/s"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	return p
}

func TestDocumentPage_ElementsInDocumentOrder(t *testing.T) {
	p := newLoadedPage(t)

	nodes, err := p.Elements(context.Background(), "div.result")
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("got %d nodes, want 3", len(nodes))
	}

	want := []string{"r1", "r2", "r3"}
	for i, n := range nodes {
		id, ok, err := n.Attr("id")
		if err != nil || !ok {
			t.Fatalf("node %d: id missing (err=%v)", i, err)
		}
		if id != want[i] {
			t.Errorf("node %d id = %q, want %q", i, id, want[i])
		}
	}
}

func TestDocumentNode_FindDoesNotWait(t *testing.T) {
	p := newLoadedPage(t)
	nodes, _ := p.Elements(context.Background(), "div.result")

	if _, ok, err := nodes[1].Find("a.link"); err != nil || ok {
		t.Errorf("second result should have no link, got ok=%v err=%v", ok, err)
	}

	title, ok, err := nodes[0].Find("h2 span")
	if err != nil || !ok {
		t.Fatalf("first result title missing: ok=%v err=%v", ok, err)
	}
	if text, _ := title.Text(); text != "First" {
		t.Errorf("title text = %q, want First", text)
	}
}

func TestDocumentNode_InvalidSelector(t *testing.T) {
	p := newLoadedPage(t)
	nodes, _ := p.Elements(context.Background(), "div.result")

	if _, _, err := nodes[0].Find("[[["); err == nil {
		t.Error("expected error for invalid selector")
	}
}

func TestDocumentPage_WaitElement(t *testing.T) {
	p := newLoadedPage(t)
	ctx := context.Background()

	if err := p.WaitElement(ctx, "div.result"); err != nil {
		t.Errorf("WaitElement on present selector: %v", err)
	}
	err := p.WaitElement(ctx, "div.missing")
	if !errors.Is(err, ErrSelectorAbsent) {
		t.Errorf("WaitElement on absent selector = %v, want ErrSelectorAbsent", err)
	}
}

func TestDocumentPage_ScreenshotUnsupported(t *testing.T) {
	p := newLoadedPage(t)
	if _, err := p.Screenshot(context.Background()); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Screenshot error = %v, want ErrUnsupported", err)
	}
}

func TestStaticLauncher_UnknownURL(t *testing.T) {
	ctx := context.Background()
	s, _ := NewStaticLauncher(nil).Launch(ctx, LaunchOptions{})
	p, _ := s.NewPage(ctx)

	err := p.Navigate(ctx, "https://shop.test/nowhere")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Navigate error = %v, want *FetchError", err)
	}
	if fe.StatusCode != 404 {
		t.Errorf("status = %d, want 404", fe.StatusCode)
	}
}

func TestDocumentPage_ElementsBeforeNavigate(t *testing.T) {
	ctx := context.Background()
	s, _ := NewStaticLauncher(nil).Launch(ctx, LaunchOptions{})
	p, _ := s.NewPage(ctx)

	if _, err := p.Elements(ctx, "div"); err == nil {
		t.Error("expected error when no document is loaded")
	}
}

func TestValidSelector(t *testing.T) {
	tests := []struct {
		sel  string
		want bool
	}{
		{`[data-component-type="s-search-result"]`, true},
		{"h2.a-size-base-plus span", true},
		{"span.a-price span.a-offscreen, span.price", true},
		{"div[", false},
	}
	for _, tt := range tests {
		err := ValidSelector(tt.sel)
		if (err == nil) != tt.want {
			t.Errorf("ValidSelector(%q) err = %v, want valid=%v", tt.sel, err, tt.want)
		}
	}
}

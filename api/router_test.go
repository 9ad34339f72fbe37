package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/sneakerscope/browser"
	"github.com/use-agent/sneakerscope/config"
	"github.com/use-agent/sneakerscope/metrics"
	"github.com/use-agent/sneakerscope/models"
	"github.com/use-agent/sneakerscope/scraper"
	"github.com/use-agent/sneakerscope/sites"
)

const resultsPage = `<html><body>
<div data-component-type="s-search-result">
  <img class="s-image" src="https://m.media-amazon.com/images/I/pegasus.jpg">
  <h2 class="a-size-base-plus"><span>Nike Pegasus 41</span></h2>
  <a class="a-link-normal" href="/dp/B0PEG">See options</a>
  <span class="a-price"><span class="a-offscreen">$139.99</span></span>
</div>
<div data-component-type="s-search-result">
  <h2 class="a-size-base-plus"><span>Nike Dunk Low</span></h2>
  <a class="a-link-normal" href="/dp/B0DUNK">See options</a>
  <span class="a-price"><span class="a-offscreen">$1,115.00</span></span>
</div>
</body></html>`

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Mode = gin.TestMode
	cfg.Scraper.ReadinessTimeout = 100 * time.Millisecond
	cfg.RateLimit.Enabled = false
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, pages map[string]string) *gin.Engine {
	t.Helper()
	m := metrics.New()
	sr := scraper.NewRouter(sites.Default(), browser.NewStaticLauncher(pages), cfg, scraper.WithMetrics(m))
	return NewRouter(t.Context(), sr, m, cfg)
}

func nikePages() map[string]string {
	u := sites.NewNike().BuildSearchURL(models.SearchQuery{})
	return map[string]string{u: resultsPage}
}

func get(t *testing.T, r http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorDetail {
	t.Helper()
	var body models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	if body.Error == nil {
		t.Fatalf("body %q has no error", w.Body.String())
	}
	return *body.Error
}

func TestGetSneakers(t *testing.T) {
	r := newTestServer(t, testConfig(), nikePages())

	w := get(t, r, "/api/sneakers/nike")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var body struct {
		Sneakers []map[string]any `json:"sneakers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Sneakers) != 2 {
		t.Fatalf("got %d sneakers, want 2", len(body.Sneakers))
	}
	first := body.Sneakers[0]
	for _, key := range []string{"name", "brand", "price", "image_url", "product_url", "site", "available_sizes"} {
		if _, ok := first[key]; !ok {
			t.Errorf("field %q missing from %v", key, first)
		}
	}
	if _, ok := first["currency"]; ok {
		t.Error("currency exposed on the wire")
	}
	if first["name"] != "Nike Pegasus 41" || first["site"] != "nike" || first["brand"] != "Nike" {
		t.Errorf("first = %v", first)
	}
	if first["product_url"] != "https://www.amazon.com/dp/B0PEG" {
		t.Errorf("product_url = %v", first["product_url"])
	}
	if body.Sneakers[1]["price"] != 1115.0 {
		t.Errorf("second price = %v", body.Sneakers[1]["price"])
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not set")
	}
}

func TestGetSneakersErrors(t *testing.T) {
	r := newTestServer(t, testConfig(), map[string]string{
		sites.NewNike().BuildSearchURL(models.SearchQuery{}): "<html><body>Robot check</body></html>",
	})

	tests := []struct {
		path   string
		status int
		code   string
	}{
		{"/api/sneakers/adidas", http.StatusNotFound, models.ErrCodeUnsupportedSite},
		{"/api/sneakers/nike", http.StatusServiceUnavailable, models.ErrCodeReadinessTimeout},
		{"/api/sneakers/nike?q=unknown", http.StatusServiceUnavailable, models.ErrCodeUpstream},
		{"/api/sneakers/nike?limit=0", http.StatusBadRequest, models.ErrCodeInvalidInput},
		{"/api/sneakers/nike?limit=101", http.StatusBadRequest, models.ErrCodeInvalidInput},
		{"/api/sneakers/nike?limit=abc", http.StatusBadRequest, models.ErrCodeInvalidInput},
		{"/api/sneakers/footlocker?limit=-1", http.StatusBadRequest, models.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := get(t, r, tt.path)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.status, w.Body.String())
			}
			if got := decodeError(t, w); got.Code != tt.code {
				t.Errorf("code = %q, want %q", got.Code, tt.code)
			}
		})
	}
}

func TestGetSneakersUnsupportedSiteMessage(t *testing.T) {
	r := newTestServer(t, testConfig(), nil)
	w := get(t, r, "/api/sneakers/adidas")
	if got := decodeError(t, w); got.Message != "Site adidas not supported" {
		t.Errorf("message = %q", got.Message)
	}
}

func TestGetSneakersSyntheticWithBrand(t *testing.T) {
	r := newTestServer(t, testConfig(), nil)

	w := get(t, r, "/api/sneakers/footlocker?brand=ADIDAS&limit=4")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var body models.SneakersResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Sneakers) != 4 {
		t.Fatalf("got %d, want 4", len(body.Sneakers))
	}
	for _, s := range body.Sneakers {
		if s.Brand != "Adidas" {
			t.Errorf("brand = %q, want Adidas", s.Brand)
		}
		if len(s.AvailableSizes) != 5 {
			t.Errorf("sizes = %v", s.AvailableSizes)
		}
	}
}

func TestGetSites(t *testing.T) {
	r := newTestServer(t, testConfig(), nil)
	w := get(t, r, "/api/sites")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body models.SitesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	kinds := map[string]string{}
	for _, s := range body.Sites {
		kinds[s.Site] = s.Kind
	}
	if kinds["nike"] != "live" || kinds["footlocker"] != "synthetic" {
		t.Errorf("kinds = %v", kinds)
	}
}

func TestHealth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.APIKeys = []string{"secret"}
	r := newTestServer(t, cfg, nil)

	w := get(t, r, "/api/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body models.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "healthy" || body.SessionStats.MaxSessions != cfg.Browser.MaxSessions {
		t.Errorf("health = %+v", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestServer(t, testConfig(), nikePages())
	get(t, r, "/api/sneakers/nike")

	w := get(t, r, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	out := w.Body.String()
	for _, want := range []string{
		`sneakerscope_invocations_total{outcome="success",site="nike"} 1`,
		`sneakerscope_items_extracted_total{site="nike"} 2`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.APIKeys = []string{"secret"}
	r := newTestServer(t, cfg, nil)

	if w := get(t, r, "/api/sneakers/footlocker"); w.Code != http.StatusUnauthorized {
		t.Errorf("no key: status = %d, want 401", w.Code)
	}
	if w := get(t, r, "/api/sneakers/footlocker", "X-API-Key", "wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: status = %d, want 401", w.Code)
	}
	if w := get(t, r, "/api/sneakers/footlocker", "Authorization", "Bearer secret"); w.Code != http.StatusOK {
		t.Errorf("bearer key: status = %d, want 200", w.Code)
	}
	if w := get(t, r, "/api/sites"); w.Code != http.StatusOK {
		t.Errorf("sites without key: status = %d, want 200", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RequestsPerSecond = 0.01
	cfg.RateLimit.Burst = 1
	r := newTestServer(t, cfg, nil)

	if w := get(t, r, "/api/sneakers/footlocker"); w.Code != http.StatusOK {
		t.Fatalf("first request: status = %d", w.Code)
	}
	w := get(t, r, "/api/sneakers/footlocker")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status = %d, want 429", w.Code)
	}
	if got := decodeError(t, w); got.Code != models.ErrCodeRateLimited {
		t.Errorf("code = %q", got.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After not set")
	}
}

package sites

import (
	"strings"
	"testing"

	"github.com/use-agent/sneakerscope/models"
)

func TestLookup(t *testing.T) {
	r := Default()
	tests := []struct {
		id   string
		want Site
		ok   bool
	}{
		{"nike", Nike, true},
		{"NIKE", Nike, true},
		{" Footlocker ", Footlocker, true},
		{"adidas", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		a, err := r.Lookup(tt.id)
		if !tt.ok {
			if !models.IsCode(err, models.ErrCodeUnsupportedSite) {
				t.Errorf("Lookup(%q) error = %v, want %s", tt.id, err, models.ErrCodeUnsupportedSite)
			}
			continue
		}
		if err != nil {
			t.Errorf("Lookup(%q) error = %v", tt.id, err)
			continue
		}
		if a.Site() != tt.want {
			t.Errorf("Lookup(%q) = %s, want %s", tt.id, a.Site(), tt.want)
		}
	}
}

func TestRegistrySites(t *testing.T) {
	infos := Default().Sites()
	if len(infos) != 2 {
		t.Fatalf("got %d sites, want 2", len(infos))
	}
	if infos[0].Site != "nike" || infos[0].Kind != "live" || infos[0].DefaultQuery != "Nike sneakers" {
		t.Errorf("nike = %+v", infos[0])
	}
	if infos[1].Site != "footlocker" || infos[1].Kind != "synthetic" {
		t.Errorf("footlocker = %+v", infos[1])
	}
}

type brokenLive struct{ nikeAdapter }

func (brokenLive) Site() Site { return "broken" }
func (brokenLive) Profile() Profile {
	p := nikeAdapter{}.Profile()
	p.Price = "span[class="
	return p
}

type liveWithoutProfile struct{ footlockerAdapter }

func (liveWithoutProfile) Site() Site { return "noprofile" }
func (liveWithoutProfile) Kind() Kind { return KindLive }

func TestNewRegistryRejects(t *testing.T) {
	tests := []struct {
		name     string
		adapters []Adapter
		want     string
	}{
		{"duplicate", []Adapter{NewNike(), NewNike()}, "duplicate"},
		{"invalid selector", []Adapter{brokenLive{}}, "invalid selector"},
		{"live without profile", []Adapter{liveWithoutProfile{}}, "no page profile"},
	}
	for _, tt := range tests {
		_, err := NewRegistry(tt.adapters...)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: error = %v, want containing %q", tt.name, err, tt.want)
		}
	}
}

func TestNikeSearchURL(t *testing.T) {
	a := NewNike()
	tests := []struct {
		text string
		want string
	}{
		{"", "https://www.amazon.com/s?k=Nike+sneakers"},
		{"air max 90", "https://www.amazon.com/s?k=air+max+90"},
		{"dunk&low=1", "https://www.amazon.com/s?k=dunk%26low%3D1"},
	}
	for _, tt := range tests {
		if got := a.BuildSearchURL(models.SearchQuery{ProductText: tt.text}); got != tt.want {
			t.Errorf("BuildSearchURL(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestNikeNormalize(t *testing.T) {
	item := models.ExtractedItem{
		Title:    "Nike Air Max 270",
		Price:    150,
		Currency: "USD",
		URL:      "https://www.amazon.com/dp/B1",
		ImageURL: "https://m.media-amazon.com/images/I/1.jpg",
	}
	s := NewNike().Normalize(item)
	if s.Name != item.Title || s.Brand != "Nike" || s.Price != 150 || s.ProductURL != item.URL || s.ImageURL != item.ImageURL {
		t.Errorf("Normalize() = %+v", s)
	}
	if s.SiteName() != "nike" {
		t.Errorf("site = %q", s.SiteName())
	}
	if s.AvailableSizes == nil || len(s.AvailableSizes) != 0 {
		t.Errorf("sizes = %#v, want empty", s.AvailableSizes)
	}

	item.Brand = "Jordan"
	if got := NewNike().Normalize(item).Brand; got != "Jordan" {
		t.Errorf("extracted brand = %q, want Jordan", got)
	}
}

func TestFootlockerSynthesize(t *testing.T) {
	a := NewFootlocker()
	tests := []struct {
		limit int
		want  int
	}{
		{0, 0},
		{1, 1},
		{5, 5},
		{20, 20},
		{100, 20},
	}
	for _, tt := range tests {
		if got := len(a.Synthesize(models.SearchQuery{Limit: tt.limit})); got != tt.want {
			t.Errorf("Synthesize(limit=%d) = %d items, want %d", tt.limit, got, tt.want)
		}
	}

	items := a.Synthesize(models.SearchQuery{Limit: 2})
	first, second := a.Normalize(items[0]), a.Normalize(items[1])
	wantPrice := 89.99
	wantPrice += 1
	if first.Name != "Footlocker Exclusive 1" || first.Brand != "Nike" || first.Price != wantPrice {
		t.Errorf("first = %+v", first)
	}
	if second.Brand != "Adidas" {
		t.Errorf("second brand = %q, want Adidas", second.Brand)
	}
	if first.ProductURL != "https://www.footlocker.com/product/model/sneaker-1" ||
		first.ImageURL != "https://images.footlocker.com/is/image/product1" {
		t.Errorf("first urls = %q %q", first.ProductURL, first.ImageURL)
	}
	if strings.Join(first.AvailableSizes, ",") != "7,8,9,10,11" {
		t.Errorf("sizes = %v", first.AvailableSizes)
	}

	// Normalized records do not share the size slice.
	first.AvailableSizes[0] = "x"
	if a.Normalize(items[1]).AvailableSizes[0] != "7" {
		t.Error("size slice shared between records")
	}
}

func TestFootlockerDeterministic(t *testing.T) {
	a := NewFootlocker()
	q := models.SearchQuery{Limit: 7}
	x, y := a.Synthesize(q), a.Synthesize(q)
	for i := range x {
		if x[i].Title != y[i].Title || x[i].Price != y[i].Price || x[i].Brand != y[i].Brand {
			t.Fatalf("item %d differs: %+v vs %+v", i, x[i], y[i])
		}
	}
}

package sites

import (
	"fmt"
	"strings"

	"github.com/use-agent/sneakerscope/browser"
	"github.com/use-agent/sneakerscope/models"
)

// Registry is the fixed set of supported sites.
type Registry struct {
	adapters map[Site]Adapter
	order    []Site
}

// NewRegistry validates and registers adapters. A live adapter must expose a
// complete profile with parseable selectors; a synthetic one must implement
// SyntheticAdapter.
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{adapters: make(map[Site]Adapter, len(adapters))}
	for _, a := range adapters {
		site := Site(strings.ToLower(string(a.Site())))
		if _, dup := r.adapters[site]; dup {
			return nil, fmt.Errorf("sites: duplicate adapter for %q", site)
		}
		if err := checkAdapter(a); err != nil {
			return nil, fmt.Errorf("sites: %s: %w", site, err)
		}
		r.adapters[site] = a
		r.order = append(r.order, site)
	}
	return r, nil
}

// Default returns the registry of every built-in adapter.
func Default() *Registry {
	r, err := NewRegistry(NewNike(), NewFootlocker())
	if err != nil {
		panic(err)
	}
	return r
}

func checkAdapter(a Adapter) error {
	switch a.Kind() {
	case KindLive:
		live, ok := a.(LiveAdapter)
		if !ok {
			return fmt.Errorf("live adapter has no page profile")
		}
		return checkProfile(live.Profile())
	case KindSynthetic:
		if _, ok := a.(SyntheticAdapter); !ok {
			return fmt.Errorf("synthetic adapter cannot synthesize items")
		}
		return nil
	default:
		return fmt.Errorf("unknown adapter kind %q", a.Kind())
	}
}

func checkProfile(p Profile) error {
	if p.BaseURL == "" {
		return fmt.Errorf("profile has no base URL")
	}
	required := map[string]string{
		"readiness": p.ReadinessSelector,
		"container": p.Container,
		"title":     p.Title,
		"price":     p.Price,
		"link":      p.Link,
	}
	for name, sel := range required {
		if sel == "" {
			return fmt.Errorf("profile has no %s selector", name)
		}
	}
	for _, sel := range []string{p.ReadinessSelector, p.Container, p.Title, p.Price, p.Link, p.Image, p.Brand, p.Sizes} {
		if sel == "" {
			continue
		}
		if err := browser.ValidSelector(sel); err != nil {
			return err
		}
	}
	return nil
}

// Lookup resolves siteID case-insensitively. Unknown identifiers yield an
// UNSUPPORTED_SITE ScrapeError.
func (r *Registry) Lookup(siteID string) (Adapter, error) {
	a, ok := r.adapters[Site(strings.ToLower(strings.TrimSpace(siteID)))]
	if !ok {
		return nil, models.NewUnsupportedSiteError(siteID)
	}
	return a, nil
}

// Sites returns the routing metadata of every adapter in registration order.
func (r *Registry) Sites() []models.SiteInfo {
	infos := make([]models.SiteInfo, 0, len(r.order))
	for _, site := range r.order {
		a := r.adapters[site]
		infos = append(infos, models.SiteInfo{
			Site:         string(site),
			Kind:         string(a.Kind()),
			DefaultQuery: a.DefaultQuery(),
		})
	}
	return infos
}

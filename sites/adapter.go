// Package sites holds the per-site adapters and the closed registry that
// maps site identifiers onto them.
package sites

import (
	"github.com/use-agent/sneakerscope/models"
)

// Site is a supported site identifier.
type Site string

const (
	Nike       Site = "nike"
	Footlocker Site = "footlocker"
)

// Kind tells live data sources apart from stand-ins.
type Kind string

const (
	// KindLive adapters read a real, rendered search page.
	KindLive Kind = "live"

	// KindSynthetic adapters generate deterministic placeholder records and
	// never touch the network. They are not production data sources.
	KindSynthetic Kind = "synthetic"
)

// Adapter is the capability every site implements.
type Adapter interface {
	Site() Site
	Kind() Kind

	// DefaultQuery is the search text used when the caller supplies none.
	DefaultQuery() string

	// BuildSearchURL returns the search page for q, with the query text escaped.
	BuildSearchURL(q models.SearchQuery) string

	// Normalize maps one extracted item onto the canonical record.
	Normalize(item models.ExtractedItem) models.Sneaker
}

// LiveAdapter reads listings from a rendered page described by its Profile.
type LiveAdapter interface {
	Adapter
	Profile() Profile
}

// SyntheticAdapter produces items without a browser.
type SyntheticAdapter interface {
	Adapter

	// Synthesize returns at most q.Limit items, identical for identical queries.
	Synthesize(q models.SearchQuery) []models.ExtractedItem
}

// Profile describes where the fields of one result live on a search page.
type Profile struct {
	// BaseURL is the origin relative links are resolved against.
	BaseURL string

	// ReadinessSelector appears once the results have rendered.
	ReadinessSelector string

	// Container matches one element per result.
	Container string

	// Field selectors, relative to Container. Title, Price and Link are
	// mandatory; Image, Brand and Sizes are optional and may be empty.
	Title string
	Price string
	Link  string
	Image string
	Brand string
	Sizes string

	// Currency is the ISO code of prices on this page.
	Currency string
}

// canonical builds the record shared by every adapter. AvailableSizes is
// always a fresh, non-nil slice.
func canonical(item models.ExtractedItem, brand string, site Site) models.Sneaker {
	sizes := make([]string, len(item.Sizes))
	copy(sizes, item.Sizes)
	name := string(site)
	return models.Sneaker{
		Name:           item.Title,
		Brand:          brand,
		Price:          item.Price,
		Currency:       item.Currency,
		ImageURL:       item.ImageURL,
		ProductURL:     item.URL,
		Site:           &name,
		AvailableSizes: sizes,
	}
}

func queryText(a Adapter, q models.SearchQuery) string {
	if q.ProductText != "" {
		return q.ProductText
	}
	return a.DefaultQuery()
}

package models

// SearchQuery is the input to one scrape invocation.
type SearchQuery struct {
	// ProductText is the free-text query embedded (escaped) in the search URL.
	ProductText string

	// Limit is the maximum number of records returned. Must be > 0.
	Limit int

	// Brand, when set, keeps only records whose brand matches (case-insensitive).
	// It never alters the search URL.
	Brand string
}

// ExtractedItem holds the validated raw fields of one search result.
// The extractor only builds it once title, price and link are all present
// and the price parsed.
type ExtractedItem struct {
	Title    string
	Price    float64
	Currency string
	URL      string
	ImageURL string

	// Brand and Sizes are filled when the page exposes them.
	Brand string
	Sizes []string
}

// Sneaker is the canonical product record exposed to every caller.
type Sneaker struct {
	Name           string   `json:"name"`
	Brand          string   `json:"brand"`
	Price          float64  `json:"price"`
	Currency       string   `json:"-"`
	ImageURL       string   `json:"image_url"`
	ProductURL     string   `json:"product_url"`
	Site           *string  `json:"site"`
	AvailableSizes []string `json:"available_sizes"`
}

// SiteName returns the site label or "" when unset.
func (s Sneaker) SiteName() string {
	if s.Site == nil {
		return ""
	}
	return *s.Site
}

package sites

import (
	"net/url"

	"github.com/use-agent/sneakerscope/models"
)

// nikeAdapter lists Nike sneakers from the Amazon search results page.
type nikeAdapter struct{}

// NewNike returns the live Nike adapter.
func NewNike() LiveAdapter { return nikeAdapter{} }

func (nikeAdapter) Site() Site           { return Nike }
func (nikeAdapter) Kind() Kind           { return KindLive }
func (nikeAdapter) DefaultQuery() string { return "Nike sneakers" }

func (a nikeAdapter) BuildSearchURL(q models.SearchQuery) string {
	return "https://www.amazon.com/s?k=" + url.QueryEscape(queryText(a, q))
}

func (nikeAdapter) Profile() Profile {
	return Profile{
		BaseURL:           "https://www.amazon.com",
		ReadinessSelector: `[data-component-type="s-search-result"]`,
		Container:         `[data-component-type="s-search-result"]`,
		Title:             "h2.a-size-base-plus span, h2 span",
		Price:             "span.a-price span.a-offscreen",
		Link:              "a.a-link-normal",
		Image:             "img.s-image",
		Currency:          "USD",
	}
}

// Normalize uses the extracted brand when the page has one, else "Nike".
func (nikeAdapter) Normalize(item models.ExtractedItem) models.Sneaker {
	brand := item.Brand
	if brand == "" {
		brand = "Nike"
	}
	return canonical(item, brand, Nike)
}

package sites

import (
	"fmt"
	"net/url"
	"slices"

	"github.com/use-agent/sneakerscope/models"
)

// maxSynthetic caps the records a synthetic adapter produces.
const maxSynthetic = 20

var footlockerSizes = []string{"7", "8", "9", "10", "11"}

// footlockerAdapter is a synthetic stand-in until a live Footlocker
// profile exists.
type footlockerAdapter struct{}

// NewFootlocker returns the synthetic Footlocker adapter.
func NewFootlocker() SyntheticAdapter { return footlockerAdapter{} }

func (footlockerAdapter) Site() Site           { return Footlocker }
func (footlockerAdapter) Kind() Kind           { return KindSynthetic }
func (footlockerAdapter) DefaultQuery() string { return "" }

func (a footlockerAdapter) BuildSearchURL(q models.SearchQuery) string {
	if text := queryText(a, q); text != "" {
		return "https://www.footlocker.com/search?query=" + url.QueryEscape(text)
	}
	return "https://www.footlocker.com/category/shoes.html"
}

func (footlockerAdapter) Synthesize(q models.SearchQuery) []models.ExtractedItem {
	n := min(q.Limit, maxSynthetic)
	if n <= 0 {
		return []models.ExtractedItem{}
	}
	items := make([]models.ExtractedItem, 0, n)
	for i := 1; i <= n; i++ {
		brand := "Nike"
		if i%2 == 0 {
			brand = "Adidas"
		}
		items = append(items, models.ExtractedItem{
			Title:    fmt.Sprintf("Footlocker Exclusive %d", i),
			Price:    89.99 + float64(i),
			Currency: "USD",
			URL:      fmt.Sprintf("https://www.footlocker.com/product/model/sneaker-%d", i),
			ImageURL: fmt.Sprintf("https://images.footlocker.com/is/image/product%d", i),
			Brand:    brand,
			Sizes:    slices.Clone(footlockerSizes),
		})
	}
	return items
}

func (footlockerAdapter) Normalize(item models.ExtractedItem) models.Sneaker {
	return canonical(item, item.Brand, Footlocker)
}

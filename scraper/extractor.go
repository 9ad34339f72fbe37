package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/use-agent/sneakerscope/browser"
	"github.com/use-agent/sneakerscope/metrics"
	"github.com/use-agent/sneakerscope/models"
	"github.com/use-agent/sneakerscope/sites"
)

// Drop reasons, used in logs and as the "reason" metric label.
const (
	ReasonMissingTitle = "missing_title"
	ReasonMissingPrice = "missing_price"
	ReasonBadPrice     = "bad_price"
	ReasonMissingLink  = "missing_link"
	ReasonBadLink      = "bad_link"
	ReasonReadFailed   = "read_failed"
	ReasonPanic        = "panic"
)

// ItemError describes why one result candidate was dropped. It unwraps to
// an ITEM_EXTRACTION_FAILED ScrapeError.
type ItemError struct {
	Index  int
	Reason string

	err *models.ScrapeError
}

func newItemError(index int, reason string, cause error) *ItemError {
	msg := fmt.Sprintf("candidate %d: %s", index, reason)
	return &ItemError{
		Index:  index,
		Reason: reason,
		err:    models.NewScrapeError(models.ErrCodeItemExtraction, msg, cause),
	}
}

func (e *ItemError) Error() string { return e.err.Error() }

func (e *ItemError) Unwrap() error { return e.err }

// Extractor reads result candidates off a ready page. Candidates are
// processed one at a time; a failing candidate is dropped and never aborts
// the batch.
type Extractor struct {
	metrics *metrics.Metrics
}

// NewExtractor returns an Extractor reporting to m, which may be nil.
func NewExtractor(m *metrics.Metrics) *Extractor {
	return &Extractor{metrics: m}
}

// Extract returns the valid items among the first maxItems candidates
// matching profile.Container, in document order. Only a failure to list the
// candidates is returned as an error.
func (e *Extractor) Extract(ctx context.Context, page browser.Page, site string, profile sites.Profile, maxItems int) ([]models.ExtractedItem, error) {
	nodes, err := page.Elements(ctx, profile.Container)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeExtraction, "failed to list search results", err)
	}
	maxItems = max(maxItems, 0)
	if len(nodes) > maxItems {
		nodes = nodes[:maxItems]
	}

	items := make([]models.ExtractedItem, 0, len(nodes))
	for i, node := range nodes {
		item, itemErr := extractItem(i, node, profile)
		if itemErr != nil {
			slog.Warn("dropped result candidate",
				"site", site,
				"index", itemErr.Index,
				"reason", itemErr.Reason,
				"error", itemErr.err.Err,
			)
			e.metrics.ItemDropped(site, itemErr.Reason)
			continue
		}
		e.metrics.ItemExtracted(site)
		items = append(items, item)
	}
	return items, nil
}

// extractItem reads one candidate. A panic while reading is converted into
// an ItemError.
func extractItem(index int, node browser.Node, profile sites.Profile) (item models.ExtractedItem, itemErr *ItemError) {
	defer func() {
		if r := recover(); r != nil {
			item = models.ExtractedItem{}
			itemErr = newItemError(index, ReasonPanic, fmt.Errorf("panic: %v", r))
		}
	}()

	title, err := textOf(node, profile.Title)
	if err != nil {
		return item, newItemError(index, ReasonReadFailed, err)
	}
	if title == "" {
		return item, newItemError(index, ReasonMissingTitle, nil)
	}

	priceText, err := textOf(node, profile.Price)
	if err != nil {
		return item, newItemError(index, ReasonReadFailed, err)
	}
	if priceText == "" {
		return item, newItemError(index, ReasonMissingPrice, nil)
	}
	price, err := ParsePrice(priceText)
	if err != nil {
		return item, newItemError(index, ReasonBadPrice, err)
	}

	href, err := attrOf(node, profile.Link, "href")
	if err != nil {
		return item, newItemError(index, ReasonReadFailed, err)
	}
	if href == "" {
		return item, newItemError(index, ReasonMissingLink, nil)
	}
	link, err := resolveURL(profile.BaseURL, href)
	if err != nil {
		return item, newItemError(index, ReasonBadLink, err)
	}

	item = models.ExtractedItem{
		Title:    title,
		Price:    price,
		Currency: profile.Currency,
		URL:      link,
		Sizes:    []string{},
	}

	// Optional fields never drop the candidate.
	if profile.Image != "" {
		if src, err := attrOf(node, profile.Image, "src"); err == nil && src != "" {
			if abs, err := resolveURL(profile.BaseURL, src); err == nil {
				item.ImageURL = abs
			}
		}
	}
	if profile.Brand != "" {
		if brand, err := textOf(node, profile.Brand); err == nil {
			item.Brand = brand
		}
	}
	if profile.Sizes != "" {
		if sizes, err := textsOf(node, profile.Sizes); err == nil {
			item.Sizes = sizes
		}
	}
	return item, nil
}

// textOf returns the cleaned text of the first match of selector, or "".
func textOf(node browser.Node, selector string) (string, error) {
	n, ok, err := node.Find(selector)
	if err != nil || !ok {
		return "", err
	}
	text, err := n.Text()
	if err != nil {
		return "", err
	}
	return cleanText(text), nil
}

// attrOf returns attribute name of the first match of selector, or "".
func attrOf(node browser.Node, selector, name string) (string, error) {
	n, ok, err := node.Find(selector)
	if err != nil || !ok {
		return "", err
	}
	v, _, err := n.Attr(name)
	return v, err
}

// textsOf returns the non-empty cleaned texts of every match of selector.
func textsOf(node browser.Node, selector string) ([]string, error) {
	nodes, err := node.FindAll(selector)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		text, err := n.Text()
		if err != nil {
			return nil, err
		}
		if text = cleanText(text); text != "" {
			out = append(out, text)
		}
	}
	return out, nil
}

package scraper

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// pricePattern accepts plain decimals and decimals with comma thousands
// groups, after currency marks are removed.
var pricePattern = regexp.MustCompile(`^-?(\d{1,3}(,\d{3})+|\d+)(\.\d+)?$`)

// ParsePrice turns displayed price text such as "$1,299.00" into a number.
// Currency symbols, comma thousands separators, and ISO currency codes or
// whitespace at either end are stripped; any other character is an error.
// Negative values are errors too.
func ParsePrice(raw string) (float64, error) {
	s := strings.TrimFunc(raw, func(r rune) bool {
		return isCurrencyMark(r) || (r >= 'A' && r <= 'Z')
	})
	s = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Sc, r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0, fmt.Errorf("price %q has no digits", raw)
	}
	if !pricePattern.MatchString(s) {
		return 0, fmt.Errorf("price %q is not a number", raw)
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("price %q: %w", raw, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("price %q is negative", raw)
	}
	return v, nil
}

func isCurrencyMark(r rune) bool {
	return unicode.Is(unicode.Sc, r) || unicode.IsSpace(r)
}

// resolveURL resolves href against base and requires an absolute http(s) result.
func resolveURL(base, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", fmt.Errorf("empty link")
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse link %q: %w", href, err)
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base %q: %w", base, err)
	}
	u := b.ResolveReference(ref)
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("link %q is not an absolute http(s) URL", u.String())
	}
	return u.String(), nil
}

// cleanText collapses runs of whitespace into single spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

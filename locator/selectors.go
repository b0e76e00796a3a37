package locator

import (
	"errors"
	"fmt"

	"github.com/andybalholm/cascadia"
)

// DefaultSelectors lists the known retail price widgets, best first:
// the regular price block, then deal, sale, promo and business prices,
// then the generic price components.
var DefaultSelectors = []string{
	"#priceblock_ourprice",
	"#priceblock_dealprice",
	"#priceblock_saleprice",
	"#priceblock_pospromoprice",
	"#priceblock_businessprice",
	"span.a-price span.a-offscreen",
	"span.a-price-whole",
}

// ValidateSelectors checks that the list is non-empty and every entry is a
// syntactically valid CSS selector.
func ValidateSelectors(selectors []string) error {
	if len(selectors) == 0 {
		return errors.New("locator: empty selector list")
	}
	for i, s := range selectors {
		if _, err := cascadia.ParseGroup(s); err != nil {
			return fmt.Errorf("locator: selector %d (%q): %w", i, s, err)
		}
	}
	return nil
}

package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// boilerplateSelectors are removed from raw pages before they are turned
// into notes without readability's help.
var boilerplateSelectors = []string{
	"script", "style", "noscript", "template", "iframe",
	"nav", "header", "footer", "aside", "form",
	"[role=navigation]", "[role=banner]", "[aria-hidden=true]",
}

// FilterContent removes every element matching one of excludeSelectors.
// If the input cannot be parsed it is returned unchanged.
func FilterContent(html string, excludeSelectors []string) string {
	if len(excludeSelectors) == 0 {
		return html
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}

	for _, selector := range excludeSelectors {
		doc.Find(selector).Remove()
	}

	// Prefer the body so the note does not start with head leftovers.
	target := doc.Selection
	if body := doc.Find("body"); body.Length() > 0 {
		target = body
	}
	result, err := target.Html()
	if err != nil {
		return html
	}
	return result
}

// StripBoilerplate drops navigation, chrome and scripts from a raw page.
func StripBoilerplate(html string) string {
	return FilterContent(html, boilerplateSelectors)
}

package engine

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/pricenote/locator"
	"golang.org/x/net/html"
)

// hiddenTags never render their content.
var hiddenTags = map[string]struct{}{
	"head":     {},
	"script":   {},
	"style":    {},
	"template": {},
	"noscript": {},
}

// hiddenClasses are utility classes that conventionally mean display:none.
var hiddenClasses = []string{"hidden", "aok-hidden", "a-hidden", "d-none", "is-hidden"}

// breakTags start a new line in rendered text.
var breakTags = map[string]struct{}{
	"br": {}, "p": {}, "div": {}, "li": {}, "tr": {}, "td": {}, "th": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
}

// StaticPage is a locator.Page over markup that was never rendered.
// Visibility is judged from the markup alone: the hidden attribute, inline
// display/visibility styles, hidden inputs, non-rendered containers, a few
// well-known hiding classes and top-level rules of inline <style> sheets
// that set display:none or visibility:hidden. External stylesheets and
// scripts are never applied.
type StaticPage struct {
	doc   *goquery.Document
	rules []cascadia.SelectorGroup
}

// NewStaticPage parses an HTML document.
func NewStaticPage(r io.Reader) (*StaticPage, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("static: parse html: %w", err)
	}

	p := &StaticPage{doc: doc}
	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		switch strings.ToLower(strings.TrimSpace(s.AttrOr("media", ""))) {
		case "", "all", "screen":
			p.rules = append(p.rules, hidingRules(s.Text())...)
		}
	})
	return p, nil
}

// Query implements locator.Page.
func (p *StaticPage) Query(selector string) locator.ElementQuery {
	return staticQuery{page: p, sel: p.doc.Find(selector)}
}

// Title returns the document title, trimmed.
func (p *StaticPage) Title() string {
	return strings.TrimSpace(p.doc.Find("title").First().Text())
}

// hidden reports whether element n itself is not rendered. Ancestors are
// not consulted.
func (p *StaticPage) hidden(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if _, ok := hiddenTags[n.Data]; ok {
		return true
	}
	if _, ok := attr(n, "hidden"); ok {
		return true
	}
	if typ, _ := attr(n, "type"); n.Data == "input" && strings.EqualFold(typ, "hidden") {
		return true
	}

	style, _ := attr(n, "style")
	style = strings.ToLower(strings.ReplaceAll(style, " ", ""))
	if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
		return true
	}

	if class, ok := attr(n, "class"); ok {
		for _, c := range strings.Fields(class) {
			for _, h := range hiddenClasses {
				if c == h {
					return true
				}
			}
		}
	}

	for _, r := range p.rules {
		if r.Match(n) {
			return true
		}
	}
	return false
}

// innerText collects the text of n's rendered descendants, skipping hidden
// subtrees, with whitespace runs collapsed to single spaces.
func (p *StaticPage) innerText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				b.WriteString(c.Data)
			case html.ElementNode:
				if p.hidden(c) {
					continue
				}
				_, brk := breakTags[c.Data]
				if brk {
					b.WriteByte('\n')
				}
				walk(c)
				if brk {
					b.WriteByte('\n')
				}
			}
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

type staticQuery struct {
	page *StaticPage
	sel  *goquery.Selection
}

func (q staticQuery) Count(context.Context) (int, error) {
	return q.sel.Length(), nil
}

func (q staticQuery) IsVisible(context.Context) (bool, error) {
	if q.sel.Length() == 0 {
		return false, nil
	}
	for n := q.sel.Get(0); n != nil && n.Type == html.ElementNode; n = n.Parent {
		if q.page.hidden(n) {
			return false, nil
		}
	}
	return true, nil
}

// Text approximates innerText for the first match.
func (q staticQuery) Text(context.Context) (string, error) {
	if q.sel.Length() == 0 {
		return "", nil
	}
	return q.page.innerText(q.sel.Get(0)), nil
}

package cleaner

import (
	"log/slog"
	nurl "net/url"
	"strings"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
)

// minArticleRunes is the shortest readability text still trusted. Shorter
// results usually mean the main content was missed.
const minArticleRunes = 50

// article is the part of a page worth keeping in a note.
type article struct {
	Title  string
	Byline string
	HTML   string

	// Readable is false when the boilerplate-stripped page stands in for
	// a readability result.
	Readable bool
}

// extractArticle runs readability over rawHTML. It never fails: when
// extraction errors or yields too little text the whole page, minus
// navigation and scripts, is kept instead.
func extractArticle(rawHTML, sourceURL string) article {
	base, err := nurl.Parse(sourceURL)
	if err != nil {
		slog.Debug("clip: unparsable source URL, keeping whole page", "url", sourceURL, "error", err)
		return wholePage(rawHTML)
	}

	parsed, err := readability.FromReader(strings.NewReader(rawHTML), base)
	if err != nil {
		slog.Warn("clip: readability failed, keeping whole page", "url", sourceURL, "error", err)
		return wholePage(rawHTML)
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(parsed.TextContent)); n < minArticleRunes {
		slog.Debug("clip: article too short, keeping whole page", "url", sourceURL, "runes", n)
		return wholePage(rawHTML)
	}

	return article{
		Title:    strings.TrimSpace(parsed.Title),
		Byline:   strings.TrimSpace(parsed.Byline),
		HTML:     parsed.Content,
		Readable: true,
	}
}

func wholePage(rawHTML string) article {
	return article{HTML: StripBoilerplate(rawHTML)}
}

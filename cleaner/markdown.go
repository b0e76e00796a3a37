package cleaner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
)

// mediaSelectors are dropped before conversion; notes hold text only.
const mediaSelectors = "img, picture, svg, video, audio, canvas, iframe, object, embed, form, button"

var blankRuns = regexp.MustCompile(`\n{3,}`)

// noteMarkdown renders article HTML as the body of a note. It is safe for
// concurrent use.
type noteMarkdown struct {
	conv *converter.Converter
}

func newNoteMarkdown() *noteMarkdown {
	return &noteMarkdown{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				// Spec sheets and price tables are common on clipped pages.
				table.NewTablePlugin(
					table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
				),
			),
		),
	}
}

// render converts articleHTML to Markdown. Media are removed, a leading
// <h1> that repeats title is dropped, relative links are resolved against
// sourceURL and runs of blank lines are squeezed.
func (m *noteMarkdown) render(articleHTML, sourceURL, title string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(articleHTML))
	if err != nil {
		return "", fmt.Errorf("parse article: %w", err)
	}
	doc.Find(mediaSelectors).Remove()
	if h1 := doc.Find("h1").First(); title != "" && strings.EqualFold(strings.TrimSpace(h1.Text()), title) {
		h1.Remove()
	}

	body, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("serialize article: %w", err)
	}

	md, err := m.conv.ConvertString(body, converter.WithDomain(sourceURL))
	if err != nil {
		return "", err
	}
	return blankRuns.ReplaceAllString(strings.TrimSpace(md), "\n\n"), nil
}

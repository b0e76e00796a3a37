// Package cleaner turns fetched web pages into Markdown notes.
package cleaner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/use-agent/pricenote/engine"
)

// ErrEmptyClip is returned when a page yields no text at all.
var ErrEmptyClip = errors.New("cleaner: page has no readable content")

// Fetcher downloads a page. *engine.HTTPEngine implements it.
type Fetcher interface {
	Fetch(ctx context.Context, req *engine.FetchRequest) (*engine.Document, error)
}

// Clip is a page reduced to a note.
type Clip struct {
	Title     string
	Markdown  string
	SourceURL string
}

// Clipper turns pages into notes: readability picks the main content,
// then it is rendered as Markdown.
type Clipper struct {
	fetcher Fetcher
	timeout time.Duration
	md      *noteMarkdown
}

// NewClipper creates a Clipper that downloads pages with f.
func NewClipper(f Fetcher, timeout time.Duration) *Clipper {
	return &Clipper{
		fetcher: f,
		timeout: timeout,
		md:      newNoteMarkdown(),
	}
}

// Clip fetches rawURL and converts it.
func (c *Clipper) Clip(ctx context.Context, rawURL string) (*Clip, error) {
	doc, err := c.fetcher.Fetch(ctx, &engine.FetchRequest{URL: rawURL, Timeout: c.timeout})
	if err != nil {
		return nil, fmt.Errorf("cleaner: fetch: %w", err)
	}
	sourceURL := doc.FinalURL
	if sourceURL == "" {
		sourceURL = rawURL
	}
	return c.Convert(doc.HTML, sourceURL, doc.Title)
}

// Convert runs the pipeline on an already downloaded page.
//
// Title preference: readability title, then pageTitle, then the URL.
// The Markdown always ends with a link back to the source.
func (c *Clipper) Convert(rawHTML, sourceURL, pageTitle string) (*Clip, error) {
	// ── 1. Content extraction ───────────────────────────────────────
	art := extractArticle(rawHTML, sourceURL)

	// ── 2. Title fallback ───────────────────────────────────────────
	title := art.Title
	if title == "" {
		title = strings.TrimSpace(pageTitle)
	}
	if title == "" {
		title = sourceURL
	}

	// ── 3. Markdown ─────────────────────────────────────────────────
	md, err := c.md.render(art.HTML, sourceURL, title)
	if err != nil {
		return nil, fmt.Errorf("cleaner: markdown conversion: %w", err)
	}
	if md == "" {
		return nil, ErrEmptyClip
	}
	if art.Byline != "" {
		md = "*" + art.Byline + "*\n\n" + md
	}

	return &Clip{
		Title:     title,
		Markdown:  md + "\n\nSource: " + sourceURL,
		SourceURL: sourceURL,
	}, nil
}

// Package locator finds a product price on a rendered page by walking an
// ordered list of CSS selectors and returning the first visible, non-empty
// text match.
package locator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// ErrNotFound is returned when no candidate selector produced a visible
// element with non-empty text.
var ErrNotFound = errors.New("locator: price not found")

// DefaultOpTimeout bounds each Count, IsVisible and Text call.
const DefaultOpTimeout = 5 * time.Second

// Page is a rendered page that can be queried by selector.
// Each automation backend provides one implementation.
type Page interface {
	// Query returns a lazy handle bound to selector. No page work happens
	// until one of the ElementQuery methods is called.
	Query(selector string) ElementQuery
}

// ElementQuery is a live handle on the elements matching one selector.
// IsVisible and Text act on the first match only.
type ElementQuery interface {
	Count(ctx context.Context) (int, error)
	IsVisible(ctx context.Context) (bool, error)
	Text(ctx context.Context) (string, error)
}

// Match is a successful extraction.
type Match struct {
	// Text is the trimmed, non-empty element text.
	Text string

	// Selector is the candidate that produced Text.
	Selector string

	// Index is the position of Selector in the candidate list.
	Index int
}

// Locator evaluates an ordered selector list against a page.
// It holds no per-page state and is safe for concurrent use.
type Locator struct {
	selectors []string
	opTimeout time.Duration
}

// New creates a Locator. The selector slice is copied; earlier entries win.
// A non-positive opTimeout selects DefaultOpTimeout.
func New(selectors []string, opTimeout time.Duration) *Locator {
	if opTimeout <= 0 {
		opTimeout = DefaultOpTimeout
	}
	s := make([]string, len(selectors))
	copy(s, selectors)
	return &Locator{selectors: s, opTimeout: opTimeout}
}

// Selectors returns a copy of the candidate list in priority order.
func (l *Locator) Selectors() []string {
	s := make([]string, len(l.selectors))
	copy(s, l.selectors)
	return s
}

// Locate returns the first selector whose first match is visible and has
// non-empty trimmed text. Later selectors are never evaluated once one
// qualifies.
//
// Zero matches, a hidden first match, and any error or timeout while
// checking visibility or reading text all mean "try the next selector".
// Only exhaustion is reported, as ErrNotFound. If ctx itself is done the
// scan stops with ctx.Err().
func (l *Locator) Locate(ctx context.Context, page Page) (*Match, error) {
	for i, sel := range l.selectors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, reason := l.probe(ctx, page.Query(sel))
		if reason != "" {
			slog.Debug("price selector skipped", "selector", sel, "reason", reason)
			continue
		}

		return &Match{Text: text, Selector: sel, Index: i}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, ErrNotFound
}

// probe runs the three bounded steps for one selector. It returns the
// trimmed text, or a non-empty skip reason.
func (l *Locator) probe(ctx context.Context, q ElementQuery) (string, string) {
	n, err := bounded(ctx, l.opTimeout, q.Count)
	if err != nil {
		return "", "count failed: " + err.Error()
	}
	if n == 0 {
		return "", "no match"
	}

	visible, err := bounded(ctx, l.opTimeout, q.IsVisible)
	if err != nil {
		return "", "visibility check failed: " + err.Error()
	}
	if !visible {
		return "", "not visible"
	}

	raw, err := bounded(ctx, l.opTimeout, q.Text)
	if err != nil {
		return "", "text read failed: " + err.Error()
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", "empty text"
	}
	return text, ""
}

// bounded runs fn under its own deadline. Backends that ignore the context
// are still cut off: the result is abandoned once the deadline passes.
func bounded[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	opCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(opCtx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-opCtx.Done():
		var zero T
		return zero, opCtx.Err()
	}
}

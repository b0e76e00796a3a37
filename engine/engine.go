package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/use-agent/pricenote/locator"
)

// ErrBrowser marks failures to start or reach the browser itself, as
// opposed to failures loading a particular page.
var ErrBrowser = errors.New("engine: browser unavailable")

// Engine is the interface that all page loaders must implement.
type Engine interface {
	// Name returns the engine identifier (e.g. "http", "rod", "rod-stealth").
	Name() string

	// Open loads req.URL and returns a session over the rendered page.
	// Open fails with a *NavigationError when the page does not reach
	// DOMContentLoaded within req.Timeout. The caller must Close the session.
	Open(ctx context.Context, req *FetchRequest) (Session, error)
}

// Session is a loaded page. It is only valid until Close.
type Session interface {
	locator.Page

	// FinalURL is the page URL after redirects, best-effort.
	FinalURL() string

	// Close releases the page (returns it to a pool, closes the tab, ...).
	Close() error
}

// FetchRequest contains everything an engine needs to load a page.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
	Stealth bool
}

// NavigationError reports that a page failed to load.
type NavigationError struct {
	Engine string
	URL    string
	Err    error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("%s: navigate %s: %v", e.Engine, e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// Outcome is the result of locating a price with one engine.
type Outcome struct {
	Match      *locator.Match
	EngineName string
	FinalURL   string
	Navigation time.Duration
	Locate     time.Duration
}

// Run opens a session with e, runs loc against it and closes the session.
func Run(ctx context.Context, e Engine, req *FetchRequest, loc *locator.Locator) (*Outcome, error) {
	navStart := time.Now()
	sess, err := e.Open(ctx, req)
	if err != nil {
		return nil, err
	}
	defer sess.Close()
	navigation := time.Since(navStart)

	locStart := time.Now()
	match, err := loc.Locate(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name(), err)
	}

	return &Outcome{
		Match:      match,
		EngineName: e.Name(),
		FinalURL:   sess.FinalURL(),
		Navigation: navigation,
		Locate:     time.Since(locStart),
	}, nil
}

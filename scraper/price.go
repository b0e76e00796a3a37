package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/use-agent/pricenote/engine"
	"github.com/use-agent/pricenote/locator"
	"github.com/use-agent/pricenote/models"
)

// PriceResult is a located price and how it was obtained.
type PriceResult struct {
	Price      string
	Selector   string
	EngineUsed string
	FinalURL   string
	Navigation time.Duration
	Locate     time.Duration
}

// FetchPrice loads req.URL with the engine(s) selected by req.FetchMode and
// returns the first visible, non-empty candidate price. Every error is a
// *models.ScrapeError.
func (s *Scraper) FetchPrice(ctx context.Context, req *models.PriceRequest) (*PriceResult, error) {
	if err := validateTarget(req.URL); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, err.Error(), err)
	}

	freq := &engine.FetchRequest{
		URL:     req.URL,
		Timeout: s.timeoutFor(req.TimeoutMs),
		Stealth: req.Stealth,
	}

	var (
		out *engine.Outcome
		err error
	)
	switch req.FetchMode {
	case models.FetchModeBrowser, "":
		eng := s.browser
		if req.Stealth {
			eng = s.stealth
		}
		out, err = engine.Run(ctx, eng, freq, s.loc)
	case models.FetchModeHTTP:
		out, err = engine.Run(ctx, s.static, freq, s.loc)
	case models.FetchModeAuto:
		out, err = s.dispatcher.Dispatch(ctx, freq, s.loc)
	default:
		msg := fmt.Sprintf("unknown fetch mode %q", req.FetchMode)
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, msg, nil)
	}
	if err != nil {
		slog.Info("price lookup failed", "url", req.URL, "mode", req.FetchMode, "error", err)
		return nil, categorizeError(err)
	}

	slog.Debug("price found",
		"url", req.URL,
		"engine", out.EngineName,
		"selector", out.Match.Selector,
		"index", out.Match.Index,
	)
	return &PriceResult{
		Price:      out.Match.Text,
		Selector:   out.Match.Selector,
		EngineUsed: out.EngineName,
		FinalURL:   out.FinalURL,
		Navigation: out.Navigation,
		Locate:     out.Locate,
	}, nil
}

func validateTarget(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: missing host", raw)
	}
	return nil
}

// categorizeError wraps engine and locator errors into typed ScrapeErrors so
// the API layer can map them to HTTP status codes.
func categorizeError(err error) *models.ScrapeError {
	var navErr *engine.NavigationError
	switch {
	case errors.Is(err, locator.ErrNotFound):
		return models.NewScrapeError(models.ErrCodePriceNotFound, models.MsgPriceNotFound, err)
	case errors.Is(err, engine.ErrBrowser):
		return models.NewScrapeError(models.ErrCodeBrowserCrash, "browser unavailable", err)
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, "page did not load before the timeout", err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	case errors.As(err, &navErr):
		return models.NewScrapeError(models.ErrCodeNavigation, "navigation to target URL failed", err)
	default:
		return models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}
}

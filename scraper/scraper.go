package scraper

import (
	"log/slog"
	"time"

	"github.com/use-agent/pricenote/config"
	"github.com/use-agent/pricenote/engine"
	"github.com/use-agent/pricenote/locator"
	"github.com/use-agent/pricenote/models"
)

// Scraper owns the page engines and the price locator.
// It is safe for concurrent use.
type Scraper struct {
	cfg config.ScraperConfig
	loc *locator.Locator

	fetcher    *engine.HTTPEngine
	static     engine.Engine
	browser    engine.Engine
	stealth    engine.Engine
	dispatcher *engine.Dispatcher
	memory     *engine.HostMemory

	// rod is nil when the chromedp backend is selected.
	rod *engine.RodBrowser
}

// New wires the engines for cfg. No browser is started until a request
// needs one.
func New(cfg *config.Config) *Scraper {
	fetcher := engine.NewHTTPEngine(cfg.Browser.DefaultProxy)

	var (
		browser, stealth engine.Engine
		rb               *engine.RodBrowser
	)
	switch cfg.Browser.Backend {
	case "chromedp":
		browser = engine.NewChromedpEngine(cfg.Browser, false)
		stealth = engine.NewChromedpEngine(cfg.Browser, true)
	default:
		rb = engine.NewRodBrowser(cfg.Browser)
		browser = engine.NewRodEngine(rb, cfg.Scraper, false)
		stealth = engine.NewRodEngine(rb, cfg.Scraper, true)
	}

	s := newScraper(cfg.Scraper, cfg.Engine, fetcher, browser, stealth)
	s.fetcher = fetcher
	s.rod = rb

	slog.Info("scraper ready",
		"backend", cfg.Browser.Backend,
		"maxPages", cfg.Browser.MaxPages,
		"selectors", len(cfg.Scraper.PriceSelectors),
	)
	return s
}

func newScraper(sc config.ScraperConfig, ec config.EngineConfig, static, browser, stealth engine.Engine) *Scraper {
	memory := engine.NewHostMemory(ec.MemoryTTL)
	return &Scraper{
		cfg:        sc,
		loc:        locator.New(sc.PriceSelectors, sc.SelectorTimeout),
		static:     static,
		browser:    browser,
		stealth:    stealth,
		memory:     memory,
		dispatcher: engine.NewDispatcher([]engine.Engine{static, browser, stealth}, ec.EscalationDelays, memory),
	}
}

// HTTP returns the plain HTTP engine, shared with the web clipper.
func (s *Scraper) HTTP() *engine.HTTPEngine {
	return s.fetcher
}

// Selectors returns the candidate list in priority order.
func (s *Scraper) Selectors() []string {
	return s.loc.Selectors()
}

// Stats returns a snapshot of the browser pool.
func (s *Scraper) Stats() models.PoolStats {
	if s.rod == nil {
		return models.PoolStats{}
	}
	st := s.rod.Stats()
	return models.PoolStats{
		MaxPages:      st.MaxPages,
		ActivePages:   st.ActivePages,
		BrowserLaunch: st.Launched,
	}
}

// Close stops background work and kills the browser process if one was
// started. Call this on shutdown to prevent zombie Chrome processes.
func (s *Scraper) Close() {
	s.memory.Stop()
	if s.rod != nil {
		s.rod.Close()
	}
	slog.Info("scraper shutdown complete")
}

// timeoutFor converts the requested timeout, applying the default and the
// configured ceiling.
func (s *Scraper) timeoutFor(ms int) time.Duration {
	if ms <= 0 {
		return s.cfg.DefaultTimeout
	}
	d := time.Duration(ms) * time.Millisecond
	if s.cfg.MaxTimeout > 0 && d > s.cfg.MaxTimeout {
		return s.cfg.MaxTimeout
	}
	return d
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/pricenote/config"
	"github.com/use-agent/pricenote/locator"
	"github.com/ysmood/gson"
)

// errNoElement is returned by rodQuery when the selector matches nothing.
var errNoElement = errors.New("rod: no element matches selector")

// PoolStats reports the state of the rod page pool.
type PoolStats struct {
	MaxPages    int
	ActivePages int
	Launched    bool
}

// RodBrowser owns the Chromium process and the reusable page pool shared by
// the rod engines. The browser is launched on first use.
// It is safe for concurrent use.
type RodBrowser struct {
	cfg config.BrowserConfig

	mu      sync.Mutex
	browser *rod.Browser
	pool    rod.Pool[rod.Page]

	active atomic.Int32
}

// NewRodBrowser prepares a browser; nothing is launched until a page is
// needed.
func NewRodBrowser(cfg config.BrowserConfig) *RodBrowser {
	return &RodBrowser{
		cfg:  cfg,
		pool: rod.NewPagePool(cfg.MaxPages),
	}
}

// ensure launches and connects the browser once.
func (b *RodBrowser) ensure() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser != nil {
		return b.browser, nil
	}

	l := launcher.New().
		Headless(b.cfg.Headless).
		NoSandbox(b.cfg.NoSandbox)

	if b.cfg.BrowserBin != "" {
		l = l.Bin(b.cfg.BrowserBin)
	}
	if b.cfg.DefaultProxy != "" {
		l = l.Proxy(b.cfg.DefaultProxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: launch: %w", ErrBrowser, err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: connect: %w", ErrBrowser, err)
	}

	b.browser = browser
	return browser, nil
}

// Stats returns a snapshot of the pool's current state.
func (b *RodBrowser) Stats() PoolStats {
	b.mu.Lock()
	launched := b.browser != nil
	b.mu.Unlock()
	return PoolStats{
		MaxPages:    b.cfg.MaxPages,
		ActivePages: int(b.active.Load()),
		Launched:    launched,
	}
}

// Close drains the page pool and kills the browser process.
// Call this on shutdown to prevent zombie Chrome processes.
func (b *RodBrowser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil {
		return
	}
	slog.Info("rod browser shutting down: draining page pool")
	b.pool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	if err := b.browser.Close(); err != nil {
		slog.Warn("rod browser close failed", "error", err)
	}
	b.browser = nil
}

// RodEngine loads pages in the shared rod browser. The forceStealth flag
// distinguishes the "rod" and "rod-stealth" tiers.
type RodEngine struct {
	browser      *RodBrowser
	blockedTypes []string
	blockAds     bool
	forceStealth bool
	name         string
}

// NewRodEngine creates a RodEngine on top of b.
func NewRodEngine(b *RodBrowser, sc config.ScraperConfig, forceStealth bool) *RodEngine {
	name := "rod"
	if forceStealth {
		name = "rod-stealth"
	}
	return &RodEngine{
		browser:      b,
		blockedTypes: sc.BlockedResourceTypes,
		blockAds:     sc.BlockAds,
		forceStealth: forceStealth,
		name:         name,
	}
}

func (e *RodEngine) Name() string { return e.name }

// Open borrows a page from the pool and loads req.URL.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Acquire page      – borrow a tab from the pool (or create one)
//  2. Release func      – undo per-request state, about:blank, back to pool
//  3. Stealth injection – mask navigator.webdriver etc. (before navigation!)
//  4. Extra headers     – Accept-Language + caller headers
//  5. Hijack mount      – block images/fonts/media/ads (before navigation!)
//  6. Navigate          – fatal on error or timeout
//  7. DOMContentLoaded  – fatal on timeout
//  8. Settle            – best-effort DOM stability wait, errors swallowed
func (e *RodEngine) Open(ctx context.Context, req *FetchRequest) (Session, error) {
	browser, err := e.browser.ensure()
	if err != nil {
		return nil, err
	}

	// ── 1. Acquire page from pool ─────────────────────────────────────
	page, err := e.browser.pool.Get(func() (*rod.Page, error) {
		return browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: acquire page: %w", ErrBrowser, err)
	}
	e.browser.active.Add(1)

	// ── 2. Release: every per-request mutation is undone here ─────────
	var cleanups []func()
	release := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		e.browser.pool.Put(page)
		e.browser.active.Add(-1)
	}

	// ── 3. Stealth injection ──────────────────────────────────────────
	if req.Stealth || e.forceStealth {
		remove, evalErr := page.EvalOnNewDocument(stealth.JS)
		if evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		} else {
			cleanups = append(cleanups, func() { _ = remove() })
		}
	}

	// ── 4. Extra headers ──────────────────────────────────────────────
	headers := map[string]string{"Accept-Language": "en-US,en;q=0.9"}
	for k, v := range req.Headers {
		headers[k] = v
	}
	if hdrErr := (proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}).Call(page); hdrErr == nil {
		cleanups = append(cleanups, func() {
			_ = proto.NetworkSetExtraHTTPHeaders{Headers: proto.NetworkHeaders{}}.Call(page)
		})
	}

	// ── 5. Mount hijack router ────────────────────────────────────────
	if router := setupHijack(page, e.blockedTypes, e.blockAds); router != nil {
		cleanups = append(cleanups, func() { _ = router.Stop() })
	}

	// ── 6. Navigate ───────────────────────────────────────────────────
	navCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()
	p := page.Context(navCtx)

	if navErr := p.Navigate(req.URL); navErr != nil {
		release()
		return nil, &NavigationError{Engine: e.name, URL: req.URL, Err: navErr}
	}

	// ── 7. DOMContentLoaded ───────────────────────────────────────────
	if waitErr := p.Wait(rod.Eval(`() => document.readyState !== "loading"`)); waitErr != nil {
		release()
		return nil, &NavigationError{Engine: e.name, URL: req.URL, Err: waitErr}
	}

	// ── 8. Settle ─────────────────────────────────────────────────────
	settleCtx, settleCancel := context.WithTimeout(ctx, req.Timeout)
	defer settleCancel()
	if stableErr := page.Context(settleCtx).WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"url", req.URL, "error", stableErr)
	}

	return &rodSession{page: page, release: release}, nil
}

type rodSession struct {
	page    *rod.Page
	release func()
	once    sync.Once
}

func (s *rodSession) Query(selector string) locator.ElementQuery {
	return rodQuery{page: s.page, selector: selector}
}

func (s *rodSession) FinalURL() string {
	info, err := s.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (s *rodSession) Close() error {
	s.once.Do(s.release)
	return nil
}

// rodQuery re-resolves its selector on every call, so it always sees the
// current DOM.
type rodQuery struct {
	page     *rod.Page
	selector string
}

func (q rodQuery) Count(ctx context.Context) (int, error) {
	els, err := q.page.Context(ctx).Elements(q.selector)
	if err != nil {
		return 0, err
	}
	return len(els), nil
}

func (q rodQuery) first(ctx context.Context) (*rod.Element, error) {
	els, err := q.page.Context(ctx).Elements(q.selector)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, errNoElement
	}
	return els.First(), nil
}

func (q rodQuery) IsVisible(ctx context.Context) (bool, error) {
	el, err := q.first(ctx)
	if err != nil {
		return false, err
	}
	return el.Visible()
}

func (q rodQuery) Text(ctx context.Context) (string, error) {
	el, err := q.first(ctx)
	if err != nil {
		return "", err
	}
	return el.Text()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) used by CDP header commands.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

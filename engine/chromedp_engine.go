package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/go-rod/stealth"
	"github.com/use-agent/pricenote/config"
	"github.com/use-agent/pricenote/locator"
)

// Page-side queries. %s is replaced by the JSON-quoted selector.
const (
	cdpCountJS = `document.querySelectorAll(%s).length`

	cdpVisibleJS = `(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		const st = window.getComputedStyle(el);
		if (st.visibility === "hidden" || st.display === "none") return false;
		const r = el.getBoundingClientRect();
		return r.width > 0 && r.height > 0;
	})()`

	cdpTextJS = `(() => {
		const el = document.querySelector(%s);
		return el ? el.innerText : "";
	})()`

	// cdpSettleJS resolves once the DOM has gone 300ms without mutations.
	cdpSettleJS = `new Promise(resolve => {
		let timer = setTimeout(() => { obs.disconnect(); resolve(true); }, 300);
		const obs = new MutationObserver(() => {
			clearTimeout(timer);
			timer = setTimeout(() => { obs.disconnect(); resolve(true); }, 300);
		});
		obs.observe(document.documentElement, {childList: true, subtree: true, characterData: true});
	})`
)

// ChromedpEngine starts a dedicated Chrome per session through chromedp.
// It trades the rod pool's reuse for a fully isolated browser profile.
type ChromedpEngine struct {
	cfg          config.BrowserConfig
	forceStealth bool
	name         string
}

// NewChromedpEngine creates a ChromedpEngine.
func NewChromedpEngine(cfg config.BrowserConfig, forceStealth bool) *ChromedpEngine {
	name := "chromedp"
	if forceStealth {
		name = "chromedp-stealth"
	}
	return &ChromedpEngine{cfg: cfg, forceStealth: forceStealth, name: name}
}

func (e *ChromedpEngine) Name() string { return e.name }

func (e *ChromedpEngine) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", e.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.UserAgent(chromeUA),
	)
	if e.cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if e.cfg.BrowserBin != "" {
		opts = append(opts, chromedp.ExecPath(e.cfg.BrowserBin))
	}
	if e.cfg.DefaultProxy != "" {
		opts = append(opts, chromedp.ProxyServer(e.cfg.DefaultProxy))
	}
	return opts
}

// Open launches Chrome, navigates and waits for the document to be ready.
// chromedp.Navigate returns after the load event, which is later than
// DOMContentLoaded; the timeout covers both. A second wait of the same
// length for the DOM to stop changing is best effort.
func (e *ChromedpEngine) Open(ctx context.Context, req *FetchRequest) (Session, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, e.allocatorOptions()...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	closeAll := func() {
		cancelTab()
		cancelAlloc()
	}

	// Starts the browser; failures here are not the page's fault.
	if err := chromedp.Run(tabCtx); err != nil {
		closeAll()
		return nil, fmt.Errorf("%w: chromedp start: %w", ErrBrowser, err)
	}

	var setup chromedp.Tasks
	if req.Stealth || e.forceStealth {
		setup = append(setup, chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealth.JS).Do(ctx)
			return err
		}))
	}
	if len(req.Headers) > 0 {
		headers := make(network.Headers, len(req.Headers))
		for k, v := range req.Headers {
			headers[k] = v
		}
		setup = append(setup, network.Enable(), network.SetExtraHTTPHeaders(headers))
	}
	if len(setup) > 0 {
		if err := chromedp.Run(tabCtx, setup); err != nil {
			slog.Warn("chromedp page setup failed, proceeding", "error", err)
		}
	}

	navCtx, cancelNav := context.WithTimeout(tabCtx, req.Timeout)
	defer cancelNav()
	if err := chromedp.Run(navCtx,
		chromedp.Navigate(req.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		closeAll()
		return nil, &NavigationError{Engine: e.name, URL: req.URL, Err: err}
	}

	settleCtx, cancelSettle := context.WithTimeout(tabCtx, req.Timeout)
	defer cancelSettle()
	var settled bool
	if err := chromedp.Run(settleCtx, chromedp.Evaluate(cdpSettleJS, &settled, awaitPromise)); err != nil {
		slog.Debug("DOM did not settle, proceeding with current DOM", "url", req.URL, "error", err)
	}

	return &chromedpSession{tabCtx: tabCtx, closeAll: closeAll}, nil
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

type chromedpSession struct {
	tabCtx   context.Context
	closeAll func()
	once     sync.Once
}

func (s *chromedpSession) Query(selector string) locator.ElementQuery {
	quoted, _ := json.Marshal(selector)
	return chromedpQuery{session: s, quoted: string(quoted)}
}

func (s *chromedpSession) FinalURL() string {
	var u string
	if err := chromedp.Run(s.tabCtx, chromedp.Location(&u)); err != nil {
		return ""
	}
	return u
}

func (s *chromedpSession) Close() error {
	s.once.Do(s.closeAll)
	return nil
}

// run executes actions on the tab, cut short when ctx is done. chromedp
// needs its own context tree, so ctx only contributes cancellation.
func (s *chromedpSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.tabCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

type chromedpQuery struct {
	session *chromedpSession
	quoted  string
}

func (q chromedpQuery) Count(ctx context.Context) (int, error) {
	var n int
	err := q.session.run(ctx, chromedp.Evaluate(fmt.Sprintf(cdpCountJS, q.quoted), &n))
	return n, err
}

func (q chromedpQuery) IsVisible(ctx context.Context) (bool, error) {
	var v bool
	err := q.session.run(ctx, chromedp.Evaluate(fmt.Sprintf(cdpVisibleJS, q.quoted), &v))
	return v, err
}

func (q chromedpQuery) Text(ctx context.Context) (string, error) {
	var s string
	err := q.session.run(ctx, chromedp.Evaluate(fmt.Sprintf(cdpTextJS, q.quoted), &s))
	return s, err
}

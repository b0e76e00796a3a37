package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/pricenote/config"
	"github.com/use-agent/pricenote/engine"
	"github.com/use-agent/pricenote/locator"
	"github.com/use-agent/pricenote/models"
)

type fakeSession struct {
	*engine.StaticPage
	url string
}

func (s fakeSession) FinalURL() string { return s.url }
func (s fakeSession) Close() error     { return nil }

type fakeEngine struct {
	name string
	html string
	err  error

	mu   sync.Mutex
	reqs []engine.FetchRequest
}

func (e *fakeEngine) Name() string { return e.name }

func (e *fakeEngine) Open(_ context.Context, req *engine.FetchRequest) (engine.Session, error) {
	e.mu.Lock()
	e.reqs = append(e.reqs, *req)
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	p, err := engine.NewStaticPage(strings.NewReader(e.html))
	if err != nil {
		return nil, err
	}
	return fakeSession{StaticPage: p, url: req.URL}, nil
}

func (e *fakeEngine) calls() []engine.FetchRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]engine.FetchRequest(nil), e.reqs...)
}

func testScraperConfig() config.ScraperConfig {
	return config.ScraperConfig{
		DefaultTimeout:  30 * time.Second,
		MaxTimeout:      60 * time.Second,
		SelectorTimeout: time.Second,
		PriceSelectors:  locator.DefaultSelectors,
	}
}

func newTestScraper(t *testing.T, static, browser, stealth engine.Engine) *Scraper {
	t.Helper()
	s := newScraper(testScraperConfig(), config.EngineConfig{MemoryTTL: time.Hour}, static, browser, stealth)
	t.Cleanup(s.Close)
	return s
}

const pricedHTML = `<html><body><span id="priceblock_ourprice"> $19.99 </span></body></html>`

func TestFetchPrice_BrowserMode(t *testing.T) {
	browser := &fakeEngine{name: "rod", html: pricedHTML}
	stealth := &fakeEngine{name: "rod-stealth", html: pricedHTML}
	s := newTestScraper(t, &fakeEngine{name: "http"}, browser, stealth)

	res, err := s.FetchPrice(context.Background(), &models.PriceRequest{
		URL:       "https://shop.example/item",
		FetchMode: models.FetchModeBrowser,
	})
	require.NoError(t, err)
	assert.Equal(t, "$19.99", res.Price)
	assert.Equal(t, "#priceblock_ourprice", res.Selector)
	assert.Equal(t, "rod", res.EngineUsed)
	assert.Len(t, browser.calls(), 1)
	assert.Empty(t, stealth.calls())
}

func TestFetchPrice_StealthUsesStealthEngine(t *testing.T) {
	browser := &fakeEngine{name: "rod", html: pricedHTML}
	stealth := &fakeEngine{name: "rod-stealth", html: pricedHTML}
	s := newTestScraper(t, &fakeEngine{name: "http"}, browser, stealth)

	res, err := s.FetchPrice(context.Background(), &models.PriceRequest{
		URL:       "https://shop.example/item",
		FetchMode: models.FetchModeBrowser,
		Stealth:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "rod-stealth", res.EngineUsed)
	assert.Empty(t, browser.calls())
}

func TestFetchPrice_TimeoutClamping(t *testing.T) {
	browser := &fakeEngine{name: "rod", html: pricedHTML}
	s := newTestScraper(t, &fakeEngine{name: "http"}, browser, &fakeEngine{name: "rod-stealth"})

	tests := []struct {
		name      string
		timeoutMs int
		want      time.Duration
	}{
		{"default", 0, 30 * time.Second},
		{"explicit", 5000, 5 * time.Second},
		{"clamped", 600000, 60 * time.Second},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.FetchPrice(context.Background(), &models.PriceRequest{
				URL:       "https://shop.example/item",
				TimeoutMs: tt.timeoutMs,
			})
			require.NoError(t, err)
			calls := browser.calls()
			require.Len(t, calls, i+1)
			assert.Equal(t, tt.want, calls[i].Timeout)
		})
	}
}

func TestFetchPrice_HTTPMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>
			<span id="priceblock_ourprice"></span>
			<span class="a-price"><span class="a-offscreen"> $7.25 </span></span>
		</body></html>`))
	}))
	t.Cleanup(srv.Close)

	browser := &fakeEngine{name: "rod"}
	s := newTestScraper(t, engine.NewHTTPEngine(""), browser, &fakeEngine{name: "rod-stealth"})

	res, err := s.FetchPrice(context.Background(), &models.PriceRequest{
		URL:       srv.URL,
		FetchMode: models.FetchModeHTTP,
	})
	require.NoError(t, err)
	assert.Equal(t, "$7.25", res.Price)
	assert.Equal(t, "span.a-price span.a-offscreen", res.Selector)
	assert.Equal(t, "http", res.EngineUsed)
	assert.Empty(t, browser.calls())
}

func TestFetchPrice_AutoModeEscalates(t *testing.T) {
	static := &fakeEngine{name: "http", html: `<html><body><div id="app"></div></body></html>`}
	browser := &fakeEngine{name: "rod", html: pricedHTML}
	s := newTestScraper(t, static, browser, &fakeEngine{name: "rod-stealth"})

	res, err := s.FetchPrice(context.Background(), &models.PriceRequest{
		URL:       "https://shop.example/item",
		FetchMode: models.FetchModeAuto,
	})
	require.NoError(t, err)
	assert.Equal(t, "rod", res.EngineUsed)
	assert.Len(t, static.calls(), 1)
}

func TestFetchPrice_ErrorCodes(t *testing.T) {
	navTimeout := &engine.NavigationError{Engine: "rod", URL: "https://shop.example", Err: context.DeadlineExceeded}
	navRefused := &engine.NavigationError{Engine: "rod", URL: "https://shop.example", Err: errors.New("connection refused")}

	tests := []struct {
		name     string
		req      models.PriceRequest
		browser  *fakeEngine
		wantCode string
		wantMsg  string
	}{
		{
			name:     "price not found",
			req:      models.PriceRequest{URL: "https://shop.example/item"},
			browser:  &fakeEngine{name: "rod", html: `<p>sold out</p>`},
			wantCode: models.ErrCodePriceNotFound,
			wantMsg:  models.MsgPriceNotFound,
		},
		{
			name:     "navigation timeout",
			req:      models.PriceRequest{URL: "https://shop.example/item"},
			browser:  &fakeEngine{name: "rod", err: navTimeout},
			wantCode: models.ErrCodeTimeout,
		},
		{
			name:     "navigation failed",
			req:      models.PriceRequest{URL: "https://shop.example/item"},
			browser:  &fakeEngine{name: "rod", err: navRefused},
			wantCode: models.ErrCodeNavigation,
		},
		{
			name:     "browser unavailable",
			req:      models.PriceRequest{URL: "https://shop.example/item"},
			browser:  &fakeEngine{name: "rod", err: engine.ErrBrowser},
			wantCode: models.ErrCodeBrowserCrash,
		},
		{
			name:     "bad scheme",
			req:      models.PriceRequest{URL: "ftp://shop.example/item"},
			browser:  &fakeEngine{name: "rod", html: pricedHTML},
			wantCode: models.ErrCodeInvalidInput,
		},
		{
			name:     "unknown mode",
			req:      models.PriceRequest{URL: "https://shop.example/item", FetchMode: "telepathy"},
			browser:  &fakeEngine{name: "rod", html: pricedHTML},
			wantCode: models.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScraper(t, &fakeEngine{name: "http"}, tt.browser, &fakeEngine{name: "rod-stealth"})

			_, err := s.FetchPrice(context.Background(), &tt.req)
			var se *models.ScrapeError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, tt.wantCode, se.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, se.Message)
			}
		})
	}
}

func TestStats_ChromedpHasNoPool(t *testing.T) {
	s := newTestScraper(t, &fakeEngine{name: "http"}, &fakeEngine{name: "chromedp"}, &fakeEngine{name: "chromedp-stealth"})
	assert.Equal(t, models.PoolStats{}, s.Stats())
}

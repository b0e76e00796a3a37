package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/pricenote/config"
	"github.com/use-agent/pricenote/models"
	"github.com/use-agent/pricenote/scraper"
)

type fakePrices struct {
	mu     sync.Mutex
	cfg    *config.Config
	req    *models.PriceRequest
	res    *scraper.PriceResult
	err    error
	closed bool
}

func (f *fakePrices) FetchPrice(_ context.Context, req *models.PriceRequest) (*scraper.PriceResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.req = req
	return f.res, f.err
}

func (f *fakePrices) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func run(t *testing.T, fp *fakePrices, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PRICENOTE_DB_PATH", filepath.Join(t.TempDir(), "knowledge.db"))

	var stdout, stderr bytes.Buffer
	a := &app{
		stdout: &stdout,
		stderr: &stderr,
		newPriceService: func(cfg *config.Config) priceService {
			fp.cfg = cfg
			return fp
		},
	}
	root := newRootCmd(a)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func TestPrice_PrintsPrice(t *testing.T) {
	fp := &fakePrices{res: &scraper.PriceResult{Price: "$19.99", Selector: "#priceblock_ourprice", EngineUsed: "rod"}}

	out, err := run(t, fp, "price", "https://shop.example/item", "--timeout-ms", "45000", "--stealth")
	require.NoError(t, err)
	assert.Equal(t, "$19.99\n", out)
	assert.True(t, fp.closed)

	require.NotNil(t, fp.req)
	assert.Equal(t, "https://shop.example/item", fp.req.URL)
	assert.Equal(t, 45000, fp.req.TimeoutMs)
	assert.Equal(t, models.FetchModeBrowser, fp.req.FetchMode)
	assert.True(t, fp.req.Stealth)
}

func TestPrice_Verbose(t *testing.T) {
	fp := &fakePrices{res: &scraper.PriceResult{Price: "€5", Selector: ".price", EngineUsed: "http"}}

	out, err := run(t, fp, "price", "https://shop.example/item", "--mode", "http", "-v")
	require.NoError(t, err)
	assert.Equal(t, "€5\t.price\thttp\n", out)
	assert.Equal(t, models.FetchModeHTTP, fp.req.FetchMode)
}

func TestPrice_LongTimeoutRaisesCeiling(t *testing.T) {
	fp := &fakePrices{res: &scraper.PriceResult{Price: "$1"}}

	_, err := run(t, fp, "price", "https://shop.example/item", "--timeout-ms", "300000")
	require.NoError(t, err)
	assert.Equal(t, 300*time.Second, fp.cfg.Scraper.MaxTimeout)
}

func TestPrice_BackendOverride(t *testing.T) {
	fp := &fakePrices{res: &scraper.PriceResult{Price: "$1"}}

	_, err := run(t, fp, "price", "https://shop.example/item", "--backend", "chromedp")
	require.NoError(t, err)
	assert.Equal(t, "chromedp", fp.cfg.Browser.Backend)

	_, err = run(t, &fakePrices{}, "price", "https://shop.example/item", "--backend", "webkit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown browser backend")
}

func TestPrice_Errors(t *testing.T) {
	notFound := models.NewScrapeError(models.ErrCodePriceNotFound, models.MsgPriceNotFound, errors.New("locator: no match"))
	fp := &fakePrices{err: notFound}

	out, err := run(t, fp, "price", "https://shop.example/item")
	require.Error(t, err)
	assert.Empty(t, out)
	assert.Equal(t, models.MsgPriceNotFound, humanError(err))

	_, err = run(t, &fakePrices{}, "price")
	require.Error(t, err)

	_, err = run(t, &fakePrices{}, "price", "https://shop.example/item", "--timeout-ms", "0")
	require.Error(t, err)
}

func TestHumanError_Plain(t *testing.T) {
	assert.Equal(t, "boom", humanError(errors.New("boom")))
}

func TestNotes_AddAndList(t *testing.T) {
	t.Setenv("PRICENOTE_DB_PATH", filepath.Join(t.TempDir(), "knowledge.db"))

	exec := func(args ...string) (string, error) {
		var stdout bytes.Buffer
		a := &app{stdout: &stdout, stderr: &bytes.Buffer{}, newPriceService: defaultPriceService}
		root := newRootCmd(a)
		root.SetArgs(args)
		err := root.Execute()
		return stdout.String(), err
	}

	out, err := exec("notes", "list")
	require.NoError(t, err)
	assert.Equal(t, "No notes found.\n", out)

	out, err = exec("notes", "add", "--title", " Kettle ", "--content", "$39 at the corner shop", "--tags", "shopping")
	require.NoError(t, err)
	assert.Equal(t, "Saved note 1: Kettle\n", out)

	_, err = exec("notes", "add", "--title", "Lamp", "--content", "desk lamp")
	require.NoError(t, err)

	out, err = exec("notes", "list", "-q", "kettle")
	require.NoError(t, err)
	assert.Contains(t, out, "Kettle")
	assert.Contains(t, out, "shopping")
	assert.NotContains(t, out, "Lamp")

	_, err = exec("notes", "add", "--title", "No body")
	require.Error(t, err)
}

package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/pricenote/locator"
)

func newProductServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/item", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Item</title></head><body>
			<span id="priceblock_ourprice"> $42.00 </span></body></html>`))
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/item", http.StatusFound)
	})
	mux.HandleFunc("/json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPEngine_Fetch(t *testing.T) {
	srv := newProductServer(t)
	e := NewHTTPEngine("")

	doc, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL + "/moved", Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "Item", doc.Title)
	assert.Equal(t, http.StatusOK, doc.StatusCode)
	assert.Equal(t, srv.URL+"/item", doc.FinalURL)
}

func TestHTTPEngine_NavigationErrors(t *testing.T) {
	srv := newProductServer(t)
	e := NewHTTPEngine("")

	tests := []struct {
		name string
		path string
	}{
		{"not found", "/missing"},
		{"not html", "/json"},
		{"timeout", "/slow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Open(context.Background(), &FetchRequest{URL: srv.URL + tt.path, Timeout: 100 * time.Millisecond})
			var navErr *NavigationError
			require.True(t, errors.As(err, &navErr), "got %v", err)
			assert.Equal(t, "http", navErr.Engine)
		})
	}
}

func TestRun_HTTPEngine(t *testing.T) {
	srv := newProductServer(t)
	loc := locator.New(locator.DefaultSelectors, time.Second)

	out, err := Run(context.Background(), NewHTTPEngine(""), &FetchRequest{URL: srv.URL + "/item", Timeout: time.Second}, loc)
	require.NoError(t, err)
	assert.Equal(t, "$42.00", out.Match.Text)
	assert.Equal(t, "http", out.EngineName)
	assert.Equal(t, srv.URL+"/item", out.FinalURL)
}

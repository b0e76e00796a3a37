package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/pricenote/models"
)

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/price", func(w http.ResponseWriter, r *http.Request) {
		var req models.PriceRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		if req.URL == "https://missing.example/" {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(models.PriceResponse{
				URL:   req.URL,
				Error: &models.ErrorDetail{Code: models.ErrCodePriceNotFound, Message: models.MsgPriceNotFound},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(models.PriceResponse{
			Success: true, Price: "$12.50", URL: req.URL, Selector: "#price", EngineUsed: req.FetchMode,
		})
	})
	mux.HandleFunc("GET /api/v1/notes", func(w http.ResponseWriter, r *http.Request) {
		resp := models.NoteListResponse{Query: r.URL.Query().Get("q")}
		if resp.Query == "kettle" {
			resp.Total = 1
			resp.Notes = []models.NoteResponse{{ID: 3, Title: "Kettle", Content: "$39", Tags: "shopping"}}
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("POST /api/v1/notes", func(w http.ResponseWriter, r *http.Request) {
		var req models.NoteRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.NoteResponse{ID: 8, Title: req.Title})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGetPrice(t *testing.T) {
	c := newClient(newAPI(t).URL)
	h := handleGetPrice(c)

	res, err := h(context.Background(), call(map[string]any{"url": "https://shop.example/item", "fetch_mode": "http"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, text(t, res), "Price: $12.50")
	assert.Contains(t, text(t, res), "Engine: http")

	res, err = h(context.Background(), call(map[string]any{"url": "https://missing.example/"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), models.ErrCodePriceNotFound)

	res, err = h(context.Background(), call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestSearchNotes(t *testing.T) {
	h := handleSearchNotes(newClient(newAPI(t).URL))

	res, err := h(context.Background(), call(map[string]any{"query": "kettle"}))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "## [3] Kettle")

	res, err = h(context.Background(), call(map[string]any{"query": "nothing"}))
	require.NoError(t, err)
	assert.Equal(t, "No notes found.", text(t, res))
}

func TestCreateNote(t *testing.T) {
	h := handleCreateNote(newClient(newAPI(t).URL + "/"))

	res, err := h(context.Background(), call(map[string]any{"title": "Idea", "content": "write it down"}))
	require.NoError(t, err)
	assert.Equal(t, "Saved note 8: Idea", text(t, res))

	res, err = h(context.Background(), call(map[string]any{"title": "Idea"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

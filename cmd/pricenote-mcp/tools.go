package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/pricenote/models"
)

// client talks to a running pricenote server.
type client struct {
	apiURL string
	http   *http.Client
}

func newClient(apiURL string) *client {
	return &client{
		apiURL: strings.TrimRight(apiURL, "/"),
		// Price lookups may wait for the full navigation timeout.
		http: &http.Client{Timeout: 150 * time.Second},
	}
}

// do sends a request to the pricenote API and returns the status and body.
func (c *client) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func apiError(status int, body []byte, fallback string) *mcp.CallToolResult {
	var e models.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != nil {
		return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", e.Error.Code, e.Error.Message))
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s (HTTP %d)", fallback, status))
}

func handleGetPrice(c *client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		target, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		req := models.PriceRequest{
			URL:       target,
			FetchMode: request.GetString("fetch_mode", ""),
			Stealth:   request.GetBool("stealth", false),
			TimeoutMs: request.GetInt("timeout_ms", 0),
		}

		status, body, err := c.do(ctx, http.MethodPost, "/api/v1/price", req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp models.PriceResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success {
			return apiError(status, body, "price lookup failed"), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("Price: %s\nURL: %s\nSelector: %s\nEngine: %s",
			resp.Price, resp.URL, resp.Selector, resp.EngineUsed)), nil
	}
}

func handleSearchNotes(c *client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q := request.GetString("query", "")

		status, body, err := c.do(ctx, http.MethodGet, "/api/v1/notes?q="+url.QueryEscape(q), nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if status != http.StatusOK {
			return apiError(status, body, "search failed"), nil
		}

		var list models.NoteListResponse
		if err := json.Unmarshal(body, &list); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if list.Total == 0 {
			return mcp.NewToolResultText("No notes found."), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%d note(s)\n", list.Total)
		for _, n := range list.Notes {
			fmt.Fprintf(&b, "\n## [%d] %s\n", n.ID, n.Title)
			if n.Tags != "" {
				fmt.Fprintf(&b, "Tags: %s\n", n.Tags)
			}
			fmt.Fprintf(&b, "Updated: %s\n\n%s\n", n.UpdatedAt, n.Content)
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

func handleCreateNote(c *client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title, err := request.RequireString("title")
		if err != nil {
			return mcp.NewToolResultError("title is required"), nil
		}
		content, err := request.RequireString("content")
		if err != nil {
			return mcp.NewToolResultError("content is required"), nil
		}

		req := models.NoteRequest{Title: title, Content: content, Tags: request.GetString("tags", "")}
		status, body, err := c.do(ctx, http.MethodPost, "/api/v1/notes", req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if status != http.StatusCreated {
			return apiError(status, body, "create failed"), nil
		}

		var n models.NoteResponse
		if err := json.Unmarshal(body, &n); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Saved note %d: %s", n.ID, n.Title)), nil
	}
}

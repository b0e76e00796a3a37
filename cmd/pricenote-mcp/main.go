package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	apiURL := os.Getenv("PRICENOTE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}

	s := server.NewMCPServer(
		"pricenote",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	c := newClient(apiURL)

	getPriceTool := mcp.NewTool("get_price",
		mcp.WithDescription("Load a product page and return its displayed price. Tries a list of known price element selectors in order and returns the first visible, non-empty one."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The product page URL"),
		),
		mcp.WithString("fetch_mode",
			mcp.Description("'browser' (default, renders JavaScript), 'http' (static HTML only, fastest) or 'auto' (http first, then browser, then stealth browser)"),
			mcp.Enum("browser", "http", "auto"),
		),
		mcp.WithBoolean("stealth",
			mcp.Description("Enable anti-bot-detection evasions in the browser"),
		),
		mcp.WithNumber("timeout_ms",
			mcp.Description("Navigation timeout in milliseconds (default 30000)"),
		),
	)
	s.AddTool(getPriceTool, handleGetPrice(c))

	searchNotesTool := mcp.NewTool("search_notes",
		mcp.WithDescription("Search the knowledge base. Matches title, content and tags; most recently updated first. An empty query lists every note."),
		mcp.WithString("query",
			mcp.Description("Text to look for"),
		),
	)
	s.AddTool(searchNotesTool, handleSearchNotes(c))

	createNoteTool := mcp.NewTool("create_note",
		mcp.WithDescription("Save a note in the knowledge base."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note body")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
	)
	s.AddTool(createNoteTool, handleCreateNote(c))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

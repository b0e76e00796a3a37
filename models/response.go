package models

// PriceResponse is the response for POST /api/v1/price.
type PriceResponse struct {
	// Success indicates whether a price was found.
	Success bool `json:"success"`

	// Price is the trimmed text of the winning element.
	Price string `json:"price,omitempty"`

	// Selector is the candidate selector that produced Price.
	Selector string `json:"selector,omitempty"`

	// URL is the requested page.
	URL string `json:"url"`

	// EngineUsed indicates which engine loaded the page
	// (e.g. "http", "rod", "rod-stealth", "chromedp").
	EngineUsed string `json:"engine_used,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// NavigationMs is the time spent loading and rendering the page.
	NavigationMs int64 `json:"navigation_ms"`

	// LocateMs is the time spent walking the selector list.
	LocateMs int64 `json:"locate_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Notes     int       `json:"notes"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages      int  `json:"max_pages"`
	ActivePages   int  `json:"active_pages"`
	BrowserLaunch bool `json:"browser_launched"`
}

// NoteResponse is a single note in the JSON API.
type NoteResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Tags      string `json:"tags"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// NoteListResponse is the response for GET /api/v1/notes.
type NoteListResponse struct {
	Query string         `json:"query,omitempty"`
	Total int            `json:"total"`
	Notes []NoteResponse `json:"notes"`
}

// ErrorResponse wraps an ErrorDetail for endpoints without a richer body.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}

package models

// Fetch modes accepted by PriceRequest.FetchMode.
const (
	FetchModeBrowser = "browser"
	FetchModeHTTP    = "http"
	FetchModeAuto    = "auto"
)

// PriceRequest is the payload for POST /api/v1/price.
type PriceRequest struct {
	// URL is the product page to load. Required.
	URL string `json:"url" binding:"required,url"`

	// TimeoutMs bounds navigation (and, separately, the settle wait).
	// Default: 30000. Clamped to the configured maximum.
	TimeoutMs int `json:"timeout_ms,omitempty" binding:"omitempty,min=1"`

	// FetchMode controls how the page is loaded.
	// "browser" (default): headless browser, JS rendered.
	// "http": plain HTTP fetch, static markup only.
	// "auto": try HTTP first, then the browser, then the stealth browser.
	FetchMode string `json:"fetch_mode,omitempty" binding:"omitempty,oneof=browser http auto"`

	// Stealth enables anti-bot-detection evasions in the browser.
	Stealth bool `json:"stealth,omitempty"`

	// MaxAge, in milliseconds, allows serving a cached result no older than
	// this. 0 disables the cache for this request.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`

	// WebhookURL, when set, receives a signed copy of the result.
	WebhookURL string `json:"webhook_url,omitempty" binding:"omitempty,url"`
}

// Defaults applies default values to unset fields.
func (r *PriceRequest) Defaults() {
	if r.TimeoutMs == 0 {
		r.TimeoutMs = 30000
	}
	if r.FetchMode == "" {
		r.FetchMode = FetchModeBrowser
	}
}

// NoteForm is the form payload of the HTML note pages.
type NoteForm struct {
	Title   string `form:"title" binding:"required"`
	Content string `form:"content" binding:"required"`
	Tags    string `form:"tags"`
}

// NoteRequest is the JSON payload for creating or replacing a note.
type NoteRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
	Tags    string `json:"tags"`
}

// ClipForm is the form payload for POST /notes/clip.
type ClipForm struct {
	URL  string `form:"url" binding:"required,url"`
	Tags string `form:"tags"`
}

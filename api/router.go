package api

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pricenote/api/handler"
	"github.com/use-agent/pricenote/api/middleware"
	"github.com/use-agent/pricenote/cache"
	"github.com/use-agent/pricenote/config"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

var funcs = template.FuncMap{
	"tags": splitTags,
}

// splitTags turns "a, b,,c" into ["a" "b" "c"].
func splitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → RequestID → Logger
//	Price:   RateLimit
//
// Health and the notes pages are never rate limited.
func NewRouter(
	cfg *config.Config,
	ps handler.PriceService,
	store handler.NoteStore,
	clipper handler.Clipper,
	cc *cache.Cache,
	startTime time.Time,
) (*gin.Engine, error) {
	gin.SetMode(cfg.Server.Mode)

	tmpl, err := template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("api: parse templates: %w", err)
	}
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("api: static assets: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(gin.Logger())
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", http.FS(static))

	// ── HTML notes UI ───────────────────────────────────────────────
	r.GET("/", handler.IndexPage(store))
	r.POST("/notes", handler.CreateNotePage(store))
	r.POST("/notes/clip", handler.ClipPage(store, clipper))
	r.GET("/notes/:id", handler.NotePage(store))
	r.GET("/notes/:id/edit", handler.EditNotePage(store))
	r.POST("/notes/:id/edit", handler.UpdateNotePage(store))
	r.POST("/notes/:id/delete", handler.DeleteNotePage(store))

	// ── JSON API ────────────────────────────────────────────────────
	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(ps, store, startTime))

	v1.POST("/price", middleware.RateLimit(cfg.RateLimit), handler.Price(ps, cc, cfg.Webhook.Secret))

	v1.GET("/notes", handler.ListNotes(store))
	v1.POST("/notes", handler.CreateNote(store))
	v1.GET("/notes/:id", handler.GetNote(store))
	v1.PUT("/notes/:id", handler.UpdateNote(store))
	v1.DELETE("/notes/:id", handler.DeleteNote(store))

	return r, nil
}

package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pricenote/models"
)

// Version is reported by the health endpoint.
var Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Reports pool utilisation and degrades status when > 80% of pages are
// active or the note store cannot be read.
func Health(ps PriceService, store NoteStore, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := ps.Stats()

		status := "healthy"
		if stats.MaxPages > 0 && stats.ActivePages > int(float64(stats.MaxPages)*0.8) {
			status = "degraded"
		}

		count, err := store.Count(c.Request.Context())
		if err != nil {
			slog.Warn("health: note count failed", "error", err)
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			PoolStats: stats,
			Notes:     count,
			Version:   Version,
		})
	}
}

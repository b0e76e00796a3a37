package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pricenote/cleaner"
	"github.com/use-agent/pricenote/models"
	"github.com/use-agent/pricenote/notes"
	"github.com/use-agent/pricenote/scraper"
)

// PriceService looks up prices. *scraper.Scraper implements it.
type PriceService interface {
	FetchPrice(ctx context.Context, req *models.PriceRequest) (*scraper.PriceResult, error)
	Selectors() []string
	Stats() models.PoolStats
}

// NoteStore persists notes. *notes.Store implements it.
type NoteStore interface {
	Create(ctx context.Context, title, content, tags string) (*notes.Note, error)
	Get(ctx context.Context, id int64) (*notes.Note, error)
	List(ctx context.Context, query string) ([]notes.Note, error)
	Update(ctx context.Context, id int64, title, content, tags string) (*notes.Note, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// Clipper turns a URL into note content. *cleaner.Clipper implements it.
type Clipper interface {
	Clip(ctx context.Context, rawURL string) (*cleaner.Clip, error)
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation, models.ErrCodeClipFailed:
		return http.StatusBadGateway // 502
	case models.ErrCodePriceNotFound, models.ErrCodeNoteNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	default:
		return http.StatusInternalServerError // 500
	}
}

// asScrapeError returns err as a *models.ScrapeError, wrapping foreign
// errors as INTERNAL_ERROR.
func asScrapeError(err error) *models.ScrapeError {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se
	}
	return models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
}

// respondError writes err as a structured JSON error response.
func respondError(c *gin.Context, err error) {
	se := asScrapeError(err)
	c.JSON(mapErrorToStatus(se), models.ErrorResponse{
		Success: false,
		Error:   se.ToDetail(),
	})
}

// invalidInput wraps a binding or parsing error.
func invalidInput(err error) *models.ScrapeError {
	return models.NewScrapeError(models.ErrCodeInvalidInput, err.Error(), err)
}

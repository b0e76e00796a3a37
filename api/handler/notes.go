package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pricenote/models"
	"github.com/use-agent/pricenote/notes"
)

func toNoteResponse(n *notes.Note) models.NoteResponse {
	return models.NoteResponse{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		Tags:      n.Tags,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

// noteError maps store errors to ScrapeErrors.
func noteError(err error) *models.ScrapeError {
	switch {
	case errors.Is(err, notes.ErrNoteNotFound):
		return models.NewScrapeError(models.ErrCodeNoteNotFound, "note not found", err)
	case errors.Is(err, notes.ErrEmptyField):
		return models.NewScrapeError(models.ErrCodeInvalidInput, "title and content are required", err)
	default:
		return models.NewScrapeError(models.ErrCodeInternal, "note store failure", err)
	}
}

func parseID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid note id %q", c.Param("id"))
	}
	return id, nil
}

// ListNotes returns a handler for GET /api/v1/notes?q=.
func ListNotes(store NoteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := c.Query("q")
		list, err := store.List(c.Request.Context(), q)
		if err != nil {
			respondError(c, noteError(err))
			return
		}

		resp := models.NoteListResponse{
			Query: q,
			Total: len(list),
			Notes: make([]models.NoteResponse, 0, len(list)),
		}
		for i := range list {
			resp.Notes = append(resp.Notes, toNoteResponse(&list[i]))
		}
		c.JSON(http.StatusOK, resp)
	}
}

// CreateNote returns a handler for POST /api/v1/notes.
func CreateNote(store NoteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.NoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, invalidInput(err))
			return
		}

		n, err := store.Create(c.Request.Context(), req.Title, req.Content, req.Tags)
		if err != nil {
			respondError(c, noteError(err))
			return
		}
		c.Header("Location", fmt.Sprintf("/api/v1/notes/%d", n.ID))
		c.JSON(http.StatusCreated, toNoteResponse(n))
	}
}

// GetNote returns a handler for GET /api/v1/notes/:id.
func GetNote(store NoteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c)
		if err != nil {
			respondError(c, invalidInput(err))
			return
		}

		n, err := store.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, noteError(err))
			return
		}
		c.JSON(http.StatusOK, toNoteResponse(n))
	}
}

// UpdateNote returns a handler for PUT /api/v1/notes/:id.
func UpdateNote(store NoteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c)
		if err != nil {
			respondError(c, invalidInput(err))
			return
		}
		var req models.NoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, invalidInput(err))
			return
		}

		n, err := store.Update(c.Request.Context(), id, req.Title, req.Content, req.Tags)
		if err != nil {
			respondError(c, noteError(err))
			return
		}
		c.JSON(http.StatusOK, toNoteResponse(n))
	}
}

// DeleteNote returns a handler for DELETE /api/v1/notes/:id.
func DeleteNote(store NoteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c)
		if err != nil {
			respondError(c, invalidInput(err))
			return
		}

		if err := store.Delete(c.Request.Context(), id); err != nil {
			respondError(c, noteError(err))
			return
		}
		c.Status(http.StatusNoContent)
	}
}

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pricenote/models"
	"github.com/use-agent/pricenote/notes"
)

// The HTML pages answer every successful form post with 303 See Other so a
// browser refresh never resubmits. A missing note sends the user home.

func redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}

func renderError(c *gin.Context, status int, message string) {
	c.HTML(status, "error.html", gin.H{"Status": status, "Message": message})
}

// IndexPage returns a handler for GET /?q=.
func IndexPage(store NoteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := c.Query("q")
		list, err := store.List(c.Request.Context(), q)
		if err != nil {
			slog.Error("list notes failed", "query", q, "error", err)
			renderError(c, http.StatusInternalServerError, "could not load notes")
			return
		}
		c.HTML(http.StatusOK, "index.html", gin.H{"Notes": list, "Query": q})
	}
}

// CreateNotePage returns a handler for POST /notes.
func CreateNotePage(store NoteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form models.NoteForm
		if err := c.ShouldBind(&form); err != nil {
			renderError(c, http.StatusBadRequest, "title and content are required")
			return
		}

		if _, err := store.Create(c.Request.Context(), form.Title, form.Content, form.Tags); err != nil {
			if errors.Is(err, notes.ErrEmptyField) {
				renderError(c, http.StatusBadRequest, "title and content are required")
				return
			}
			slog.Error("create note failed", "error", err)
			renderError(c, http.StatusInternalServerError, "could not save note")
			return
		}
		redirect(c, "/")
	}
}

// notePage renders tmpl for the note named by :id.
func notePage(store NoteStore, tmpl string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c)
		if err != nil {
			redirect(c, "/")
			return
		}
		n, err := store.Get(c.Request.Context(), id)
		if err != nil {
			if !errors.Is(err, notes.ErrNoteNotFound) {
				slog.Error("get note failed", "id", id, "error", err)
			}
			redirect(c, "/")
			return
		}
		c.HTML(http.StatusOK, tmpl, gin.H{"Note": n})
	}
}

// NotePage returns a handler for GET /notes/:id.
func NotePage(store NoteStore) gin.HandlerFunc { return notePage(store, "detail.html") }

// EditNotePage returns a handler for GET /notes/:id/edit.
func EditNotePage(store NoteStore) gin.HandlerFunc { return notePage(store, "edit.html") }

// UpdateNotePage returns a handler for POST /notes/:id/edit.
func UpdateNotePage(store NoteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c)
		if err != nil {
			redirect(c, "/")
			return
		}
		var form models.NoteForm
		if err := c.ShouldBind(&form); err != nil {
			renderError(c, http.StatusBadRequest, "title and content are required")
			return
		}

		_, err = store.Update(c.Request.Context(), id, form.Title, form.Content, form.Tags)
		switch {
		case errors.Is(err, notes.ErrNoteNotFound):
			redirect(c, "/")
		case errors.Is(err, notes.ErrEmptyField):
			renderError(c, http.StatusBadRequest, "title and content are required")
		case err != nil:
			slog.Error("update note failed", "id", id, "error", err)
			renderError(c, http.StatusInternalServerError, "could not save note")
		default:
			redirect(c, fmt.Sprintf("/notes/%d", id))
		}
	}
}

// DeleteNotePage returns a handler for POST /notes/:id/delete.
// Deleting a note that is already gone still lands on the list.
func DeleteNotePage(store NoteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c)
		if err == nil {
			if err := store.Delete(c.Request.Context(), id); err != nil && !errors.Is(err, notes.ErrNoteNotFound) {
				slog.Error("delete note failed", "id", id, "error", err)
				renderError(c, http.StatusInternalServerError, "could not delete note")
				return
			}
		}
		redirect(c, "/")
	}
}

// ClipPage returns a handler for POST /notes/clip: the page at the form's
// url becomes a new note.
func ClipPage(store NoteStore, clipper Clipper) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form models.ClipForm
		if err := c.ShouldBind(&form); err != nil {
			renderError(c, http.StatusBadRequest, "a valid http(s) URL is required")
			return
		}

		clip, err := clipper.Clip(c.Request.Context(), form.URL)
		if err != nil {
			slog.Warn("clip failed", "url", form.URL, "error", err)
			renderError(c, http.StatusBadGateway, "could not clip "+form.URL)
			return
		}

		n, err := store.Create(c.Request.Context(), clip.Title, clip.Markdown, form.Tags)
		if err != nil {
			slog.Error("store clip failed", "url", form.URL, "error", err)
			renderError(c, http.StatusInternalServerError, "could not save note")
			return
		}
		slog.Info("page clipped", "url", form.URL, "note", n.ID)
		redirect(c, fmt.Sprintf("/notes/%d", n.ID))
	}
}

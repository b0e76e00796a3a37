// Package notes persists the personal knowledge base in SQLite.
package notes

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

// TimeLayout is the stored timestamp format: UTC, second precision.
const TimeLayout = "2006-01-02T15:04:05"

var (
	// ErrNoteNotFound is returned when no note has the requested id.
	ErrNoteNotFound = errors.New("notes: note not found")

	// ErrEmptyField is returned when a title or content is blank after
	// trimming.
	ErrEmptyField = errors.New("notes: title and content are required")
)

// Note is one row of the notes table.
type Note struct {
	ID        int64  `db:"id"`
	Title     string `db:"title"`
	Content   string `db:"content"`
	Tags      string `db:"tags"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

// Store handles database operations for notes.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open opens (creating if needed) the SQLite database at path and applies
// the schema. ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("notes: open %s: %w", path, err)
	}
	// SQLite serialises writers anyway; one connection also keeps an
	// in-memory database alive and shared.
	db.SetMaxOpenConns(1)

	s := NewStore(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an existing connection. The schema is not applied.
func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Migrate creates the notes table when it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("notes: apply schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(TimeLayout)
}

func clean(title, content, tags string) (string, string, string, error) {
	title, content, tags = strings.TrimSpace(title), strings.TrimSpace(content), strings.TrimSpace(tags)
	if title == "" || content == "" {
		return "", "", "", ErrEmptyField
	}
	return title, content, tags, nil
}

// Create inserts a note. All fields are trimmed; created_at and updated_at
// are set to the current time.
func (s *Store) Create(ctx context.Context, title, content, tags string) (*Note, error) {
	title, content, tags, err := clean(title, content, tags)
	if err != nil {
		return nil, err
	}
	now := s.timestamp()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (title, content, tags, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		title, content, tags, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("notes: create: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("notes: create: last insert id: %w", err)
	}

	return &Note{
		ID:        id,
		Title:     title,
		Content:   content,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Get returns the note with the given id.
func (s *Store) Get(ctx context.Context, id int64) (*Note, error) {
	var n Note
	err := s.db.GetContext(ctx, &n,
		`SELECT id, title, content, tags, created_at, updated_at FROM notes WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("notes: get %d: %w", id, err)
	}
	return &n, nil
}

// List returns notes, most recently updated first. A non-empty query keeps
// only notes whose title, content or tags contain it.
func (s *Store) List(ctx context.Context, query string) ([]Note, error) {
	q := `SELECT id, title, content, tags, created_at, updated_at FROM notes`
	var args []any
	if query != "" {
		q += ` WHERE title LIKE ? OR content LIKE ? OR tags LIKE ?`
		like := "%" + query + "%"
		args = append(args, like, like, like)
	}
	q += ` ORDER BY updated_at DESC, id DESC`

	notes := []Note{}
	if err := s.db.SelectContext(ctx, &notes, q, args...); err != nil {
		return nil, fmt.Errorf("notes: list: %w", err)
	}
	return notes, nil
}

// Update replaces a note's fields and bumps updated_at.
func (s *Store) Update(ctx context.Context, id int64, title, content, tags string) (*Note, error) {
	title, content, tags, err := clean(title, content, tags)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE notes
		SET title = ?, content = ?, tags = ?, updated_at = ?
		WHERE id = ?`,
		title, content, tags, s.timestamp(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("notes: update %d: %w", id, err)
	}
	if err := requireOneRow(res); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a note.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("notes: delete %d: %w", id, err)
	}
	return requireOneRow(res)
}

// Count returns the number of stored notes.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM notes`); err != nil {
		return 0, fmt.Errorf("notes: count: %w", err)
	}
	return n, nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("notes: rows affected: %w", err)
	}
	if n == 0 {
		return ErrNoteNotFound
	}
	return nil
}

package notes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setup returns an in-memory store whose clock advances one second per
// write, so updated_at ordering is deterministic.
func setup(t testing.TB) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func TestStore_CreateTrimsAndStamps(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	n, err := s.Create(ctx, "  Go tips ", "\tuse errors.Is\n", " go,errors ")
	require.NoError(t, err)
	assert.Equal(t, "Go tips", n.Title)
	assert.Equal(t, "use errors.Is", n.Content)
	assert.Equal(t, "go,errors", n.Tags)
	assert.Equal(t, "2024-03-01T12:00:01", n.CreatedAt)
	assert.Equal(t, n.CreatedAt, n.UpdatedAt)

	got, err := s.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got)
}

func TestStore_CreateRejectsBlank(t *testing.T) {
	s := setup(t)

	_, err := s.Create(context.Background(), "   ", "body", "")
	assert.ErrorIs(t, err, ErrEmptyField)

	_, err = s.Create(context.Background(), "title", "\n", "")
	assert.ErrorIs(t, err, ErrEmptyField)
}

func TestStore_GetMissing(t *testing.T) {
	s := setup(t)
	_, err := s.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestStore_ListOrderAndSearch(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	a, err := s.Create(ctx, "Kettle price", "watch for a drop", "shopping")
	require.NoError(t, err)
	b, err := s.Create(ctx, "Reading list", "The Go Programming Language", "books")
	require.NoError(t, err)
	c, err := s.Create(ctx, "Groceries", "milk, eggs", "shopping,home")
	require.NoError(t, err)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{c.ID, b.ID, a.ID}, ids(all))

	// Editing moves a note to the top.
	_, err = s.Update(ctx, a.ID, a.Title, a.Content, a.Tags)
	require.NoError(t, err)
	all, err = s.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, c.ID, b.ID}, ids(all))

	tests := []struct {
		query string
		want  []int64
	}{
		{"shopping", []int64{a.ID, c.ID}},
		{"Go Programming", []int64{b.ID}},
		{"eggs", []int64{c.ID}},
		{"price", []int64{a.ID}},
		{"nothing-matches", []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := s.List(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestStore_Update(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	n, err := s.Create(ctx, "draft", "first", "")
	require.NoError(t, err)

	up, err := s.Update(ctx, n.ID, " final ", " second ", " done ")
	require.NoError(t, err)
	assert.Equal(t, "final", up.Title)
	assert.Equal(t, "second", up.Content)
	assert.Equal(t, "done", up.Tags)
	assert.Equal(t, n.CreatedAt, up.CreatedAt)
	assert.Greater(t, up.UpdatedAt, n.UpdatedAt)

	_, err = s.Update(ctx, n.ID+100, "x", "y", "")
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestStore_DeleteAndCount(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	n, err := s.Create(ctx, "temp", "gone soon", "")
	require.NoError(t, err)
	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, s.Delete(ctx, n.ID))
	assert.ErrorIs(t, s.Delete(ctx, n.ID), ErrNoteNotFound)

	count, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOpen_FileDatabasePersists(t *testing.T) {
	path := t.TempDir() + "/knowledge.db"
	ctx := context.Background()

	s, err := Open(ctx, path)
	require.NoError(t, err)
	n, err := s.Create(ctx, "kept", "across opens", "")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Title)
}

func ids(notes []Note) []int64 {
	out := make([]int64, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.ID)
	}
	return out
}

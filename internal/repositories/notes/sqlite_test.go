package notes

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillnotes/notesync/internal/common"
	"github.com/quillnotes/notesync/internal/models"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE notes (
  id          TEXT PRIMARY KEY,
  owner_id    TEXT NOT NULL,
  title       TEXT NOT NULL DEFAULT '',
  content     TEXT NOT NULL DEFAULT '',
  created_at  INTEGER NOT NULL,
  modified_at INTEGER NOT NULL,
  deleted     INTEGER NOT NULL DEFAULT 0
);`)
	require.NoError(t, err)
	return db
}

func sampleNote(id, ownerID string, modifiedAt int64) *models.Note {
	return &models.Note{
		ID:         id,
		OwnerID:    ownerID,
		Title:      "title " + id,
		Content:    "content " + id,
		CreatedAt:  1,
		ModifiedAt: modifiedAt,
	}
}

func TestInsertAndGetByID(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	n := sampleNote("n1", "u1", 10)
	require.NoError(t, r.Insert(ctx, n))

	got, err := r.GetByID(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, n, got)
}

func TestGetByID_NotExists_ReturnsNotFound(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	_, err := r.GetByID(ctx, "absent")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestListByOwner_FiltersAndOrdersById(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, sampleNote("b", "u1", 20)))
	require.NoError(t, r.Insert(ctx, sampleNote("a", "u1", 10)))
	require.NoError(t, r.Insert(ctx, sampleNote("c", "u2", 30)))

	list, err := r.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
}

func TestCountByOwner(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, sampleNote("a", "u1", 10)))
	require.NoError(t, r.Insert(ctx, sampleNote("b", "u2", 20)))

	count, err := r.CountByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpdate_ChangesMutableColumns(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	n := sampleNote("n1", "u1", 10)
	require.NoError(t, r.Insert(ctx, n))

	n.Title = "edited"
	n.Content = "edited body"
	n.ModifiedAt = 99
	n.Deleted = true
	require.NoError(t, r.Update(ctx, n))

	got, err := r.GetByID(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Title)
	assert.Equal(t, int64(99), got.ModifiedAt)
	assert.True(t, got.Deleted)
}

func TestUpsert_InsertsThenOverwrites(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	n := sampleNote("n1", "u1", 10)
	require.NoError(t, r.Upsert(ctx, n))

	n.Content = "converged"
	n.ModifiedAt = 50
	require.NoError(t, r.Upsert(ctx, n))

	got, err := r.GetByID(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "converged", got.Content)
	assert.Equal(t, int64(50), got.ModifiedAt)

	count, err := r.CountByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDelete_RemovesRow_AndIsIdempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, sampleNote("n1", "u1", 10)))
	require.NoError(t, r.Delete(ctx, "n1"))

	_, err := r.GetByID(ctx, "n1")
	require.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, r.Delete(ctx, "n1"))
}

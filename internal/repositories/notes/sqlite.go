package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/quillnotes/notesync/internal/common"
	"github.com/quillnotes/notesync/internal/dbx"
	"github.com/quillnotes/notesync/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Note, error) {
	query := `select id, owner_id, title, content, created_at, modified_at, deleted
		from notes where id=?`
	row := r.db.QueryRowContext(ctx, query, id)

	n := &models.Note{}
	err := row.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Content, &n.CreatedAt, &n.ModifiedAt, &n.Deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select note: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Note, error) {
	query := `select id, owner_id, title, content, created_at, modified_at, deleted
		from notes where owner_id=? order by id`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select notes: %w", err)
	}
	defer rows.Close()

	var result []models.Note
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Content, &n.CreatedAt, &n.ModifiedAt, &n.Deleted); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `select count(*) from notes where owner_id=?`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	return count, nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, n *models.Note) error {
	query := `insert into notes (id, owner_id, title, content, created_at, modified_at, deleted)
		values (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.OwnerID, n.Title, n.Content, n.CreatedAt, n.ModifiedAt, n.Deleted)
	if err != nil {
		return fmt.Errorf("failed to insert note: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, n *models.Note) error {
	query := `update notes set title=?, content=?, modified_at=?, deleted=? where id=?`
	_, err := r.db.ExecContext(ctx, query, n.Title, n.Content, n.ModifiedAt, n.Deleted, n.ID)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	return nil
}

// Upsert inserts the note or, on id conflict, updates the mutable columns.
func (r *SQLiteRepository) Upsert(ctx context.Context, n *models.Note) error {
	query := `insert into notes (id, owner_id, title, content, created_at, modified_at, deleted)
		values (?, ?, ?, ?, ?, ?, ?)
		on conflict(id) do update set title = excluded.title,
			content = excluded.content,
			modified_at = excluded.modified_at,
			deleted = excluded.deleted`
	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.OwnerID, n.Title, n.Content, n.CreatedAt, n.ModifiedAt, n.Deleted)
	if err != nil {
		return fmt.Errorf("failed to upsert note: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `delete from notes where id=?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}

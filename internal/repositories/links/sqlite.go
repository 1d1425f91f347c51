package links

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/quillnotes/notesync/internal/common"
	"github.com/quillnotes/notesync/internal/dbx"
	"github.com/quillnotes/notesync/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.NoteCategoryLink, error) {
	query := `select id, owner_id, note_id, category_id, modified_at, deleted
		from note_category_links where id=?`
	row := r.db.QueryRowContext(ctx, query, id)

	l := &models.NoteCategoryLink{}
	err := row.Scan(&l.ID, &l.OwnerID, &l.NoteID, &l.CategoryID, &l.ModifiedAt, &l.Deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select link: %w", err)
	}
	return l, nil
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.NoteCategoryLink, error) {
	query := `select id, owner_id, note_id, category_id, modified_at, deleted
		from note_category_links where owner_id=? order by id`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select links: %w", err)
	}
	defer rows.Close()

	var result []models.NoteCategoryLink
	for rows.Next() {
		var l models.NoteCategoryLink
		if err := rows.Scan(&l.ID, &l.OwnerID, &l.NoteID, &l.CategoryID, &l.ModifiedAt, &l.Deleted); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `select count(*) from note_category_links where owner_id=?`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	return count, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, l *models.NoteCategoryLink) error {
	query := `insert into note_category_links (id, owner_id, note_id, category_id, modified_at, deleted)
		values (?, ?, ?, ?, ?, ?)
		on conflict(id) do update set note_id = excluded.note_id,
			category_id = excluded.category_id,
			modified_at = excluded.modified_at,
			deleted = excluded.deleted`
	_, err := r.db.ExecContext(ctx, query,
		l.ID, l.OwnerID, l.NoteID, l.CategoryID, l.ModifiedAt, l.Deleted)
	if err != nil {
		return fmt.Errorf("failed to upsert link: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `delete from note_category_links where id=?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	return nil
}

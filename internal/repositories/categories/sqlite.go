package categories

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

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	query := `select id, owner_id, name, color, icon, modified_at, deleted
		from categories where id=?`
	row := r.db.QueryRowContext(ctx, query, id)

	c := &models.Category{}
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Color, &c.Icon, &c.ModifiedAt, &c.Deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Category, error) {
	query := `select id, owner_id, name, color, icon, modified_at, deleted
		from categories where owner_id=? order by id`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select categories: %w", err)
	}
	defer rows.Close()

	var result []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Color, &c.Icon, &c.ModifiedAt, &c.Deleted); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `select count(*) from categories where owner_id=?`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return count, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, c *models.Category) error {
	query := `insert into categories (id, owner_id, name, color, icon, modified_at, deleted)
		values (?, ?, ?, ?, ?, ?, ?)
		on conflict(id) do update set name = excluded.name,
			color = excluded.color,
			icon = excluded.icon,
			modified_at = excluded.modified_at,
			deleted = excluded.deleted`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.OwnerID, c.Name, c.Color, c.Icon, c.ModifiedAt, c.Deleted)
	if err != nil {
		return fmt.Errorf("failed to upsert category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `delete from categories where id=?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

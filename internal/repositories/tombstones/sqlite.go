package tombstones

import (
	"context"
	"fmt"

	"github.com/quillnotes/notesync/internal/dbx"
	"github.com/quillnotes/notesync/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Insert records a tombstone. A second delete of the same record keeps the
// original marker untouched.
func (r *SQLiteRepository) Insert(ctx context.Context, t *models.Tombstone) error {
	query := `insert or ignore into tombstones (id, table_name, record_id, owner_id, deleted_at, sync_status)
		values (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.TableName, t.RecordID, t.OwnerID, t.DeletedAt, t.SyncStatus)
	if err != nil {
		return fmt.Errorf("failed to insert tombstone: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, tableName, recordID, ownerID string) (bool, error) {
	var count int
	query := `select count(*) from tombstones where table_name=? and record_id=? and owner_id=?`
	err := r.db.QueryRowContext(ctx, query, tableName, recordID, ownerID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query tombstone: %w", err)
	}
	return count > 0, nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.Tombstone, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select tombstones: %w", err)
	}
	defer rows.Close()

	var result []models.Tombstone
	for rows.Next() {
		var t models.Tombstone
		if err := rows.Scan(&t.ID, &t.TableName, &t.RecordID, &t.OwnerID, &t.DeletedAt, &t.SyncStatus); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Tombstone, error) {
	return r.list(ctx, `select id, table_name, record_id, owner_id, deleted_at, sync_status
		from tombstones where owner_id=? order by deleted_at`, ownerID)
}

func (r *SQLiteRepository) ListPending(ctx context.Context, ownerID string) ([]models.Tombstone, error) {
	return r.list(ctx, `select id, table_name, record_id, owner_id, deleted_at, sync_status
		from tombstones where owner_id=? and sync_status=? order by deleted_at`,
		ownerID, models.TombstonePending)
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`update tombstones set sync_status=? where id=?`, models.TombstoneSynced, id)
	if err != nil {
		return fmt.Errorf("failed to mark tombstone synced: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) PurgeOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`delete from tombstones where sync_status=? and deleted_at < ?`,
		models.TombstoneSynced, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge tombstones: %w", err)
	}
	purged, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return purged, nil
}

package attachments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/quillnotes/notesync/internal/common"
	"github.com/quillnotes/notesync/internal/dbx"
	"github.com/quillnotes/notesync/internal/models"
)

const columns = `id, note_id, owner_id, file_name, mime_type, size, local_path,
	remote_id, content_hash, sync_status, needs_upload, retry_count, created_at, modified_at`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func scanAttachment(scan func(dest ...any) error) (*models.Attachment, error) {
	a := &models.Attachment{}
	err := scan(&a.ID, &a.NoteID, &a.OwnerID, &a.FileName, &a.MimeType, &a.Size,
		&a.LocalPath, &a.RemoteID, &a.ContentHash, &a.SyncStatus, &a.NeedsUpload,
		&a.RetryCount, &a.CreatedAt, &a.ModifiedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Attachment, error) {
	row := r.db.QueryRowContext(ctx, `select `+columns+` from attachments where id=?`, id)
	a, err := scanAttachment(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select attachment: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.Attachment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select attachments: %w", err)
	}
	defer rows.Close()

	var result []models.Attachment
	for rows.Next() {
		a, err := scanAttachment(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Attachment, error) {
	return r.list(ctx, `select `+columns+` from attachments where owner_id=? order by id`, ownerID)
}

func (r *SQLiteRepository) ListPendingUpload(ctx context.Context, ownerID string) ([]models.Attachment, error) {
	return r.list(ctx, `select `+columns+` from attachments
		where owner_id=? and needs_upload=1 and sync_status != ? order by id`,
		ownerID, models.AttachmentLocallyDeleted)
}

func (r *SQLiteRepository) ListByStatus(ctx context.Context, ownerID string, status models.AttachmentStatus) ([]models.Attachment, error) {
	return r.list(ctx, `select `+columns+` from attachments
		where owner_id=? and sync_status=? order by id`, ownerID, status)
}

func (r *SQLiteRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `select count(*) from attachments where owner_id=?`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count attachments: %w", err)
	}
	return count, nil
}

// Upsert inserts the attachment or, on id conflict, updates the mutable
// columns. The same remote id arriving on two passes must not raise a
// uniqueness violation.
func (r *SQLiteRepository) Upsert(ctx context.Context, a *models.Attachment) error {
	query := `insert into attachments (` + columns + `)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		on conflict(id) do update set file_name = excluded.file_name,
			mime_type = excluded.mime_type,
			size = excluded.size,
			local_path = excluded.local_path,
			remote_id = excluded.remote_id,
			content_hash = excluded.content_hash,
			sync_status = excluded.sync_status,
			needs_upload = excluded.needs_upload,
			retry_count = excluded.retry_count,
			modified_at = excluded.modified_at`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.NoteID, a.OwnerID, a.FileName, a.MimeType, a.Size, a.LocalPath,
		a.RemoteID, a.ContentHash, a.SyncStatus, a.NeedsUpload, a.RetryCount,
		a.CreatedAt, a.ModifiedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert attachment: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `delete from attachments where id=?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id, remoteID, contentHash string) error {
	query := `update attachments set sync_status=?, remote_id=?, content_hash=?, needs_upload=0
		where id=?`
	_, err := r.db.ExecContext(ctx, query, models.AttachmentSynced, remoteID, contentHash, id)
	if err != nil {
		return fmt.Errorf("failed to mark attachment synced: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkLocallyDeleted(ctx context.Context, id string) error {
	query := `update attachments set sync_status=?, needs_upload=0 where id=?`
	_, err := r.db.ExecContext(ctx, query, models.AttachmentLocallyDeleted, id)
	if err != nil {
		return fmt.Errorf("failed to mark attachment locally deleted: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) IncrementRetry(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `update attachments set retry_count = retry_count + 1 where id=?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment attachment retry count: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateContentHash(ctx context.Context, id, contentHash string) error {
	_, err := r.db.ExecContext(ctx, `update attachments set content_hash=? where id=?`, contentHash, id)
	if err != nil {
		return fmt.Errorf("failed to update attachment hash: %w", err)
	}
	return nil
}

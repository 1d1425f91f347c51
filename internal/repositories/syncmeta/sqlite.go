package syncmeta

import (
	"context"
	"database/sql"
	"errors"
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

func (r *SQLiteRepository) Get(ctx context.Context, ownerID string) (*models.SyncMetadata, error) {
	query := `select owner_id, last_sync_at, note_count, attachment_count, category_count,
		link_count, local_fingerprint, remote_fingerprint, schema_version, created_at, updated_at
		from sync_metadata where owner_id=?`
	row := r.db.QueryRowContext(ctx, query, ownerID)

	m := &models.SyncMetadata{}
	err := row.Scan(&m.OwnerID, &m.LastSyncAt, &m.NoteCount, &m.AttachmentCount,
		&m.CategoryCount, &m.LinkCount, &m.LocalFingerprint, &m.RemoteFingerprint,
		&m.SchemaVersion, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync metadata[%s]: %w", ownerID, err)
	}
	return m, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, m *models.SyncMetadata) error {
	query := `insert into sync_metadata (owner_id, last_sync_at, note_count, attachment_count,
			category_count, link_count, local_fingerprint, remote_fingerprint, schema_version,
			created_at, updated_at)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		on conflict(owner_id) do update set last_sync_at = excluded.last_sync_at,
			note_count = excluded.note_count,
			attachment_count = excluded.attachment_count,
			category_count = excluded.category_count,
			link_count = excluded.link_count,
			local_fingerprint = excluded.local_fingerprint,
			remote_fingerprint = excluded.remote_fingerprint,
			schema_version = excluded.schema_version,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		m.OwnerID, m.LastSyncAt, m.NoteCount, m.AttachmentCount, m.CategoryCount,
		m.LinkCount, m.LocalFingerprint, m.RemoteFingerprint, m.SchemaVersion,
		m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert sync metadata[%s]: %w", m.OwnerID, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, ownerID string) error {
	_, err := r.db.ExecContext(ctx, `delete from sync_metadata where owner_id=?`, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete sync metadata[%s]: %w", ownerID, err)
	}
	return nil
}

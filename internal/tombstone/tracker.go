// Package tombstone records and queries deletion markers so local deletes
// survive merges against stale remote snapshots.
package tombstone

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quillnotes/notesync/internal/dbx"
	"github.com/quillnotes/notesync/internal/logging"
	"github.com/quillnotes/notesync/internal/models"
	"github.com/quillnotes/notesync/internal/repositories/attachments"
	"github.com/quillnotes/notesync/internal/repositories/categories"
	"github.com/quillnotes/notesync/internal/repositories/links"
	"github.com/quillnotes/notesync/internal/repositories/notes"
	"github.com/quillnotes/notesync/internal/repositories/tombstones"
)

// Tracker owns the tombstone table. Every local delete of a live record goes
// through DeleteWithTombstone so the marker and the row removal commit
// together.
type Tracker struct {
	db   *sql.DB
	repo tombstones.Repository
	log  logging.Logger
}

func NewTracker(db *sql.DB, repo tombstones.Repository, log logging.Logger) *Tracker {
	return &Tracker{db: db, repo: repo, log: log}
}

// newTombstoneID derives a stable id from the deletion timestamp and record id.
func newTombstoneID(deletedAt int64, recordID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "%d:%s", deletedAt, recordID)).String()
}

// RecordDeletion writes a pending tombstone for (table, recordID, owner).
// Safe to call twice; the first marker wins.
func (t *Tracker) RecordDeletion(ctx context.Context, tableName, recordID, ownerID string) (*models.Tombstone, error) {
	now := time.Now().UnixMilli()
	ts := &models.Tombstone{
		ID:         newTombstoneID(now, recordID),
		TableName:  tableName,
		RecordID:   recordID,
		OwnerID:    ownerID,
		DeletedAt:  now,
		SyncStatus: models.TombstonePending,
	}
	if err := t.repo.Insert(ctx, ts); err != nil {
		return nil, err
	}
	t.log.Debug(ctx, "tombstone recorded", "table", tableName, "record_id", recordID)
	return ts, nil
}

// IsDeleted reports whether (table, recordID, owner) is covered by a tombstone.
func (t *Tracker) IsDeleted(ctx context.Context, tableName, recordID, ownerID string) (bool, error) {
	return t.repo.Exists(ctx, tableName, recordID, ownerID)
}

// Pending returns the owner's tombstones not yet included in an uploaded
// snapshot.
func (t *Tracker) Pending(ctx context.Context, ownerID string) ([]models.Tombstone, error) {
	return t.repo.ListPending(ctx, ownerID)
}

// MarkSynced transitions a tombstone to synced after its snapshot uploaded.
func (t *Tracker) MarkSynced(ctx context.Context, id string) error {
	return t.repo.MarkSynced(ctx, id)
}

// PurgeOlderThan garbage-collects synced tombstones deleted before cutoff.
func (t *Tracker) PurgeOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	purged, err := t.repo.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		t.log.Info(ctx, "purged synced tombstones", "count", purged, "cutoff", cutoff)
	}
	return purged, nil
}

// DeleteWithTombstone removes a live record and writes its tombstone in one
// transaction. A delete with no tombstone lets a stale remote snapshot
// resurrect the record.
func (t *Tracker) DeleteWithTombstone(ctx context.Context, tableName, recordID, ownerID string) error {
	now := time.Now().UnixMilli()

	return dbx.WithTx(ctx, t.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		ts := &models.Tombstone{
			ID:         newTombstoneID(now, recordID),
			TableName:  tableName,
			RecordID:   recordID,
			OwnerID:    ownerID,
			DeletedAt:  now,
			SyncStatus: models.TombstonePending,
		}
		if err := tombstones.NewSQLiteRepository(tx).Insert(ctx, ts); err != nil {
			return err
		}

		switch tableName {
		case models.TableNotes:
			return notes.NewSQLiteRepository(tx).Delete(ctx, recordID)
		case models.TableCategories:
			return categories.NewSQLiteRepository(tx).Delete(ctx, recordID)
		case models.TableLinks:
			return links.NewSQLiteRepository(tx).Delete(ctx, recordID)
		case models.TableAttachments:
			return attachments.NewSQLiteRepository(tx).Delete(ctx, recordID)
		default:
			return fmt.Errorf("unknown table %q", tableName)
		}
	})
}

// Package tombstones persists deletion markers independently of the live
// tables they refer to.
package tombstones

import (
	"context"

	"github.com/quillnotes/notesync/internal/models"
)

type Repository interface {
	Insert(ctx context.Context, t *models.Tombstone) error

	// Exists reports whether a tombstone covers (table, recordID, owner).
	Exists(ctx context.Context, tableName, recordID, ownerID string) (bool, error)

	ListByOwner(ctx context.Context, ownerID string) ([]models.Tombstone, error)
	ListPending(ctx context.Context, ownerID string) ([]models.Tombstone, error)
	MarkSynced(ctx context.Context, id string) error

	// PurgeOlderThan removes synced tombstones deleted before cutoff
	// (epoch millis). Pending tombstones are never purged.
	PurgeOlderThan(ctx context.Context, cutoff int64) (int64, error)
}

// Package syncmeta persists the one-row-per-owner sync bookkeeping.
package syncmeta

import (
	"context"

	"github.com/quillnotes/notesync/internal/models"
)

type Repository interface {
	// Get returns the metadata row for the owner, or nil when the owner has
	// never completed a sync.
	Get(ctx context.Context, ownerID string) (*models.SyncMetadata, error)

	Upsert(ctx context.Context, m *models.SyncMetadata) error

	// Delete removes the row; used only on account/data reset.
	Delete(ctx context.Context, ownerID string) error
}

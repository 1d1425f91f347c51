// Package attachments persists attachment records in the local store.
package attachments

import (
	"context"

	"github.com/quillnotes/notesync/internal/models"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*models.Attachment, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Attachment, error)

	// ListPendingUpload returns attachments flagged needs_upload, excluding
	// locally deleted ones.
	ListPendingUpload(ctx context.Context, ownerID string) ([]models.Attachment, error)

	// ListByStatus returns attachments in the given sync status.
	ListByStatus(ctx context.Context, ownerID string, status models.AttachmentStatus) ([]models.Attachment, error)

	CountByOwner(ctx context.Context, ownerID string) (int, error)
	Upsert(ctx context.Context, a *models.Attachment) error
	Delete(ctx context.Context, id string) error

	// MarkSynced records a successful upload or download.
	MarkSynced(ctx context.Context, id, remoteID, contentHash string) error

	// MarkLocallyDeleted flags an attachment whose cached file disappeared.
	MarkLocallyDeleted(ctx context.Context, id string) error

	// IncrementRetry bumps the retry counter after a failed transfer.
	IncrementRetry(ctx context.Context, id string) error

	// UpdateContentHash replaces the stored hash after reconciliation.
	UpdateContentHash(ctx context.Context, id, contentHash string) error
}

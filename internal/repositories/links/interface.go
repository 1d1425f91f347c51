// Package links persists note-to-category link records in the local store.
package links

import (
	"context"

	"github.com/quillnotes/notesync/internal/models"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*models.NoteCategoryLink, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.NoteCategoryLink, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
	Upsert(ctx context.Context, l *models.NoteCategoryLink) error
	Delete(ctx context.Context, id string) error
}

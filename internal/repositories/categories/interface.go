// Package categories persists category records in the local store.
package categories

import (
	"context"

	"github.com/quillnotes/notesync/internal/models"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*models.Category, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Category, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
	Upsert(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id string) error
}

// Package notes persists note records in the local store.
package notes

import (
	"context"

	"github.com/quillnotes/notesync/internal/models"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*models.Note, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Note, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
	Insert(ctx context.Context, n *models.Note) error
	Update(ctx context.Context, n *models.Note) error
	Upsert(ctx context.Context, n *models.Note) error
	Delete(ctx context.Context, id string) error
}

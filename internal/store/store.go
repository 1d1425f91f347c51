// Package store opens the local sqlite database, applies migrations and
// bundles the per-table repositories.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/quillnotes/notesync/internal/repositories/attachments"
	"github.com/quillnotes/notesync/internal/repositories/categories"
	"github.com/quillnotes/notesync/internal/repositories/links"
	"github.com/quillnotes/notesync/internal/repositories/notes"
	"github.com/quillnotes/notesync/internal/repositories/syncmeta"
	"github.com/quillnotes/notesync/internal/repositories/tombstones"
	"github.com/quillnotes/notesync/internal/store/migrations"
)

// Repositories bundles the repositories bound to one database handle.
type Repositories struct {
	Notes       notes.Repository
	Categories  categories.Repository
	Links       links.Repository
	Attachments attachments.Repository
	Tombstones  tombstones.Repository
	SyncMeta    syncmeta.Repository
	DB          *sql.DB
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the sqlite database at dsn, migrates it and returns the
// repository bundle. The caller owns closing Repositories.DB.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repositories{
		Notes:       notes.NewSQLiteRepository(db),
		Categories:  categories.NewSQLiteRepository(db),
		Links:       links.NewSQLiteRepository(db),
		Attachments: attachments.NewSQLiteRepository(db),
		Tombstones:  tombstones.NewSQLiteRepository(db),
		SyncMeta:    syncmeta.NewSQLiteRepository(db),
		DB:          db,
	}, nil
}

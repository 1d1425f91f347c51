// Package app wires the sync components together for the CLI.
package app

import (
	"context"
	"log/slog"
	"os"

	"github.com/quillnotes/notesync/internal/blobstore"
	"github.com/quillnotes/notesync/internal/config"
	"github.com/quillnotes/notesync/internal/contentstore"
	"github.com/quillnotes/notesync/internal/fingerprint"
	"github.com/quillnotes/notesync/internal/hashx"
	"github.com/quillnotes/notesync/internal/logging"
	"github.com/quillnotes/notesync/internal/merge"
	"github.com/quillnotes/notesync/internal/services"
	"github.com/quillnotes/notesync/internal/store"
	"github.com/quillnotes/notesync/internal/tombstone"

	_ "modernc.org/sqlite"
)

// App owns the wired sync pipeline and the database handle behind it.
type App struct {
	config      *config.Config
	log         logging.Logger
	repos       *store.Repositories
	incremental *services.IncrementalSync
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logging.NewTextLogger(os.Stderr, slog.LevelInfo)

	repos, err := store.InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	remote, err := blobstore.NewS3Store(ctx, blobstore.S3Config{
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		Endpoint:     cfg.S3Endpoint,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		UsePathStyle: cfg.S3UsePathStyle,
	})
	if err != nil {
		_ = repos.DB.Close()
		return nil, err
	}

	strategy, err := merge.ParseStrategy(cfg.MergeStrategy)
	if err != nil {
		log.Warn(ctx, "unknown merge strategy, using keep_newer", "strategy", cfg.MergeStrategy)
	}

	tracker := tombstone.NewTracker(repos.DB, repos.Tombstones, log)
	resolver := merge.NewResolver(strategy, log)
	fp := fingerprint.NewService(repos.Notes, repos.Categories, repos.Links, log)
	content := contentstore.NewFSStore(cfg.AttachmentDir)
	attachSync := services.NewAttachmentSyncCoordinator(
		repos.Attachments, remote, content, tracker, hashx.SHA256Hasher{}, log, cfg.TransferConcurrency)
	orchestrator := services.NewOrchestrator(
		repos.Notes, repos.Categories, repos.Links, repos.Tombstones, repos.SyncMeta,
		tracker, resolver, remote, attachSync, fp, log)
	incremental := services.NewIncrementalSync(orchestrator, fp, repos.SyncMeta, log)

	return &App{config: cfg, log: log, repos: repos, incremental: incremental}, nil
}

// Run performs one sync pass (skipped when fingerprints prove nothing
// changed) and prints the outcome.
func (a *App) Run(ctx context.Context) error {
	defer func() { _ = a.repos.DB.Close() }()

	decision, outcome, err := a.incremental.RunIfNeeded(ctx, a.config.OwnerID)
	if err != nil {
		return err
	}

	if decision == services.AlreadyInSync {
		os.Stdout.WriteString("already in sync\n")
		return nil
	}
	if outcome.Err != nil {
		return outcome.Err
	}
	os.Stdout.WriteString(outcome.Summary + "\n")
	return nil
}

// Package services wires the sync pipeline: the orchestrator state machine,
// the attachment transfer coordinator and the incremental-sync policy.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quillnotes/notesync/internal/blobstore"
	"github.com/quillnotes/notesync/internal/common"
	"github.com/quillnotes/notesync/internal/contentstore"
	"github.com/quillnotes/notesync/internal/hashx"
	"github.com/quillnotes/notesync/internal/logging"
	"github.com/quillnotes/notesync/internal/models"
	"github.com/quillnotes/notesync/internal/repositories/attachments"
	"github.com/quillnotes/notesync/internal/tombstone"
)

// PhaseResult is the outcome of one attachment phase. Items fail
// individually; one bad file never aborts the batch.
type PhaseResult struct {
	Succeeded int
	Errors    []string
}

func (p *PhaseResult) addError(mu *sync.Mutex, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	p.Errors = append(p.Errors, fmt.Sprintf(format, args...))
}

func (p *PhaseResult) addSuccess(mu *sync.Mutex) {
	mu.Lock()
	defer mu.Unlock()
	p.Succeeded++
}

// AttachmentSyncCoordinator moves binary payloads between the local content
// cache and the remote attachment store.
type AttachmentSyncCoordinator struct {
	repo        attachments.Repository
	remote      blobstore.RemoteAttachmentStore
	content     contentstore.ContentStore
	tracker     *tombstone.Tracker
	hasher      hashx.Hasher
	log         logging.Logger
	concurrency int
}

func NewAttachmentSyncCoordinator(
	repo attachments.Repository,
	remote blobstore.RemoteAttachmentStore,
	content contentstore.ContentStore,
	tracker *tombstone.Tracker,
	hasher hashx.Hasher,
	log logging.Logger,
	concurrency int,
) *AttachmentSyncCoordinator {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &AttachmentSyncCoordinator{
		repo:        repo,
		remote:      remote,
		content:     content,
		tracker:     tracker,
		hasher:      hasher,
		log:         log,
		concurrency: concurrency,
	}
}

// UploadPhase pushes every attachment flagged needs_upload. Failed items
// keep their flag so a later pass retries them; the retry counter increments
// per attempt and capping retries is the caller's policy.
func (c *AttachmentSyncCoordinator) UploadPhase(ctx context.Context, ownerID string) PhaseResult {
	var result PhaseResult
	var mu sync.Mutex

	pending, err := c.repo.ListPendingUpload(ctx, ownerID)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("list pending uploads: %v", err))
		return result
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, att := range pending {
		att := att
		g.Go(func() error {
			c.uploadOne(gctx, att, &result, &mu)
			return nil
		})
	}
	_ = g.Wait()

	return result
}

func (c *AttachmentSyncCoordinator) uploadOne(ctx context.Context, att models.Attachment, result *PhaseResult, mu *sync.Mutex) {
	if att.LocalPath == "" || !c.content.Exists(att.LocalPath) {
		// The cached file is gone: tombstone it so the remote copy is not
		// pulled back down, and never upload it again.
		if _, err := c.tracker.RecordDeletion(ctx, models.TableAttachments, att.ID, att.OwnerID); err != nil {
			result.addError(mu, "attachment %s: record deletion: %v", att.ID, err)
			return
		}
		if err := c.repo.MarkLocallyDeleted(ctx, att.ID); err != nil {
			result.addError(mu, "attachment %s: mark locally deleted: %v", att.ID, err)
			return
		}
		c.log.Warn(ctx, "attachment file missing, marked locally deleted",
			"attachment_id", att.ID, "path", att.LocalPath)
		return
	}

	data, err := c.content.Read(att.LocalPath)
	if err != nil {
		_ = c.repo.IncrementRetry(ctx, att.ID)
		result.addError(mu, "attachment %s: read: %v", att.ID, err)
		return
	}

	hash := c.hasher.Sum(data)
	if att.ContentHash != "" && att.ContentHash != hash {
		// Stored hash drifted from the bytes on disk. Reconcile and carry
		// on; a stale hash must never block the upload.
		c.log.Warn(ctx, "attachment hash drift, updating stored hash",
			"attachment_id", att.ID, "stored", att.ContentHash, "actual", hash)
		if err := c.repo.UpdateContentHash(ctx, att.ID, hash); err != nil {
			c.log.Error(ctx, "failed to update attachment hash", "attachment_id", att.ID, "error", err)
		}
	}

	remoteID, err := c.remote.UploadAttachment(ctx, att.OwnerID, data, blobstore.AttachmentInfo{
		ID:          att.ID,
		NoteID:      att.NoteID,
		FileName:    att.FileName,
		MimeType:    att.MimeType,
		Size:        int64(len(data)),
		ContentHash: hash,
	})
	if err != nil {
		_ = c.repo.IncrementRetry(ctx, att.ID)
		result.addError(mu, "attachment %s: upload: %v", att.ID, err)
		return
	}

	if err := c.repo.MarkSynced(ctx, att.ID, remoteID, hash); err != nil {
		result.addError(mu, "attachment %s: mark synced: %v", att.ID, err)
		return
	}
	result.addSuccess(mu)
}

// DownloadPhase pulls remote attachments this device has never seen, skipping
// anything covered by a tombstone. Records are upserted so the same remote id
// arriving on two passes is a harmless no-op update.
func (c *AttachmentSyncCoordinator) DownloadPhase(ctx context.Context, ownerID string) PhaseResult {
	var result PhaseResult
	var mu sync.Mutex

	infos, err := c.remote.ListAttachments(ctx, ownerID)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("list remote attachments: %v", err))
		return result
	}

	existing, err := c.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("list local attachments: %v", err))
		return result
	}
	haveLocally := make(map[string]struct{}, len(existing))
	for _, att := range existing {
		haveLocally[att.ID] = struct{}{}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, info := range infos {
		info := info
		if info.ID == "" {
			c.log.Warn(ctx, "remote attachment missing id metadata, skipping", "remote_id", info.RemoteID)
			continue
		}
		if _, ok := haveLocally[info.ID]; ok {
			continue
		}

		deleted, err := c.tracker.IsDeleted(ctx, models.TableAttachments, info.ID, ownerID)
		if err != nil {
			result.addError(&mu, "attachment %s: tombstone check: %v", info.ID, err)
			continue
		}
		if deleted {
			// Propagate the local deletion: remove the remote copy so no
			// device downloads it again. Best effort; a failed delete is
			// retried the next time the listing still contains the id.
			if err := c.remote.DeleteAttachment(ctx, info.RemoteID); err != nil {
				c.log.Warn(ctx, "failed to delete tombstoned remote attachment",
					"attachment_id", info.ID, "remote_id", info.RemoteID, "error", err)
			}
			continue
		}

		g.Go(func() error {
			c.downloadOne(gctx, ownerID, info, &result, &mu)
			return nil
		})
	}
	_ = g.Wait()

	return result
}

func (c *AttachmentSyncCoordinator) downloadOne(ctx context.Context, ownerID string, info blobstore.AttachmentInfo, result *PhaseResult, mu *sync.Mutex) {
	data, err := c.remote.DownloadAttachment(ctx, info.RemoteID)
	if err != nil {
		result.addError(mu, "attachment %s: download: %v", info.ID, err)
		return
	}

	hash := c.hasher.Sum(data)
	if info.ContentHash != "" && info.ContentHash != hash {
		result.addError(mu, "attachment %s: %s: declared %s, got %s",
			info.ID, common.ErrorHashMismatch, info.ContentHash, hash)
		return
	}

	path, err := c.content.Write(data)
	if err != nil {
		result.addError(mu, "attachment %s: store: %v", info.ID, err)
		return
	}

	now := time.Now().UnixMilli()
	err = c.repo.Upsert(ctx, &models.Attachment{
		ID:          info.ID,
		NoteID:      info.NoteID,
		OwnerID:     ownerID,
		FileName:    info.FileName,
		MimeType:    info.MimeType,
		Size:        int64(len(data)),
		LocalPath:   path,
		RemoteID:    info.RemoteID,
		ContentHash: hash,
		SyncStatus:  models.AttachmentSynced,
		NeedsUpload: false,
		CreatedAt:   now,
		ModifiedAt:  now,
	})
	if err != nil {
		result.addError(mu, "attachment %s: upsert: %v", info.ID, err)
		return
	}
	result.addSuccess(mu)
}

// RemoveLocal deletes an attachment record together with its cached payload.
// Deleting an unknown id is a no-op; a failed payload delete only leaves an
// orphaned cache file behind, so it never fails the removal.
func (c *AttachmentSyncCoordinator) RemoveLocal(ctx context.Context, id string) error {
	att, err := c.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return err
	}

	if att.LocalPath != "" {
		if err := c.content.Delete(att.LocalPath); err != nil {
			c.log.Warn(ctx, "failed to delete cached attachment payload",
				"attachment_id", id, "path", att.LocalPath, "error", err)
		}
	}
	return c.repo.Delete(ctx, id)
}

// ConflictPhase surfaces attachments stuck in conflict status for a
// higher-level resolution strategy. Best effort; it never fails and never
// blocks the transfer phases.
func (c *AttachmentSyncCoordinator) ConflictPhase(ctx context.Context, ownerID string) PhaseResult {
	var result PhaseResult

	conflicted, err := c.repo.ListByStatus(ctx, ownerID, models.AttachmentConflict)
	if err != nil {
		c.log.Warn(ctx, "conflict scan failed", "owner_id", ownerID, "error", err)
		return result
	}

	for _, att := range conflicted {
		c.log.Warn(ctx, "attachment in conflict state",
			"attachment_id", att.ID, "note_id", att.NoteID, "file_name", att.FileName)
		result.Succeeded++
	}
	return result
}

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/quillnotes/notesync/internal/blobstore"
	"github.com/quillnotes/notesync/internal/common"
	"github.com/quillnotes/notesync/internal/fingerprint"
	"github.com/quillnotes/notesync/internal/logging"
	"github.com/quillnotes/notesync/internal/merge"
	"github.com/quillnotes/notesync/internal/models"
	"github.com/quillnotes/notesync/internal/repositories/categories"
	"github.com/quillnotes/notesync/internal/repositories/links"
	"github.com/quillnotes/notesync/internal/repositories/notes"
	"github.com/quillnotes/notesync/internal/repositories/syncmeta"
	"github.com/quillnotes/notesync/internal/repositories/tombstones"
	"github.com/quillnotes/notesync/internal/tombstone"
)

// SyncState is the orchestrator's per-owner state machine position.
type SyncState string

const (
	StateIdle    SyncState = "idle"
	StateSyncing SyncState = "syncing"
	StateSuccess SyncState = "success"
	StateError   SyncState = "error"
)

// tombstoneRetention is how long synced tombstones are kept before GC.
// Pending ones are never purged regardless of age.
const tombstoneRetention = 30 * 24 * time.Hour

// SyncOutcome is the terminal result of one sync pass.
type SyncOutcome struct {
	State   SyncState
	Summary string
	Err     error
	Merge   *merge.Result
}

// Orchestrator runs the full sync pipeline for one owner at a time
// (single-flight per owner; a trigger while a pass is running is rejected).
type Orchestrator struct {
	notes      notes.Repository
	categories categories.Repository
	links      links.Repository
	tombstones tombstones.Repository
	syncMeta   syncmeta.Repository
	tracker    *tombstone.Tracker
	resolver   *merge.Resolver
	remote     blobstore.RemoteBlobStore
	attachSync *AttachmentSyncCoordinator
	fp         *fingerprint.Service
	log        logging.Logger

	mu       sync.Mutex
	inFlight map[string]bool
	states   map[string]SyncState
}

func NewOrchestrator(
	n notes.Repository,
	c categories.Repository,
	l links.Repository,
	t tombstones.Repository,
	m syncmeta.Repository,
	tracker *tombstone.Tracker,
	resolver *merge.Resolver,
	remote blobstore.RemoteBlobStore,
	attachSync *AttachmentSyncCoordinator,
	fp *fingerprint.Service,
	log logging.Logger,
) *Orchestrator {
	return &Orchestrator{
		notes:      n,
		categories: c,
		links:      l,
		tombstones: t,
		syncMeta:   m,
		tracker:    tracker,
		resolver:   resolver,
		remote:     remote,
		attachSync: attachSync,
		fp:         fp,
		log:        log,
		inFlight:   make(map[string]bool),
		states:     make(map[string]SyncState),
	}
}

// State returns the owner's current state machine position.
func (o *Orchestrator) State(ownerID string) SyncState {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.states[ownerID]; ok {
		return s
	}
	return StateIdle
}

func (o *Orchestrator) setState(ownerID string, s SyncState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states[ownerID] = s
}

// Sync runs one full pass. A second trigger while a pass is in flight for
// the same owner returns ErrorSyncInProgress without doing any work.
func (o *Orchestrator) Sync(ctx context.Context, ownerID string) (*SyncOutcome, error) {
	if ownerID == "" {
		return nil, common.ErrorNoOwner
	}

	o.mu.Lock()
	if o.inFlight[ownerID] {
		o.mu.Unlock()
		return nil, common.ErrorSyncInProgress
	}
	o.inFlight[ownerID] = true
	o.states[ownerID] = StateSyncing
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		delete(o.inFlight, ownerID)
		o.mu.Unlock()
	}()

	outcome := o.runPipeline(ctx, ownerID)
	o.setState(ownerID, outcome.State)
	if outcome.Err != nil {
		o.log.Error(ctx, "sync pass failed", "owner_id", ownerID, "error", outcome.Err)
	} else {
		o.log.Info(ctx, "sync pass finished", "owner_id", ownerID, "summary", outcome.Summary)
	}
	return outcome, nil
}

func (o *Orchestrator) fail(stage string, err error) *SyncOutcome {
	return &SyncOutcome{
		State:   StateError,
		Summary: fmt.Sprintf("sync failed: %s", stage),
		Err:     fmt.Errorf("%s: %w", stage, err),
	}
}

func (o *Orchestrator) runPipeline(ctx context.Context, ownerID string) *SyncOutcome {
	// Steps 1-2 mutate nothing; any failure aborts the whole pass.
	if err := o.remote.Authenticate(ctx); err != nil {
		return o.fail("authenticate", err)
	}

	remoteMeta, err := o.remote.Metadata(ctx, ownerID)
	if err != nil {
		return o.fail("fetch remote metadata", err)
	}
	firstSync := remoteMeta == nil

	// Step 3: a corrupt snapshot must not block sync forever, so decode
	// failures degrade to "empty remote".
	var snap *models.Snapshot
	if !firstSync {
		data, err := o.remote.DownloadSnapshot(ctx, ownerID)
		if err != nil {
			return o.fail("download snapshot", err)
		}
		if data != nil {
			snap, err = models.DecodeSnapshot(data)
			if err != nil {
				o.log.Warn(ctx, "remote snapshot unreadable, treating as empty",
					"owner_id", ownerID, "error", err)
				snap = nil
			}
		}
	}

	var mergeResult *merge.Result
	if snap != nil {
		mergeResult, err = o.applyRemote(ctx, ownerID, snap)
		if err != nil {
			return o.fail("merge remote snapshot", err)
		}
	}

	// Step 5: upload the converged dataset, pending tombstones included.
	pending, err := o.tracker.Pending(ctx, ownerID)
	if err != nil {
		return o.fail("list pending tombstones", err)
	}
	localFp, err := o.uploadSnapshot(ctx, ownerID, pending)
	if err != nil {
		return o.fail("upload snapshot", err)
	}

	// Step 6: the uploaded tombstones are now visible to every device.
	for _, ts := range pending {
		if err := o.tracker.MarkSynced(ctx, ts.ID); err != nil {
			return o.fail("mark tombstones synced", err)
		}
	}

	// Synced tombstones older than the retention window are garbage. A
	// failed purge only delays GC, it never fails the pass.
	cutoff := time.Now().Add(-tombstoneRetention).UnixMilli()
	if _, err := o.tracker.PurgeOlderThan(ctx, cutoff); err != nil {
		o.log.Warn(ctx, "tombstone purge failed", "owner_id", ownerID, "error", err)
	}

	// Step 7: binary payloads.
	upload := o.attachSync.UploadPhase(ctx, ownerID)
	download := o.attachSync.DownloadPhase(ctx, ownerID)
	conflicts := o.attachSync.ConflictPhase(ctx, ownerID)
	for _, msg := range upload.Errors {
		o.log.Warn(ctx, "attachment upload item failed", "owner_id", ownerID, "detail", msg)
	}
	for _, msg := range download.Errors {
		o.log.Warn(ctx, "attachment download item failed", "owner_id", ownerID, "detail", msg)
	}

	if err := o.refreshMetadata(ctx, ownerID, localFp); err != nil {
		return o.fail("refresh sync metadata", err)
	}

	summary := buildSummary(firstSync, mergeResult, upload, download, conflicts)
	return &SyncOutcome{State: StateSuccess, Summary: summary, Merge: mergeResult}
}

// applyRemote merges the remote snapshot into the local store: notes through
// the conflict resolver, categories and links by last write wins, and remote
// tombstones by deleting whatever they name.
func (o *Orchestrator) applyRemote(ctx context.Context, ownerID string, snap *models.Snapshot) (*merge.Result, error) {
	localNotes, err := o.notes.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	// Local tombstones win over any remote copy, however new. Filter the
	// suppressed ids out before the resolver ever sees them.
	remoteNotes := make([]models.Note, 0, len(snap.Notes))
	for _, n := range snap.Notes {
		if n.OwnerID != ownerID {
			continue
		}
		deleted, err := o.tracker.IsDeleted(ctx, models.TableNotes, n.ID, ownerID)
		if err != nil {
			return nil, err
		}
		if deleted {
			o.log.Debug(ctx, "remote note suppressed by local tombstone", "note_id", n.ID)
			continue
		}
		remoteNotes = append(remoteNotes, n)
	}

	result := o.resolver.Merge(ctx, localNotes, remoteNotes, ownerID)

	for _, n := range result.Converged {
		if err := o.notes.Upsert(ctx, &n); err != nil {
			return nil, err
		}
	}

	if err := o.applyCategoriesAndLinks(ctx, ownerID, snap); err != nil {
		return nil, err
	}

	if err := o.applyRemoteTombstones(ctx, ownerID, snap.Deletions); err != nil {
		return nil, err
	}

	return result, nil
}

func (o *Orchestrator) applyCategoriesAndLinks(ctx context.Context, ownerID string, snap *models.Snapshot) error {
	for _, c := range snap.Categories {
		if c.OwnerID != ownerID {
			continue
		}
		deleted, err := o.tracker.IsDeleted(ctx, models.TableCategories, c.ID, ownerID)
		if err != nil {
			return err
		}
		if deleted {
			continue
		}
		local, err := o.categories.GetByID(ctx, c.ID)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		if local == nil || local.ModifiedAt < c.ModifiedAt {
			if err := o.categories.Upsert(ctx, &c); err != nil {
				return err
			}
		}
	}

	for _, l := range snap.Links {
		if l.OwnerID != ownerID {
			continue
		}
		deleted, err := o.tracker.IsDeleted(ctx, models.TableLinks, l.ID, ownerID)
		if err != nil {
			return err
		}
		if deleted {
			continue
		}
		local, err := o.links.GetByID(ctx, l.ID)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		if local == nil || local.ModifiedAt < l.ModifiedAt {
			if err := o.links.Upsert(ctx, &l); err != nil {
				return err
			}
		}
	}

	return nil
}

// applyRemoteTombstones deletes local records named by remote deletions and
// stores each marker locally (already synced: it came from the remote) so the
// record cannot come back on a later pass.
func (o *Orchestrator) applyRemoteTombstones(ctx context.Context, ownerID string, deletions []models.Tombstone) error {
	for _, ts := range deletions {
		if ts.OwnerID != ownerID {
			continue
		}

		stored := ts
		stored.SyncStatus = models.TombstoneSynced
		if err := o.tombstones.Insert(ctx, &stored); err != nil {
			return err
		}

		var err error
		switch ts.TableName {
		case models.TableNotes:
			err = o.notes.Delete(ctx, ts.RecordID)
		case models.TableCategories:
			err = o.categories.Delete(ctx, ts.RecordID)
		case models.TableLinks:
			err = o.links.Delete(ctx, ts.RecordID)
		case models.TableAttachments:
			err = o.attachSync.RemoveLocal(ctx, ts.RecordID)
		default:
			o.log.Warn(ctx, "remote tombstone for unknown table",
				"table", ts.TableName, "record_id", ts.RecordID)
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// uploadSnapshot serializes the owner's full dataset and overwrites the
// remote blob plus its sidecar. Returns the fingerprint of what was uploaded.
func (o *Orchestrator) uploadSnapshot(ctx context.Context, ownerID string, pending []models.Tombstone) (string, error) {
	ns, err := o.notes.ListByOwner(ctx, ownerID)
	if err != nil {
		return "", err
	}
	cs, err := o.categories.ListByOwner(ctx, ownerID)
	if err != nil {
		return "", err
	}
	ls, err := o.links.ListByOwner(ctx, ownerID)
	if err != nil {
		return "", err
	}

	snap := &models.Snapshot{
		Version:    models.SnapshotVersion,
		Timestamp:  time.Now().UnixMilli(),
		Notes:      ns,
		Categories: cs,
		Links:      ls,
		Deletions:  pending,
	}
	data, err := models.EncodeSnapshot(snap)
	if err != nil {
		return "", err
	}

	localFp := o.fp.Compute(ctx, ownerID)
	meta := blobstore.RemoteMetadata{Timestamp: snap.Timestamp, Fingerprint: localFp}
	if err := o.remote.UploadSnapshot(ctx, ownerID, data, meta); err != nil {
		return "", err
	}
	return localFp, nil
}

// refreshMetadata upserts the owner's bookkeeping row after a successful
// pass. Local and remote fingerprints are equal at this point: the remote
// snapshot was just overwritten with the local dataset.
func (o *Orchestrator) refreshMetadata(ctx context.Context, ownerID, localFp string) error {
	noteCount, err := o.notes.CountByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	categoryCount, err := o.categories.CountByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	linkCount, err := o.links.CountByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	attachmentCount, err := o.attachSync.repo.CountByOwner(ctx, ownerID)
	if err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	return o.syncMeta.Upsert(ctx, &models.SyncMetadata{
		OwnerID:           ownerID,
		LastSyncAt:        now,
		NoteCount:         noteCount,
		AttachmentCount:   attachmentCount,
		CategoryCount:     categoryCount,
		LinkCount:         linkCount,
		LocalFingerprint:  localFp,
		RemoteFingerprint: localFp,
		SchemaVersion:     models.SyncSchemaVersion,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
}

func buildSummary(firstSync bool, mergeResult *merge.Result, upload, download, conflicts PhaseResult) string {
	prefix := "sync complete"
	if firstSync {
		prefix = "first sync complete"
	}

	merged := "no remote snapshot merged"
	if mergeResult != nil {
		merged = fmt.Sprintf("%d inserted, %d updated, %d deleted, %d conflicts resolved",
			mergeResult.Inserted, mergeResult.Updated, mergeResult.Deleted, mergeResult.ConflictsResolved)
	}

	return fmt.Sprintf("%s: %s; attachments: %d uploaded, %d downloaded, %d in conflict (%d item errors)",
		prefix, merged, upload.Succeeded, download.Succeeded, conflicts.Succeeded,
		len(upload.Errors)+len(download.Errors))
}

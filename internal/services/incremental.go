package services

import (
	"context"

	"github.com/quillnotes/notesync/internal/fingerprint"
	"github.com/quillnotes/notesync/internal/logging"
	"github.com/quillnotes/notesync/internal/models"
	"github.com/quillnotes/notesync/internal/repositories/syncmeta"
)

// SyncDecision is the incremental policy's verdict for one trigger.
type SyncDecision string

const (
	// AlreadyInSync: nothing changed since the last pass; no work was done.
	AlreadyInSync SyncDecision = "already_in_sync"
	// SyncPerformed: a full pipeline pass ran.
	SyncPerformed SyncDecision = "sync_performed"
)

// IncrementalSync skips full passes when fingerprints prove nothing changed.
//
// The skip check is local-only: the current dataset fingerprint is compared
// against the stored one, and the stored remote fingerprint against the
// stored local one (after a successful pass the two are equal, since the
// pass overwrites the remote snapshot with the local dataset). A change made
// by another device is picked up the next time anything differs locally or
// by an explicit forced pass; the check itself performs zero network calls.
type IncrementalSync struct {
	orchestrator *Orchestrator
	fp           *fingerprint.Service
	syncMeta     syncmeta.Repository
	log          logging.Logger
}

func NewIncrementalSync(o *Orchestrator, fp *fingerprint.Service, m syncmeta.Repository, log logging.Logger) *IncrementalSync {
	return &IncrementalSync{orchestrator: o, fp: fp, syncMeta: m, log: log}
}

// RunIfNeeded compares fingerprints and either skips or runs the full
// pipeline.
func (s *IncrementalSync) RunIfNeeded(ctx context.Context, ownerID string) (SyncDecision, *SyncOutcome, error) {
	stored, err := s.syncMeta.Get(ctx, ownerID)
	if err != nil {
		return "", nil, err
	}

	if stored != nil && stored.SchemaVersion == models.SyncSchemaVersion {
		localFp := s.fp.Compute(ctx, ownerID)
		if localFp == stored.LocalFingerprint &&
			stored.RemoteFingerprint != "" &&
			stored.RemoteFingerprint == stored.LocalFingerprint {
			s.log.Info(ctx, "datasets in sync, skipping pass", "owner_id", ownerID)
			return AlreadyInSync, nil, nil
		}
	} else if stored != nil {
		s.log.Info(ctx, "sync schema version changed, forcing full pass",
			"owner_id", ownerID, "stored", stored.SchemaVersion, "current", models.SyncSchemaVersion)
	}

	outcome, err := s.orchestrator.Sync(ctx, ownerID)
	if err != nil {
		return "", nil, err
	}
	return SyncPerformed, outcome, nil
}

package merge

import (
	"context"
	"sort"

	"github.com/quillnotes/notesync/internal/logging"
	"github.com/quillnotes/notesync/internal/models"
)

// Resolver merges a local and a remote snapshot of note records under a
// configured strategy.
type Resolver struct {
	strategy Strategy
	log      logging.Logger
}

func NewResolver(strategy Strategy, log logging.Logger) *Resolver {
	return &Resolver{strategy: strategy, log: log}
}

// oneHourMillis is the MergeSmart window: within it a live edit beats a
// soft-delete regardless of which side is newer.
const oneHourMillis = int64(60 * 60 * 1000)

// Merge reconciles local and remote into one converged set. Ids are visited
// in sorted order so identical inputs always produce an identical Result.
func (r *Resolver) Merge(ctx context.Context, local, remote []models.Note, ownerID string) *Result {
	localByID := indexByID(local)
	remoteByID := indexByID(remote)

	ids := make([]string, 0, len(localByID)+len(remoteByID))
	for id := range localByID {
		ids = append(ids, id)
	}
	for id := range remoteByID {
		if _, ok := localByID[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	result := &Result{}

	for _, id := range ids {
		l, haveLocal := localByID[id]
		m, haveRemote := remoteByID[id]

		switch {
		case haveLocal && !haveRemote:
			result.Converged = append(result.Converged, l)
			r.countPassthrough(result, l)

		case haveRemote && !haveLocal:
			result.Converged = append(result.Converged, m)
			r.countPassthrough(result, m)

		default:
			r.mergePair(ctx, result, l, m)
		}
	}

	return result
}

func indexByID(records []models.Note) map[string]models.Note {
	byID := make(map[string]models.Note, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}
	return byID
}

func (r *Resolver) countPassthrough(result *Result, n models.Note) {
	if n.Deleted {
		result.Deleted++
	} else {
		result.Inserted++
	}
}

// mergePair handles an id present on both sides.
func (r *Resolver) mergePair(ctx context.Context, result *Result, local, remote models.Note) {
	conflictType, ok := classify(local, remote)
	if !ok {
		// Identical state, keep either.
		result.Converged = append(result.Converged, local)
		return
	}

	winner := r.resolve(conflictType, local, remote)

	chosen := local
	if winner == SideRemote {
		chosen = remote
	}

	r.log.Debug(ctx, "conflict resolved",
		"record_id", local.ID,
		"type", string(conflictType),
		"winner", string(winner),
		"local_modified", local.ModifiedAt,
		"remote_modified", remote.ModifiedAt)

	result.Converged = append(result.Converged, chosen)
	result.Conflicts = append(result.Conflicts, Conflict{
		RecordID: local.ID,
		Type:     conflictType,
		Local:    local,
		Remote:   remote,
		Winner:   winner,
	})
	result.ConflictsResolved++
	if chosen.Deleted {
		result.Deleted++
	} else {
		result.Updated++
	}
}

// classify decides whether two copies of the same id conflict.
func classify(local, remote models.Note) (ConflictType, bool) {
	switch {
	case local.Deleted && remote.Deleted:
		return "", false
	case local.Deleted:
		return LocalDeleted, true
	case remote.Deleted:
		return RemoteDeleted, true
	case local.ModifiedAt != remote.ModifiedAt && !samePayload(local, remote):
		return BothModified, true
	default:
		return "", false
	}
}

// samePayload compares everything except the modification timestamp.
func samePayload(a, b models.Note) bool {
	return a.Title == b.Title && a.Content == b.Content && a.Deleted == b.Deleted
}

func (r *Resolver) resolve(conflictType ConflictType, local, remote models.Note) Side {
	switch r.strategy {
	case KeepLocal:
		return SideLocal
	case KeepRemote:
		return SideRemote
	case KeepNewer:
		return keepNewer(local, remote)
	case MergeSmart:
		return mergeSmart(conflictType, local, remote)
	default:
		return keepNewer(local, remote)
	}
}

func keepNewer(local, remote models.Note) Side {
	if remote.ModifiedAt > local.ModifiedAt {
		return SideRemote
	}
	// Ties favor local.
	return SideLocal
}

func mergeSmart(conflictType ConflictType, local, remote models.Note) Side {
	delta := local.ModifiedAt - remote.ModifiedAt
	if delta < 0 {
		delta = -delta
	}

	if delta < oneHourMillis {
		switch conflictType {
		case LocalDeleted:
			return SideRemote
		case RemoteDeleted:
			return SideLocal
		}
	}

	return keepNewer(local, remote)
}

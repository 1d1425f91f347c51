// Package merge reconciles two independently mutated note datasets into one
// converged set. The resolver is a pure function of its inputs: no clock, no
// store access, no hidden state.
package merge

import (
	"fmt"

	"github.com/quillnotes/notesync/internal/models"
)

// Strategy selects how a detected conflict is resolved.
type Strategy string

const (
	// KeepLocal always keeps the local record.
	KeepLocal Strategy = "keep_local"
	// KeepRemote always keeps the remote record.
	KeepRemote Strategy = "keep_remote"
	// KeepNewer keeps the record with the later modified timestamp;
	// ties favor local.
	KeepNewer Strategy = "keep_newer"
	// MergeSmart prefers the non-deleted side when one side is soft-deleted
	// and the two states are less than one hour apart, otherwise behaves
	// like KeepNewer.
	MergeSmart Strategy = "merge_smart"
)

// ParseStrategy maps a config string to a Strategy, defaulting to KeepNewer.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case KeepLocal, KeepRemote, KeepNewer, MergeSmart:
		return Strategy(s), nil
	case "":
		return KeepNewer, nil
	default:
		return KeepNewer, fmt.Errorf("unknown merge strategy %q", s)
	}
}

// ConflictType classifies why two copies of the same id disagree.
type ConflictType string

const (
	// LocalDeleted: local copy is soft-deleted, remote copy is live.
	LocalDeleted ConflictType = "local_deleted"
	// RemoteDeleted: remote copy is soft-deleted, local copy is live.
	RemoteDeleted ConflictType = "remote_deleted"
	// BothModified: both copies are live with differing timestamps and
	// differing payloads.
	BothModified ConflictType = "both_modified"
)

// Side names which copy won a conflict.
type Side string

const (
	SideLocal  Side = "local"
	SideRemote Side = "remote"
)

// Conflict is one detected disagreement plus its resolution.
type Conflict struct {
	RecordID string
	Type     ConflictType
	Local    models.Note
	Remote   models.Note
	Winner   Side
}

// Result is the outcome of one merge pass. Transient; it exists only long
// enough to be applied back to the local store and re-uploaded.
type Result struct {
	Inserted          int
	Updated           int
	Deleted           int
	ConflictsResolved int
	Converged         []models.Note
	Conflicts         []Conflict
}

package models

// SyncSchemaVersion is bumped whenever the snapshot layout or fingerprint
// recipe changes; a mismatch forces a full sync pass.
const SyncSchemaVersion = 1

// SyncMetadata is the one-row-per-owner bookkeeping used by the
// incremental-sync policy to decide whether a pass can be skipped.
type SyncMetadata struct {
	OwnerID           string
	LastSyncAt        int64
	NoteCount         int
	AttachmentCount   int
	CategoryCount     int
	LinkCount         int
	LocalFingerprint  string
	RemoteFingerprint string
	SchemaVersion     int
	CreatedAt         int64
	UpdatedAt         int64
}

package models

// AttachmentStatus is the sync state of a binary attachment.
type AttachmentStatus string

const (
	AttachmentPending        AttachmentStatus = "pending"
	AttachmentSyncing        AttachmentStatus = "syncing"
	AttachmentSynced         AttachmentStatus = "synced"
	AttachmentFailed         AttachmentStatus = "failed"
	AttachmentConflict       AttachmentStatus = "conflict"
	AttachmentLocallyDeleted AttachmentStatus = "locally_deleted"
)

// Attachment is a binary file owned by a note.
//
// Invariants: NeedsUpload implies SyncStatus != synced; a locally_deleted
// attachment is never re-uploaded and never recreated from the remote.
type Attachment struct {
	ID          string
	NoteID      string
	OwnerID     string
	FileName    string
	MimeType    string
	Size        int64
	LocalPath   string // empty when the file is not cached locally
	RemoteID    string // empty until first successful upload
	ContentHash string // hex SHA-256; empty until first hashed
	SyncStatus  AttachmentStatus
	NeedsUpload bool
	RetryCount  int
	CreatedAt   int64
	ModifiedAt  int64
}

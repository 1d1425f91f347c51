// Package blobstore defines the remote storage contracts the sync core
// depends on, plus the S3 implementation used in production and an in-memory
// implementation used in tests. The core never touches a cloud SDK directly.
package blobstore

import "context"

// RemoteMetadata is the snapshot sidecar: enough to decide whether a full
// sync is needed without downloading the snapshot itself.
type RemoteMetadata struct {
	Timestamp   int64  `json:"timestamp"`
	Fingerprint string `json:"fingerprint"`
}

// RemoteBlobStore holds one snapshot blob (plus sidecar) per owner.
type RemoteBlobStore interface {
	// Authenticate verifies the store is reachable with the configured
	// credentials. Fatal for the sync pass on failure.
	Authenticate(ctx context.Context) error

	// Metadata returns the snapshot sidecar, or nil when no snapshot has
	// ever been uploaded (first sync).
	Metadata(ctx context.Context, ownerID string) (*RemoteMetadata, error)

	// DownloadSnapshot returns the snapshot bytes, or nil when absent.
	DownloadSnapshot(ctx context.Context, ownerID string) ([]byte, error)

	// UploadSnapshot overwrites the snapshot and its sidecar.
	UploadSnapshot(ctx context.Context, ownerID string, data []byte, meta RemoteMetadata) error
}

// AttachmentInfo describes one attachment held remotely. ID is the
// attachment record id; RemoteID is the store-assigned handle.
type AttachmentInfo struct {
	ID          string `json:"id"`
	RemoteID    string `json:"remoteId"`
	NoteID      string `json:"noteId"`
	FileName    string `json:"fileName"`
	MimeType    string `json:"mimeType"`
	Size        int64  `json:"size"`
	ContentHash string `json:"contentHash"`
}

// RemoteAttachmentStore holds attachment payloads keyed by remote id.
type RemoteAttachmentStore interface {
	UploadAttachment(ctx context.Context, ownerID string, data []byte, info AttachmentInfo) (remoteID string, err error)
	DownloadAttachment(ctx context.Context, remoteID string) ([]byte, error)
	ListAttachments(ctx context.Context, ownerID string) ([]AttachmentInfo, error)
	DeleteAttachment(ctx context.Context, remoteID string) error
}

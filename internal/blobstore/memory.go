package blobstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/quillnotes/notesync/internal/common"
)

// MemoryStore is an in-process RemoteBlobStore + RemoteAttachmentStore used
// by tests and local development. Error injection fields force the next call
// of the matching operation to fail.
type MemoryStore struct {
	mu          sync.Mutex
	snapshots   map[string][]byte
	sidecars    map[string]RemoteMetadata
	attachments map[string]memAttachment // keyed by remote id

	FailAuth     bool
	FailUpload   bool
	FailDownload bool

	// Calls counts operations by name for assertions on skipped work.
	Calls map[string]int
}

type memAttachment struct {
	ownerID string
	data    []byte
	info    AttachmentInfo
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots:   make(map[string][]byte),
		sidecars:    make(map[string]RemoteMetadata),
		attachments: make(map[string]memAttachment),
		Calls:       make(map[string]int),
	}
}

func (m *MemoryStore) record(op string) {
	m.Calls[op]++
}

func (m *MemoryStore) Authenticate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Authenticate")
	if m.FailAuth {
		return common.ErrorAuthFailed
	}
	return nil
}

func (m *MemoryStore) Metadata(ctx context.Context, ownerID string) (*RemoteMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Metadata")
	meta, ok := m.sidecars[ownerID]
	if !ok {
		return nil, nil
	}
	copied := meta
	return &copied, nil
}

func (m *MemoryStore) DownloadSnapshot(ctx context.Context, ownerID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("DownloadSnapshot")
	if m.FailDownload {
		return nil, fmt.Errorf("memory store: forced download failure")
	}
	data, ok := m.snapshots[ownerID]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MemoryStore) UploadSnapshot(ctx context.Context, ownerID string, data []byte, meta RemoteMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("UploadSnapshot")
	if m.FailUpload {
		return fmt.Errorf("memory store: forced upload failure")
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	m.snapshots[ownerID] = stored
	m.sidecars[ownerID] = meta
	return nil
}

// SetSnapshot seeds a remote snapshot directly, bypassing error injection.
func (m *MemoryStore) SetSnapshot(ownerID string, data []byte, meta RemoteMetadata) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[ownerID] = data
	m.sidecars[ownerID] = meta
}

func (m *MemoryStore) UploadAttachment(ctx context.Context, ownerID string, data []byte, info AttachmentInfo) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("UploadAttachment")
	if m.FailUpload {
		return "", fmt.Errorf("memory store: forced upload failure")
	}
	remoteID := "mem/" + ownerID + "/" + info.ID
	stored := make([]byte, len(data))
	copy(stored, data)
	info.RemoteID = remoteID
	m.attachments[remoteID] = memAttachment{ownerID: ownerID, data: stored, info: info}
	return remoteID, nil
}

func (m *MemoryStore) DownloadAttachment(ctx context.Context, remoteID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("DownloadAttachment")
	if m.FailDownload {
		return nil, fmt.Errorf("memory store: forced download failure")
	}
	att, ok := m.attachments[remoteID]
	if !ok {
		return nil, fmt.Errorf("attachment %s: %w", remoteID, common.ErrorNotFound)
	}
	out := make([]byte, len(att.data))
	copy(out, att.data)
	return out, nil
}

func (m *MemoryStore) ListAttachments(ctx context.Context, ownerID string) ([]AttachmentInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ListAttachments")
	var infos []AttachmentInfo
	for _, att := range m.attachments {
		if att.ownerID == ownerID {
			infos = append(infos, att.info)
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

func (m *MemoryStore) DeleteAttachment(ctx context.Context, remoteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("DeleteAttachment")
	delete(m.attachments, remoteID)
	return nil
}

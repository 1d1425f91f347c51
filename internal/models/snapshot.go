package models

import "encoding/json"

// SnapshotVersion is the current wire version of the remote snapshot.
const SnapshotVersion = 1

// Snapshot is the full dataset exchanged with the remote blob store.
//
// Readers must ignore unknown fields and accept a missing deletions array
// (older writers did not emit it).
type Snapshot struct {
	Version    int                `json:"version"`
	Timestamp  int64              `json:"timestamp"`
	Notes      []Note             `json:"notes"`
	Categories []Category         `json:"categories"`
	Links      []NoteCategoryLink `json:"noteCategories"`
	Deletions  []Tombstone        `json:"deletions"`
}

// EncodeSnapshot serializes s to the wire format.
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSnapshot parses a snapshot document. A missing deletions array
// decodes to an empty slice so older snapshots stay readable.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.Deletions == nil {
		s.Deletions = []Tombstone{}
	}
	return &s, nil
}

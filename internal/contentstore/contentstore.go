// Package contentstore caches attachment payloads on the local filesystem,
// addressed by content hash so identical payloads are stored once.
package contentstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/quillnotes/notesync/internal/common"
	"github.com/quillnotes/notesync/internal/hashx"
)

// ContentStore is the narrow file-cache contract the sync core depends on.
type ContentStore interface {
	Exists(path string) bool
	Read(path string) ([]byte, error)

	// Write stores data and returns the path it lives at.
	Write(data []byte) (string, error)

	Delete(path string) error
}

// FSStore stores payloads at baseDir/{hash[0:2]}/{hash[2:4]}/{hash}. The
// two-level fan-out keeps directories small.
type FSStore struct {
	baseDir string
}

func NewFSStore(baseDir string) *FSStore {
	return &FSStore{baseDir: baseDir}
}

func (s *FSStore) pathFor(hash string) string {
	return filepath.Join(s.baseDir, hash[0:2], hash[2:4], hash)
}

func (s *FSStore) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Read returns the payload and re-verifies its content hash when the path is
// store-owned (its basename is a digest).
func (s *FSStore) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("content not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if name := filepath.Base(path); len(name) == 64 {
		if got := hashx.Sum(data); got != name {
			return nil, fmt.Errorf("%w: expected %s, got %s", common.ErrorHashMismatch, name, got)
		}
	}

	return data, nil
}

// Write stores data under its content hash. An existing file with the same
// hash is left untouched (deduplication).
func (s *FSStore) Write(data []byte) (string, error) {
	hash := hashx.Sum(data)
	path := s.pathFor(hash)

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}

// Delete removes a stored payload. Deleting a missing path is not an error.
func (s *FSStore) Delete(path string) error {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	// Opportunistically drop empty fan-out directories.
	dir := filepath.Dir(path)
	_ = os.Remove(dir)
	_ = os.Remove(filepath.Dir(dir))

	return nil
}

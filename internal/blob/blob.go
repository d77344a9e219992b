// Package blob provides the opaque byte-blob backend the local store
// persists its database image to. The backend is keyed storage with no
// structure: load the image at startup, save it after every write.
package blob

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store is device-local durable storage for opaque byte blobs.
type Store interface {
	// Get returns the blob stored under key, or (nil, nil) if no blob
	// has been stored yet.
	Get(key string) ([]byte, error)

	// Put durably stores the blob under key, replacing any previous
	// value.
	Put(key string, data []byte) error

	// Delete removes the blob stored under key. Deleting a missing
	// key is not an error.
	Delete(key string) error
}

// FileStore stores blobs as files under a base directory. Writes go
// through a temp file and rename so a crash never leaves a truncated
// image behind.
type FileStore struct {
	dir string
}

// NewFileStore creates the base directory if needed and returns a
// FileStore rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Get implements Store.
func (s *FileStore) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", key, err)
	}
	return data, nil
}

// Put implements Store.
func (s *FileStore) Put(key string, data []byte) error {
	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit blob %s: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (s *FileStore) Delete(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key)
}

// Memory is an in-memory Store for tests.
type Memory struct {
	blobs map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

// Get implements Store.
func (m *Memory) Get(key string) ([]byte, error) {
	data, ok := m.blobs[key]
	if !ok {
		return nil, nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// Put implements Store.
func (m *Memory) Put(key string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	m.blobs[key] = cp
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(key string) error {
	delete(m.blobs, key)
	return nil
}

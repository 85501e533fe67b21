// Package blobstore provides the document-store collaborator: byte blobs
// addressed by bucket and key. It holds uploaded source documents and the
// prompt templates consumed by the analysis stages.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotFound indicates no blob exists under the given bucket and key.
var ErrNotFound = errors.New("blob not found")

// Store is the document-store contract consumed by the pipeline.
type Store interface {
	// Get returns the blob stored under bucket/key, or ErrNotFound.
	Get(ctx context.Context, bucket, key string) ([]byte, error)

	// Put stores the blob under bucket/key, overwriting any previous value.
	Put(ctx context.Context, bucket, key string, data []byte) error
}

// MemStore is an in-memory Store for tests and local development.
type MemStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[string][]byte)}
}

func (s *MemStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, key)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemStore) Put(_ context.Context, bucket, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	s.blobs[bucket+"/"+key] = stored
	return nil
}

// FSStore stores blobs on the local filesystem, one directory per bucket.
// It is the default production store for single-node deployments; swapping
// in an object-storage implementation only requires satisfying Store.
type FSStore struct {
	root string
}

// NewFSStore creates a filesystem store rooted at the given directory.
func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) path(bucket, key string) (string, error) {
	// Keys may carry path separators ("uploads/case-42.pdf"); reject
	// anything that escapes the bucket directory.
	cleaned := filepath.Clean(filepath.Join(s.root, bucket, filepath.FromSlash(key)))
	base := filepath.Clean(filepath.Join(s.root, bucket))
	if cleaned != base && !strings.HasPrefix(cleaned, base+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return cleaned, nil
}

func (s *FSStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	path, err := s.path(bucket, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, key)
	}
	return data, err
}

func (s *FSStore) Put(_ context.Context, bucket, key string, data []byte) error {
	path, err := s.path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create blob directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

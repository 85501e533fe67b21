// Package kvstore provides the durable key-value collaborator used for
// jurisdiction weights (read) and score-history persistence (best-effort
// write). Items are schemaless records keyed by a table name and a string
// primary key, mirroring the minimal key shape the pipeline depends on.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound indicates no item exists under the given table and key.
var ErrNotFound = errors.New("item not found")

// Item is a schemaless record. Every item carries its primary key under the
// table's key attribute.
type Item map[string]any

// Store is the durable key-value contract consumed by the pipeline.
type Store interface {
	// Get returns the item stored in table under key, or ErrNotFound.
	Get(ctx context.Context, table, key string) (Item, error)

	// Put stores the item in table, keyed by the table's key attribute.
	Put(ctx context.Context, table string, item Item) error
}

// KeyAttribute names the primary-key field of the tables the pipeline uses.
const KeyAttribute = "id"

// MemStore is an in-memory Store for tests and local development.
type MemStore struct {
	mu     sync.RWMutex
	tables map[string]map[string]Item
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{tables: make(map[string]map[string]Item)}
}

func (s *MemStore) Get(_ context.Context, table, key string) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.tables[table][key]
	if !ok {
		return nil, fmt.Errorf("%w: %s[%s]", ErrNotFound, table, key)
	}
	out := make(Item, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out, nil
}

func (s *MemStore) Put(_ context.Context, table string, item Item) error {
	key, err := itemKey(item)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tables[table] == nil {
		s.tables[table] = make(map[string]Item)
	}
	stored := make(Item, len(item))
	for k, v := range item {
		stored[k] = v
	}
	s.tables[table][key] = stored
	return nil
}

func itemKey(item Item) (string, error) {
	raw, ok := item[KeyAttribute]
	if !ok {
		return "", fmt.Errorf("item missing %q attribute", KeyAttribute)
	}
	key, ok := raw.(string)
	if !ok || key == "" {
		return "", fmt.Errorf("item %q attribute must be a non-empty string", KeyAttribute)
	}
	return key, nil
}

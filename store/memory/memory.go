// Package memory provides an in-process GraphStore.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/smallnest/gptindex/store"
)

// MemoryGraphStore keeps records in a map guarded by a mutex.
type MemoryGraphStore struct {
	mu      sync.RWMutex
	records map[string]*store.Record
}

var _ store.GraphStore = (*MemoryGraphStore)(nil)

// NewMemoryGraphStore creates an empty in-memory store.
func NewMemoryGraphStore() *MemoryGraphStore {
	return &MemoryGraphStore{records: make(map[string]*store.Record)}
}

// Save stores a copy of record.
func (s *MemoryGraphStore) Save(ctx context.Context, record *store.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record.Clone()
	return nil
}

// Load returns a copy of the stored record.
func (s *MemoryGraphStore) Load(ctx context.Context, id string) (*store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return r.Clone(), nil
}

// List returns copies of all records.
func (s *MemoryGraphStore) List(ctx context.Context) ([]*store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	records := make([]*store.Record, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, r.Clone())
	}
	s.mu.RUnlock()
	store.SortRecords(records)
	return records, nil
}

// Delete removes a record.
func (s *MemoryGraphStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

package vectorstore

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Memory is an in-process Store.
type Memory struct {
	mu     sync.RWMutex
	spaces map[string]*space
}

type space struct {
	ids  []string
	vecs [][]float32
}

var (
	_ Store   = (*Memory)(nil)
	_ Counter = (*Memory)(nil)
)

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{spaces: make(map[string]*space)}
}

// Add implements Store. Adding an id again replaces its vector in place. Nothing is
// written unless every entry has an embedding.
func (m *Memory) Add(_ context.Context, entries []Entry) error {
	for _, e := range entries {
		if len(e.Embedding) == 0 {
			return fmt.Errorf("vectorstore: entry %s has no embedding", e.ID)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		sp, ok := m.spaces[e.Namespace]
		if !ok {
			sp = &space{}
			m.spaces[e.Namespace] = sp
		}
		if i := slices.Index(sp.ids, e.ID); i >= 0 {
			sp.vecs[i] = e.Embedding
			continue
		}
		sp.ids = append(sp.ids, e.ID)
		sp.vecs = append(sp.vecs, e.Embedding)
	}
	return nil
}

// Query implements Store.
func (m *Memory) Query(_ context.Context, q Query, k int) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sp, ok := m.spaces[q.Namespace]
	if !ok {
		if k <= 0 {
			return nil, ErrInvalidK
		}
		return nil, nil
	}
	return Rank(q.Embedding, sp.ids, sp.vecs, k)
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, namespace string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sp, ok := m.spaces[namespace]
	if !ok {
		return nil
	}
	kept := &space{}
	for i, id := range sp.ids {
		if !slices.Contains(ids, id) {
			kept.ids = append(kept.ids, id)
			kept.vecs = append(kept.vecs, sp.vecs[i])
		}
	}
	m.spaces[namespace] = kept
	return nil
}

// Len returns the number of entries in namespace.
func (m *Memory) Len(namespace string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sp, ok := m.spaces[namespace]; ok {
		return len(sp.ids)
	}
	return 0
}

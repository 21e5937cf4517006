// Package vectorstore holds node embeddings outside the index struct and answers
// nearest-neighbour queries over them.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/smallnest/gptindex/embedding"
)

var (
	// ErrInvalidK is returned for a non-positive result count.
	ErrInvalidK = errors.New("vectorstore: k must be positive")
	// ErrMissingEntries is returned when a store holds fewer entries than the index
	// that wrote them, typically after loading an index into a fresh store.
	ErrMissingEntries = errors.New("vectorstore: entries missing from store")
)

// Entry is one node as written to a store.
type Entry struct {
	// Namespace keeps the nodes of different indices apart in a shared store.
	Namespace string
	ID        string
	Text      string
	Embedding []float32
}

// Query selects the nearest entries of a namespace. Stores that embed on their own
// use Text; the others use Embedding.
type Query struct {
	Namespace string
	Text      string
	Embedding []float32
}

// Match is a query hit.
type Match struct {
	ID    string
	Score float64
}

// Store is an external vector store.
type Store interface {
	Add(ctx context.Context, entries []Entry) error
	Query(ctx context.Context, q Query, k int) ([]Match, error)
	Delete(ctx context.Context, namespace string, ids []string) error
}

// Counter is implemented by stores that can report how many entries a namespace holds.
type Counter interface {
	Len(namespace string) int
}

// Rank scores vecs against query and returns the k best, highest first. Equal scores
// keep the order of ids.
func Rank(query []float32, ids []string, vecs [][]float32, k int) ([]Match, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if len(ids) != len(vecs) {
		return nil, fmt.Errorf("vectorstore: %d ids for %d vectors", len(ids), len(vecs))
	}
	matches := make([]Match, len(ids))
	for i, v := range vecs {
		score, err := embedding.Cosine(query, v)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", ids[i], err)
		}
		matches[i] = Match{ID: ids[i], Score: score}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

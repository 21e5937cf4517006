package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// Metadata keys written next to each document.
const (
	MetadataNodeID    = "node_id"
	MetadataNamespace = "index_id"
)

// LangChain adapts a langchaingo vector store. The wrapped store embeds on its own,
// so queries are matched by text.
type LangChain struct {
	store vectorstores.VectorStore
}

var _ Store = (*LangChain)(nil)

// NewLangChain wraps store.
func NewLangChain(store vectorstores.VectorStore) *LangChain {
	return &LangChain{store: store}
}

// Add implements Store.
func (l *LangChain) Add(ctx context.Context, entries []Entry) error {
	docs := make([]schema.Document, len(entries))
	for i, e := range entries {
		docs[i] = schema.Document{
			PageContent: e.Text,
			Metadata: map[string]any{
				MetadataNodeID:    e.ID,
				MetadataNamespace: e.Namespace,
			},
		}
	}
	if _, err := l.store.AddDocuments(ctx, docs); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

// Query implements Store.
func (l *LangChain) Query(ctx context.Context, q Query, k int) ([]Match, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	docs, err := l.store.SimilaritySearch(ctx, q.Text, k,
		vectorstores.WithFilters(map[string]any{MetadataNamespace: q.Namespace}))
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	matches := make([]Match, 0, len(docs))
	for _, d := range docs {
		if ns, _ := d.Metadata[MetadataNamespace].(string); ns != q.Namespace {
			continue
		}
		id, ok := d.Metadata[MetadataNodeID].(string)
		if !ok {
			return nil, fmt.Errorf("similarity search: document without %s", MetadataNodeID)
		}
		matches = append(matches, Match{ID: id, Score: float64(d.Score)})
	}
	return matches, nil
}

// Delete is not offered by the langchaingo store interface.
func (l *LangChain) Delete(context.Context, string, []string) error {
	return errors.ErrUnsupported
}

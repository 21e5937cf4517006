package embedding

import (
	"context"

	"github.com/tmc/langchaingo/embeddings"
)

// LangChain adapts a langchaingo embedder.
type LangChain struct {
	embedder embeddings.Embedder
}

var _ Embedder = (*LangChain)(nil)

// NewLangChain wraps embedder.
func NewLangChain(embedder embeddings.Embedder) *LangChain {
	return &LangChain{embedder: embedder}
}

// EmbedQuery implements Embedder.
func (l *LangChain) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}
	return l.embedder.EmbedQuery(ctx, text)
}

// EmbedTexts implements Embedder.
func (l *LangChain) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return l.embedder.EmbedDocuments(ctx, texts)
}

package embedding

import (
	"context"
	"fmt"
	"math"
)

// Hash is a deterministic embedder deriving vectors from the characters of the text.
// It needs no model and is meant for tests and offline runs.
type Hash struct {
	Dimension int
}

var _ Embedder = (*Hash)(nil)

// NewHash creates a Hash embedder producing vectors of the given dimension.
func NewHash(dimension int) *Hash {
	return &Hash{Dimension: dimension}
}

// EmbedQuery implements Embedder.
func (h *Hash) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return h.embed(text), nil
}

// EmbedTexts implements Embedder.
func (h *Hash) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = h.embed(text)
	}
	return out, nil
}

func (h *Hash) embed(text string) []float32 {
	v := make([]float32, h.Dimension)
	for i := range v {
		var sum float64
		for j, r := range text {
			sum += float64(r) * float64(i+j+1)
		}
		v[i] = float32(math.Sin(sum / 1000.0))
	}
	var norm float64
	for _, f := range v {
		norm += float64(f) * float64(f)
	}
	if norm = math.Sqrt(norm); norm > 0 {
		for i := range v {
			v[i] = float32(float64(v[i]) / norm)
		}
	}
	return v
}

// Fixed returns preset vectors. Queries and texts are looked up in separate tables;
// anything else is an ErrUnknownText.
type Fixed struct {
	Queries map[string][]float32
	Texts   map[string][]float32
}

var _ Embedder = (*Fixed)(nil)

// EmbedQuery implements Embedder.
func (f *Fixed) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	v, ok := f.Queries[text]
	if !ok {
		return nil, fmt.Errorf("%w: query %q", ErrUnknownText, text)
	}
	return v, nil
}

// EmbedTexts implements Embedder.
func (f *Fixed) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, ok := f.Texts[text]
		if !ok {
			return nil, fmt.Errorf("%w: text %q", ErrUnknownText, text)
		}
		out[i] = v
	}
	return out, nil
}

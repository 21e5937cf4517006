// Package embedding turns text into vectors for similarity-based retrieval.
package embedding

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Embedder converts text into dense float32 vectors.
type Embedder interface {
	// EmbedQuery embeds a query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	// EmbedTexts embeds node texts, one vector per input in order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

var (
	// ErrEmptyInput is returned when there is nothing to embed.
	ErrEmptyInput = errors.New("embedding: empty input")
	// ErrDimensionMismatch is returned when comparing vectors of different length.
	ErrDimensionMismatch = errors.New("embedding: dimension mismatch")
	// ErrUnknownText is returned by Fixed for text it holds no vector for.
	ErrUnknownText = errors.New("embedding: unknown text")
)

// Cosine returns the cosine similarity of a and b. A zero vector has similarity 0.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}
	x, y := toFloat64(a), toFloat64(b)
	na, nb := floats.Norm(x, 2), floats.Norm(y, 2)
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return floats.Dot(x, y) / (na * nb), nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

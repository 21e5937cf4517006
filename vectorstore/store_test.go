package vectorstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

func TestRank(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	vecs := [][]float32{{1, 0}, {0, 1}, {0, 1}, {1, 1}}

	got, err := Rank([]float32{0, 1}, ids, vecs, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].ID, "ties keep insertion order")
	assert.Equal(t, "c", got[1].ID)
	assert.Equal(t, "d", got[2].ID)

	got, err = Rank([]float32{1, 0}, ids, vecs, 10)
	require.NoError(t, err)
	assert.Len(t, got, 4)

	_, err = Rank([]float32{1, 0}, ids, vecs, 0)
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = Rank([]float32{1, 0, 0}, ids, vecs, 1)
	assert.Error(t, err)
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Add(ctx, []Entry{
		{Namespace: "x", ID: "1", Embedding: []float32{1, 0}},
		{Namespace: "x", ID: "2", Embedding: []float32{0, 1}},
		{Namespace: "y", ID: "1", Embedding: []float32{0, 1}},
	}))
	assert.Equal(t, 2, m.Len("x"))

	got, err := m.Query(ctx, Query{Namespace: "x", Embedding: []float32{0, 1}}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)

	got, err = m.Query(ctx, Query{Namespace: "none", Embedding: []float32{0, 1}}, 1)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, m.Add(ctx, []Entry{{Namespace: "x", ID: "1", Embedding: []float32{0, 2}}}))
	assert.Equal(t, 2, m.Len("x"))

	require.NoError(t, m.Delete(ctx, "x", []string{"2"}))
	got, err = m.Query(ctx, Query{Namespace: "x", Embedding: []float32{0, 1}}, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)

	assert.Error(t, m.Add(ctx, []Entry{{Namespace: "x", ID: "3"}}))
}

func TestMemoryAddIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	err := m.Add(ctx, []Entry{
		{Namespace: "x", ID: "1", Embedding: []float32{1, 0}},
		{Namespace: "z", ID: "2", Embedding: []float32{0, 1}},
		{Namespace: "x", ID: "3"},
	})
	require.Error(t, err)
	assert.Zero(t, m.Len("x"))
	assert.Zero(t, m.Len("z"))

	got, err := m.Query(ctx, Query{Namespace: "x", Embedding: []float32{1, 0}}, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

type fakeLangChainStore struct {
	docs []schema.Document
}

func (f *fakeLangChainStore) AddDocuments(_ context.Context, docs []schema.Document, _ ...vectorstores.Option) ([]string, error) {
	f.docs = append(f.docs, docs...)
	return nil, nil
}

func (f *fakeLangChainStore) SimilaritySearch(_ context.Context, query string, k int, _ ...vectorstores.Option) ([]schema.Document, error) {
	var out []schema.Document
	for _, d := range f.docs {
		if d.PageContent == query {
			d.Score = 1
			out = append(out, d)
		}
	}
	for _, d := range f.docs {
		if d.PageContent != query {
			out = append(out, d)
		}
	}
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func TestLangChain(t *testing.T) {
	ctx := context.Background()
	fake := &fakeLangChainStore{}
	lc := NewLangChain(fake)
	require.NoError(t, lc.Add(ctx, []Entry{
		{Namespace: "x", ID: "1", Text: "cats"},
		{Namespace: "x", ID: "2", Text: "dogs"},
		{Namespace: "y", ID: "9", Text: "dogs"},
	}))
	assert.Equal(t, "1", fake.docs[0].Metadata[MetadataNodeID])

	got, err := lc.Query(ctx, Query{Namespace: "x", Text: "dogs"}, 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Match{ID: "2", Score: 1}, got[0])
	assert.Equal(t, "1", got[1].ID)

	assert.True(t, errors.Is(lc.Delete(ctx, "x", nil), errors.ErrUnsupported))
}

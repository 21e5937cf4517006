package index

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/gptindex/data"
	"github.com/smallnest/gptindex/embedding"
	"github.com/smallnest/gptindex/query"
	"github.com/smallnest/gptindex/schema"
	"github.com/smallnest/gptindex/service"
	"github.com/smallnest/gptindex/synth"
	"github.com/smallnest/gptindex/vectorstore"
)

func TestListQuery(t *testing.T) {
	ctx := context.Background()
	sc := newTestContext()
	l, err := BuildList(ctx, sc, docs(testTexts...), WithIndexID("list"))
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "2", "3"}, l.Struct().Registry().IDs())

	resp, err := l.Query(ctx, "What is?", query.ModeDefault, nil)
	require.NoError(t, err)
	assert.Equal(t, "What is?:This is a test v2.", resp.String())
	assert.Len(t, resp.SourceNodes, 4)
	assert.Equal(t, "list", resp.SourceNodes[0].IndexID)

	resp, err = l.Query(ctx, "What is?", query.ModeDefault, query.Params{
		query.ParamRequiredKeywords: []string{"world"},
	})
	require.NoError(t, err)
	assert.Equal(t, "What is?:Hello world.", resp.String())

	resp, err = l.Query(ctx, "What is?", query.ModeDefault, query.Params{
		query.ParamExcludeKeywords: []any{"v2", "another"},
	})
	require.NoError(t, err)
	assert.Equal(t, "What is?:This is a test.", resp.String())
}

func TestListEmbeddingMode(t *testing.T) {
	ctx := context.Background()
	l, err := BuildList(ctx, newTestContext(), docs(testTexts...))
	require.NoError(t, err)

	resp, err := l.Query(ctx, "Foo?", query.ModeEmbedding, nil)
	require.NoError(t, err)
	assert.Equal(t, "Foo?:This is another test.", resp.String())
	require.Len(t, resp.SourceNodes, 1)
	assert.InDelta(t, 1.0, resp.SourceNodes[0].Score, 1e-9)

	resp, err = l.Query(ctx, "Cat?", query.ModeEmbedding, query.Params{query.ParamSimilarityTopK: 3})
	require.NoError(t, err)
	assert.Equal(t, "Cat?:This is a test v2.", resp.String())
	assert.Len(t, resp.SourceNodes, 3)
}

func TestUnsupportedMode(t *testing.T) {
	ctx := context.Background()
	sc := newTestContext()
	l, err := BuildList(ctx, sc, docs("Hello world."))
	require.NoError(t, err)
	v, err := BuildDict(ctx, sc, docs("Hello world."))
	require.NoError(t, err)

	for _, tc := range []struct {
		idx  Index
		mode query.Mode
	}{
		{l, query.ModeRetrieve},
		{l, query.ModeSimple},
		{v, query.ModeEmbedding},
	} {
		_, err := tc.idx.Query(ctx, "Foo?", tc.mode, nil)
		assert.ErrorIs(t, err, ErrUnsupportedMode)
		var me *ModeError
		require.True(t, errors.As(err, &me))
		assert.Equal(t, tc.mode, me.Mode)
	}
}

func TestTreeBuild(t *testing.T) {
	ctx := context.Background()
	sc := newTestContext()
	tr, err := BuildTree(ctx, sc, docs(testTexts...), WithNumChildren(2), WithIndexID("tree"))
	require.NoError(t, err)

	st := tr.Struct().(*data.Tree)
	assert.Equal(t, 6, st.Registry().Len())
	assert.Equal(t, []string{"4", "5"}, st.RootIDs)
	assert.Equal(t, []string{"0", "1"}, st.ChildrenOf("4"))
	assert.Equal(t, []string{"2", "3"}, st.ChildrenOf("5"))

	root, _ := st.Registry().Node("4")
	assert.Equal(t, "This is a test v2.\nThis is another test.", root.Text)
	assert.Positive(t, sc.TotalTokensUsed())

	_, err = BuildTree(ctx, sc, nil)
	assert.ErrorIs(t, err, ErrEmptyDocuments)

	_, err = BuildTree(ctx, sc, docs("x"), WithNumChildren(1))
	assert.Error(t, err)
}

func TestTreeBuildMultipleLevels(t *testing.T) {
	ctx := context.Background()
	texts := make([]string, 9)
	for i := range texts {
		texts[i] = "chunk"
	}
	tr, err := BuildTree(ctx, newTestContext(), docs(texts...), WithNumChildren(2))
	require.NoError(t, err)
	st := tr.Struct().(*data.Tree)
	// 9 leaves, 5 then 3 then 2 summaries
	assert.Equal(t, 9+5+3+2, st.Registry().Len())
	assert.Len(t, st.RootIDs, 2)
	require.NoError(t, st.Validate())
}

func TestTreeQueryModes(t *testing.T) {
	ctx := context.Background()
	sc := newTestContext()
	tr, err := BuildTree(ctx, sc, docs(testTexts[2], testTexts[3], testTexts[3], testTexts[2]), WithNumChildren(2))
	require.NoError(t, err)

	resp, err := tr.Query(ctx, "What is?", query.ModeDefault, nil)
	require.NoError(t, err)
	assert.Equal(t, "What is?:This is a test.", resp.String())
	assert.Len(t, resp.SourceNodes, 1)

	resp, err = tr.Query(ctx, "What is?", query.ModeDefault, query.Params{query.ParamChildBranchFactor: 2})
	require.NoError(t, err)
	assert.Len(t, resp.SourceNodes, 4, "two roots, two leaves each")

	resp, err = tr.Query(ctx, "What is?", query.ModeRetrieve, nil)
	require.NoError(t, err)
	assert.Equal(t, "What is?:This is a test.\nHello world.", resp.String())

	resp, err = tr.Query(ctx, "Orange?", query.ModeEmbedding, nil)
	assert.ErrorIs(t, err, embedding.ErrUnknownText, "summaries have no fixture embedding")
	assert.Nil(t, resp)

	_, err = tr.Query(ctx, "What is?", query.ModeSimple, nil)
	assert.ErrorIs(t, err, ErrUnsupportedMode)
}

func TestTreeEmbeddingMode(t *testing.T) {
	ctx := context.Background()
	nodes := []schema.Node{
		{Kind: schema.KindLeaf, Text: "Hello world.", Embedding: []float32{1, 0, 0, 0, 0}},
		{Kind: schema.KindLeaf, Text: "This is a test.", Embedding: []float32{0, 1, 0, 0, 0}},
	}
	idx, err := BuildFromNodes(ctx, newTestContext(), data.TypeTree, nodes, WithNumChildren(2))
	require.NoError(t, err)

	resp, err := idx.Query(ctx, "Orange?", query.ModeEmbedding, nil)
	require.NoError(t, err)
	assert.Equal(t, "Orange?:This is a test.", resp.String())
	require.Len(t, resp.SourceNodes, 1)
	assert.InDelta(t, 1.0, resp.SourceNodes[0].Score, 1e-9)
}

func TestKeywordTableQuery(t *testing.T) {
	ctx := context.Background()
	sc := newTestContext()
	kt, err := BuildKeywordTable(ctx, sc, docs("Hello world.", "This is a test.", "test world test"))
	require.NoError(t, err)
	st := kt.Struct().(*data.KeywordTable)
	assert.Equal(t, []string{"hello", "test", "world"}, st.Keywords())

	resp, err := kt.Query(ctx, "World?", query.ModeDefault, nil)
	require.NoError(t, err)
	assert.Equal(t, "World?:Hello world.", resp.String())

	resp, err = kt.Query(ctx, "test world", query.ModeSimple, nil)
	require.NoError(t, err)
	assert.Equal(t, "test world:test world test", resp.String(), "two matching keywords rank first")
	assert.Len(t, resp.SourceNodes, 3)

	resp, err = kt.Query(ctx, "test world", query.ModeSimple, query.Params{query.ParamNumChunksPerQuery: 1})
	require.NoError(t, err)
	assert.Len(t, resp.SourceNodes, 1)

	resp, err = kt.Query(ctx, "Nothing?", query.ModeDefault, nil)
	require.NoError(t, err)
	assert.True(t, resp.IsEmpty())

	_, err = kt.Query(ctx, "x", query.ModeEmbedding, nil)
	assert.ErrorIs(t, err, ErrUnsupportedMode)
}

func TestKeywordTableFilters(t *testing.T) {
	ctx := context.Background()
	kt, err := BuildKeywordTable(ctx, newTestContext(), docs("Hello world.", "This is a test."))
	require.NoError(t, err)

	tests := []struct {
		name    string
		params  query.Params
		want    string
		sources []string
	}{
		{
			name:    "no filter",
			want:    "world test:Hello world.",
			sources: []string{"Hello world.", "This is a test."},
		},
		{
			name:    "required",
			params:  query.Params{query.ParamRequiredKeywords: []string{"world"}},
			want:    "world test:Hello world.",
			sources: []string{"Hello world."},
		},
		{
			name:    "excluded",
			params:  query.Params{query.ParamExcludeKeywords: []string{"world"}},
			want:    "world test:This is a test.",
			sources: []string{"This is a test."},
		},
		{
			name: "required and excluded",
			params: query.Params{
				query.ParamRequiredKeywords: []string{"test"},
				query.ParamExcludeKeywords:  []string{"This"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := kt.Query(ctx, "world test", query.ModeDefault, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.String())
			var got []string
			for _, sn := range resp.SourceNodes {
				got = append(got, sn.Text)
			}
			assert.Equal(t, tt.sources, got)
		})
	}
}

func TestKeywordTableSimpleExtraction(t *testing.T) {
	ctx := context.Background()
	sc := newTestContext()
	kt, err := BuildKeywordTable(ctx, sc, docs("apple apple orange pear"),
		WithKeywordExtraction(ExtractSimple), WithMaxKeywordsPerChunk(2))
	require.NoError(t, err)
	assert.Zero(t, sc.TotalTokensUsed())
	assert.Equal(t, []string{"apple", "orange"}, kt.Struct().(*data.KeywordTable).Keywords())

	_, err = BuildKeywordTable(ctx, sc, nil, WithKeywordExtraction("magic"))
	assert.Error(t, err)
}

func TestVectorIndices(t *testing.T) {
	ctx := context.Background()
	sc := newTestContext()

	dict, err := BuildDict(ctx, sc, docs(testTexts...))
	require.NoError(t, err)
	vs, err := BuildVectorStore(ctx, sc, docs(testTexts...))
	require.NoError(t, err)

	for _, idx := range []*Vector{dict, vs} {
		resp, err := idx.Query(ctx, "Orange?", query.ModeDefault, nil)
		require.NoError(t, err)
		assert.Equal(t, "Orange?:This is a test.", resp.String())

		resp, err = idx.Query(ctx, "Orange?", query.ModeDefault, query.Params{
			query.ParamRequiredKeywords: []string{"v2"},
		})
		require.NoError(t, err)
		assert.True(t, resp.IsEmpty(), "filters apply after top-k")

		resp, err = idx.Query(ctx, "Orange?", query.ModeDefault, query.Params{
			query.ParamSimilarityTopK:   2,
			query.ParamRequiredKeywords: []string{"v2"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Orange?:This is a test v2.", resp.String())

		_, err = idx.Query(ctx, "Orange?", query.ModeDefault, query.Params{query.ParamSimilarityTopK: 0})
		assert.Error(t, err)
	}

	_, err = BuildVectorStore(ctx, sc, docs("Hello world."), WithVectorStoreName("missing"))
	assert.Error(t, err)

	_, err = BuildDict(ctx, sc, docs("unknown text"))
	assert.Error(t, err)
}

type failingStore struct {
	*vectorstore.Memory
	fail bool
}

func (f *failingStore) Add(ctx context.Context, entries []vectorstore.Entry) error {
	if f.fail {
		return errors.New("store unavailable")
	}
	return f.Memory.Add(ctx, entries)
}

func TestVectorStoreAddFailureKeepsRegistry(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{Memory: vectorstore.NewMemory()}
	sc := newTestContext(service.WithVectorStore("flaky", fs))
	vs, err := BuildVectorStore(ctx, sc, docs("Hello world."), WithVectorStoreName("flaky"))
	require.NoError(t, err)

	fs.fail = true
	err = vs.Insert(ctx, schema.NewDocument("This is a test."))
	require.Error(t, err)
	assert.Equal(t, 1, vs.Struct().Registry().Len())
	assert.Equal(t, 1, fs.Len(vs.Struct().IndexID()))

	fs.fail = false
	resp, err := vs.Query(ctx, "Orange?", query.ModeDefault, query.Params{query.ParamSimilarityTopK: 5})
	require.NoError(t, err)
	assert.Equal(t, "Orange?:Hello world.", resp.String())

	require.NoError(t, vs.Insert(ctx, schema.NewDocument("This is a test.")))
	assert.Equal(t, 2, vs.Struct().Registry().Len())
	resp, err = vs.Query(ctx, "Orange?", query.ModeDefault, nil)
	require.NoError(t, err)
	assert.Equal(t, "Orange?:This is a test.", resp.String())
}

func TestDictAddRejectsBatchWithoutEmbeddings(t *testing.T) {
	ctx := context.Background()
	sc := newTestContext(service.WithEmbedder(&embedding.Fixed{
		Texts: map[string][]float32{"Hello world.": {1, 0}, "empty": {}},
	}))
	dict, err := BuildDict(ctx, sc, docs("Hello world."))
	require.NoError(t, err)

	err = dict.add(ctx, []schema.Node{schema.NewLeaf("", "Hello world."), schema.NewLeaf("", "empty")})
	assert.ErrorIs(t, err, data.ErrInvalidStruct)
	assert.Equal(t, 1, dict.Struct().Registry().Len())
	require.NoError(t, dict.Struct().Validate())
}

func TestVectorStoreReloadNeedsEntries(t *testing.T) {
	ctx := context.Background()
	sc := newTestContext()
	vs, err := BuildVectorStore(ctx, sc, docs(testTexts...))
	require.NoError(t, err)
	env, err := data.Encode(vs.Struct())
	require.NoError(t, err)

	st, err := data.Decode(env)
	require.NoError(t, err)
	_, err = FromStruct(sc, st)
	require.NoError(t, err)

	st, err = data.Decode(env)
	require.NoError(t, err)
	_, err = FromStruct(newTestContext(), st)
	assert.ErrorIs(t, err, vectorstore.ErrMissingEntries)

	st, err = data.Decode(env)
	require.NoError(t, err)
	st.(*data.VectorStore).Store = "missing"
	_, err = FromStruct(sc, st)
	assert.ErrorIs(t, err, service.ErrUnknownVectorStore)

	// stores that cannot count are caught at query time
	st, err = data.Decode(env)
	require.NoError(t, err)
	blind := newTestContext(service.WithVectorStore(service.DefaultVectorStore, uncountedStore{vectorstore.NewMemory()}))
	idx, err := FromStruct(blind, st)
	require.NoError(t, err)
	_, err = idx.Query(ctx, "Orange?", query.ModeDefault, nil)
	assert.ErrorIs(t, err, vectorstore.ErrMissingEntries)
}

type uncountedStore struct {
	m *vectorstore.Memory
}

func (u uncountedStore) Add(ctx context.Context, entries []vectorstore.Entry) error {
	return u.m.Add(ctx, entries)
}

func (u uncountedStore) Query(ctx context.Context, q vectorstore.Query, k int) ([]vectorstore.Match, error) {
	return u.m.Query(ctx, q, k)
}

func (u uncountedStore) Delete(ctx context.Context, namespace string, ids []string) error {
	return u.m.Delete(ctx, namespace, ids)
}

func TestInsert(t *testing.T) {
	ctx := context.Background()
	sc := newTestContext()

	l, err := BuildList(ctx, sc, nil)
	require.NoError(t, err)
	require.NoError(t, l.Insert(ctx, schema.NewDocument("Hello world.")))
	resp, err := l.Query(ctx, "q", query.ModeDefault, nil)
	require.NoError(t, err)
	assert.Equal(t, "q:Hello world.", resp.String())

	kt, err := BuildKeywordTable(ctx, sc, docs("Hello world."))
	require.NoError(t, err)
	require.NoError(t, kt.Insert(ctx, schema.NewDocument("cat dog")))
	resp, err = kt.Query(ctx, "Cat?", query.ModeDefault, nil)
	require.NoError(t, err)
	assert.Equal(t, "Cat?:cat dog", resp.String())

	v, err := BuildDict(ctx, sc, docs("Hello world."))
	require.NoError(t, err)
	require.NoError(t, v.Insert(ctx, schema.NewDocument("cat dog")))
	resp, err = v.Query(ctx, "Cat?", query.ModeDefault, nil)
	require.NoError(t, err)
	assert.Equal(t, "Cat?:cat dog", resp.String())

	tr, err := BuildTree(ctx, sc, docs("Hello world."))
	require.NoError(t, err)
	assert.ErrorIs(t, tr.Insert(ctx, schema.NewDocument("x")), ErrUnsupportedOperation)
}

func TestChildResolver(t *testing.T) {
	ctx := context.Background()
	sc := newTestContext()
	nodes := []schema.Node{
		schema.NewChildRef("", "empty", "summary one"),
		schema.NewChildRef("", "full", "summary two"),
		schema.NewLeaf("", "plain"),
	}
	idx, err := BuildFromNodes(ctx, sc, data.TypeList, nodes)
	require.NoError(t, err)

	var visited []string
	resolve := func(_ context.Context, n schema.Node) (*schema.Response, error) {
		visited = append(visited, n.ChildIndexID)
		if n.ChildIndexID == "empty" {
			return &schema.Response{}, nil
		}
		return &schema.Response{Text: "child answer"}, nil
	}
	resp, err := idx.Query(ctx, "q", query.ModeDefault, nil, WithChildResolver(resolve))
	require.NoError(t, err)
	assert.Equal(t, "q:child answer", resp.String())
	assert.Equal(t, []string{"empty", "full"}, visited)
	require.Len(t, resp.SourceNodes, 2)
	assert.Equal(t, "child answer", resp.SourceNodes[0].Child.Text)

	resp, err = idx.Query(ctx, "q", query.ModeDefault, nil)
	require.NoError(t, err)
	assert.Equal(t, "q:summary one", resp.String(), "without a resolver summaries are folded")

	boom := errors.New("boom")
	_, err = idx.Query(ctx, "q", query.ModeDefault, nil, WithChildResolver(func(context.Context, schema.Node) (*schema.Response, error) {
		return nil, boom
	}))
	assert.ErrorIs(t, err, boom)
}

func TestQueryTemplatesReachSynthesizer(t *testing.T) {
	ctx := context.Background()
	rec := &recordingSynth{Echo: synth.NewEcho(nil)}
	l, err := BuildList(ctx, newTestContext(service.WithSynthesizer(rec)), docs("a", "b"))
	require.NoError(t, err)
	_, err = l.Query(ctx, "q", query.ModeDefault, query.Params{
		query.ParamTextQATemplate: "QA {{.query_str}}",
		query.ParamRefineTemplate: "REFINE",
	})
	require.NoError(t, err)
	require.Len(t, rec.templates, 2)
	assert.Equal(t, "QA {{.query_str}}", rec.templates[0].TextQA)
	assert.Equal(t, "REFINE", rec.templates[1].Refine)
}

func TestFromStruct(t *testing.T) {
	ctx := context.Background()
	sc := newTestContext()
	built, err := BuildKeywordTable(ctx, sc, docs("Hello world."))
	require.NoError(t, err)

	env, err := data.Encode(built.Struct())
	require.NoError(t, err)
	st, err := data.Decode(env)
	require.NoError(t, err)

	idx, err := FromStruct(sc, st)
	require.NoError(t, err)
	resp, err := idx.Query(ctx, "World?", query.ModeDefault, nil)
	require.NoError(t, err)
	assert.Equal(t, "World?:Hello world.", resp.String())

	_, err = FromStruct(sc, data.NewTree(""))
	assert.ErrorIs(t, err, data.ErrInvalidStruct)
}

func TestCancelledQuery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l, err := BuildList(ctx, newTestContext(), docs("a"))
	require.NoError(t, err)
	cancel()
	resp, err := l.Query(ctx, "q", query.ModeDefault, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, resp)
}

package index

import (
	"context"

	"github.com/smallnest/gptindex/data"
	"github.com/smallnest/gptindex/query"
	"github.com/smallnest/gptindex/schema"
	"github.com/smallnest/gptindex/service"
	"github.com/smallnest/gptindex/vectorstore"
)

// List folds every node in insertion order.
type List struct {
	base
	st *data.List
}

var _ Index = (*List)(nil)

func buildList(sc *service.Context, nodes []schema.Node, o buildOptions) (*List, error) {
	st := data.NewList(o.indexID)
	for _, n := range assignIDs(st.Registry(), nodes) {
		if err := st.AddNode(n); err != nil {
			return nil, err
		}
	}
	return &List{base: base{sc: sc}, st: st}, nil
}

// Struct implements Index.
func (l *List) Struct() data.IndexStruct { return l.st }

// Insert implements Index.
func (l *List) Insert(_ context.Context, doc schema.Document) error {
	nodes, err := Chunk(l.sc, []schema.Document{doc})
	if err != nil {
		return err
	}
	for _, n := range assignIDs(l.st.Registry(), nodes) {
		if err := l.st.AddNode(n); err != nil {
			return err
		}
	}
	return nil
}

// Query implements Index. Modes: default folds all nodes, embedding folds the
// similarity_top_k nodes closest to the query.
func (l *List) Query(ctx context.Context, text string, mode query.Mode, params query.Params, opts ...QueryOption) (*schema.Response, error) {
	o := newQueryOptions(opts)
	params = query.Params{query.ParamSimilarityTopK: 1}.Merge(params)
	t, err := queryTemplates(params)
	if err != nil {
		return nil, err
	}

	var picks []scored
	switch mode {
	case query.ModeDefault:
		picks = unscored(l.st.Registry().Nodes())
	case query.ModeEmbedding:
		k, err := positive(params, query.ParamSimilarityTopK, 1)
		if err != nil {
			return nil, err
		}
		picks, err = l.rankNodes(ctx, text, l.st.Registry().Nodes(), k)
		if err != nil {
			return nil, err
		}
	default:
		return nil, &ModeError{Type: data.TypeList, Mode: mode}
	}

	picks, err = filterKeywords(picks, params)
	if err != nil {
		return nil, err
	}
	l.sc.Logger().Debug("list %s: folding %d of %d nodes", l.st.IndexID(), len(picks), l.st.Registry().Len())
	return l.fold(ctx, l.st.IndexID(), text, picks, t, o)
}

// rankNodes returns the k nodes most similar to text. Node embeddings are taken from
// the nodes when present and computed otherwise; computed vectors are not stored.
func (b base) rankNodes(ctx context.Context, text string, nodes []schema.Node, k int) ([]scored, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	q, err := b.sc.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	vecs, err := b.nodeEmbeddings(ctx, nodes)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(nodes))
	byID := make(map[string]schema.Node, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
		byID[n.ID] = n
	}
	matches, err := vectorstore.Rank(q, ids, vecs, k)
	if err != nil {
		return nil, err
	}
	picks := make([]scored, len(matches))
	for i, m := range matches {
		picks[i] = scored{node: byID[m.ID], score: m.Score}
	}
	return picks, nil
}

func (b base) nodeEmbeddings(ctx context.Context, nodes []schema.Node) ([][]float32, error) {
	vecs := make([][]float32, len(nodes))
	var missing []int
	var missingTexts []string
	for i, n := range nodes {
		if len(n.Embedding) > 0 {
			vecs[i] = n.Embedding
			continue
		}
		missing = append(missing, i)
		missingTexts = append(missingTexts, n.Text)
	}
	if len(missing) == 0 {
		return vecs, nil
	}
	computed, err := b.sc.EmbedTexts(ctx, missingTexts)
	if err != nil {
		return nil, err
	}
	for j, i := range missing {
		vecs[i] = computed[j]
	}
	return vecs, nil
}

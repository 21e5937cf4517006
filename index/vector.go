package index

import (
	"context"
	"fmt"

	"github.com/smallnest/gptindex/data"
	"github.com/smallnest/gptindex/query"
	"github.com/smallnest/gptindex/schema"
	"github.com/smallnest/gptindex/service"
	"github.com/smallnest/gptindex/vectorstore"
)

// Vector answers from the similarity_top_k nodes closest to the query. Exactly one of
// dict and store is set: dict keeps embeddings in the struct, store names a service
// vector store holding them.
type Vector struct {
	base
	dict  *data.Dict
	store *data.VectorStore
}

var _ Index = (*Vector)(nil)

func buildDict(ctx context.Context, sc *service.Context, nodes []schema.Node, o buildOptions) (*Vector, error) {
	v := &Vector{base: base{sc: sc}, dict: data.NewDict(o.indexID)}
	if err := v.add(ctx, nodes); err != nil {
		return nil, err
	}
	return v, nil
}

func buildVectorStore(ctx context.Context, sc *service.Context, nodes []schema.Node, o buildOptions) (*Vector, error) {
	if _, err := sc.VectorStore(o.vectorStore); err != nil {
		return nil, err
	}
	v := &Vector{base: base{sc: sc}, store: data.NewVectorStore(o.indexID, o.vectorStore)}
	if err := v.add(ctx, nodes); err != nil {
		return nil, err
	}
	return v, nil
}

// Struct implements Index.
func (v *Vector) Struct() data.IndexStruct {
	if v.dict != nil {
		return v.dict
	}
	return v.store
}

func (v *Vector) add(ctx context.Context, nodes []schema.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	reg := v.Struct().Registry()
	nodes = assignIDs(reg, nodes)
	seen := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if _, dup := seen[n.ID]; dup || reg.Has(n.ID) {
			return fmt.Errorf("%w: %s", data.ErrDuplicateNode, n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	vecs, err := v.sc.EmbedTexts(ctx, texts(nodes))
	if err != nil {
		return err
	}
	for i, n := range nodes {
		if len(vecs[i]) == 0 {
			return fmt.Errorf("%w: node %s has no embedding", data.ErrInvalidStruct, n.ID)
		}
	}
	if v.dict != nil {
		for i, n := range nodes {
			if err := v.dict.AddNode(n, vecs[i]); err != nil {
				return err
			}
		}
		return nil
	}

	store, err := v.sc.VectorStore(v.store.Store)
	if err != nil {
		return err
	}
	entries := make([]vectorstore.Entry, len(nodes))
	for i, n := range nodes {
		entries[i] = vectorstore.Entry{Namespace: v.store.Namespace, ID: n.ID, Text: n.Text, Embedding: vecs[i]}
	}
	if err := store.Add(ctx, entries); err != nil {
		return fmt.Errorf("%s: %w", v.store.IndexID(), err)
	}
	for _, n := range nodes {
		if err := reg.AddNode(n, false); err != nil {
			return err
		}
	}
	return nil
}

// checkStore fails when the store of a loaded index is not registered, or when it
// can count its entries and holds fewer than the index has nodes.
func checkStore(sc *service.Context, st *data.VectorStore) error {
	store, err := sc.VectorStore(st.Store)
	if err != nil {
		return err
	}
	c, ok := store.(vectorstore.Counter)
	if !ok {
		return nil
	}
	if have, want := c.Len(st.Namespace), st.Registry().Len(); have < want {
		return fmt.Errorf("%w: index %s has %d nodes, store %q holds %d", vectorstore.ErrMissingEntries, st.IndexID(), want, st.Store, have)
	}
	return nil
}

// Insert implements Index.
func (v *Vector) Insert(ctx context.Context, doc schema.Document) error {
	nodes, err := Chunk(v.sc, []schema.Document{doc})
	if err != nil {
		return err
	}
	return v.add(ctx, nodes)
}

// Query implements Index. The only mode is default; required and excluded keywords
// filter the ranked nodes.
func (v *Vector) Query(ctx context.Context, text string, mode query.Mode, params query.Params, opts ...QueryOption) (*schema.Response, error) {
	st := v.Struct()
	if mode != query.ModeDefault {
		return nil, &ModeError{Type: st.Type(), Mode: mode}
	}
	o := newQueryOptions(opts)
	params = query.Params{query.ParamSimilarityTopK: 1}.Merge(params)
	tmpl, err := queryTemplates(params)
	if err != nil {
		return nil, err
	}
	k, err := positive(params, query.ParamSimilarityTopK, 1)
	if err != nil {
		return nil, err
	}

	var picks []scored
	if st.Registry().Len() > 0 {
		if picks, err = v.nearest(ctx, text, k); err != nil {
			return nil, err
		}
	}
	picks, err = filterKeywords(picks, params)
	if err != nil {
		return nil, err
	}
	v.sc.Logger().Debug("%s %s: folding %d nearest nodes", st.Type(), st.IndexID(), len(picks))
	return v.fold(ctx, st.IndexID(), text, picks, tmpl, o)
}

func (v *Vector) nearest(ctx context.Context, text string, k int) ([]scored, error) {
	q, err := v.sc.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	var matches []vectorstore.Match
	if v.dict != nil {
		ids := v.dict.Registry().IDs()
		vecs := make([][]float32, len(ids))
		for i, id := range ids {
			vecs[i], _ = v.dict.Embedding(id)
		}
		matches, err = vectorstore.Rank(q, ids, vecs, k)
	} else {
		var store vectorstore.Store
		if store, err = v.sc.VectorStore(v.store.Store); err != nil {
			return nil, err
		}
		matches, err = store.Query(ctx, vectorstore.Query{Namespace: v.store.Namespace, Text: text, Embedding: q}, k)
		if err == nil && len(matches) == 0 {
			err = fmt.Errorf("%w: store %q has nothing for index %s", vectorstore.ErrMissingEntries, v.store.Store, v.store.IndexID())
		}
	}
	if err != nil {
		return nil, err
	}

	picks := make([]scored, 0, len(matches))
	for _, m := range matches {
		n, ok := v.Struct().Registry().Node(m.ID)
		if !ok {
			return nil, fmt.Errorf("%s: store returned %s: %w", v.Struct().IndexID(), m.ID, data.ErrNodeNotFound)
		}
		picks = append(picks, scored{node: n, score: m.Score})
	}
	return picks, nil
}

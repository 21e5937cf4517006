package index

import (
	"context"
	"slices"

	"github.com/smallnest/gptindex/data"
	"github.com/smallnest/gptindex/keyword"
	"github.com/smallnest/gptindex/query"
	"github.com/smallnest/gptindex/schema"
	"github.com/smallnest/gptindex/service"
)

// Query defaults of a keyword table.
const (
	DefaultNumChunksPerQuery   = 10
	DefaultMaxKeywordsPerQuery = 10
)

// KeywordTable tags nodes with keywords and answers from the nodes sharing the most
// keywords with the query.
type KeywordTable struct {
	base
	st   *data.KeywordTable
	opts buildOptions
}

var _ Index = (*KeywordTable)(nil)

func buildKeywordTable(ctx context.Context, sc *service.Context, nodes []schema.Node, o buildOptions) (*KeywordTable, error) {
	k := &KeywordTable{base: base{sc: sc}, st: data.NewKeywordTable(o.indexID), opts: o}
	if err := k.add(ctx, nodes); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *KeywordTable) add(ctx context.Context, nodes []schema.Node) error {
	for _, n := range assignIDs(k.st.Registry(), nodes) {
		kws, err := k.extract(ctx, n.Text)
		if err != nil {
			return err
		}
		if err := k.st.Registry().AddNode(n, false); err != nil {
			return err
		}
		if err := k.st.AddKeywords(n.ID, kws); err != nil {
			return err
		}
	}
	return nil
}

func (k *KeywordTable) extract(ctx context.Context, text string) ([]string, error) {
	if k.opts.extraction == ExtractSimple {
		return keyword.Simple(text, k.opts.maxKeywordsPerChunk), nil
	}
	kws, err := k.sc.ExtractKeywords(ctx, text, k.opts.maxKeywordsPerChunk, k.opts.templates)
	if err != nil {
		return nil, err
	}
	if len(kws) > k.opts.maxKeywordsPerChunk {
		kws = kws[:k.opts.maxKeywordsPerChunk]
	}
	return kws, nil
}

// Struct implements Index.
func (k *KeywordTable) Struct() data.IndexStruct { return k.st }

// Insert implements Index.
func (k *KeywordTable) Insert(ctx context.Context, doc schema.Document) error {
	nodes, err := Chunk(k.sc, []schema.Document{doc})
	if err != nil {
		return err
	}
	return k.add(ctx, nodes)
}

// Query implements Index. Modes: default extracts the query keywords with the
// synthesizer, simple with keyword.Simple.
func (k *KeywordTable) Query(ctx context.Context, text string, mode query.Mode, params query.Params, opts ...QueryOption) (*schema.Response, error) {
	o := newQueryOptions(opts)
	params = query.Params{
		query.ParamNumChunksPerQuery:   DefaultNumChunksPerQuery,
		query.ParamMaxKeywordsPerQuery: DefaultMaxKeywordsPerQuery,
	}.Merge(params)
	tmpl, err := queryTemplates(params)
	if err != nil {
		return nil, err
	}
	maxKeywords, err := positive(params, query.ParamMaxKeywordsPerQuery, DefaultMaxKeywordsPerQuery)
	if err != nil {
		return nil, err
	}
	numChunks, err := positive(params, query.ParamNumChunksPerQuery, DefaultNumChunksPerQuery)
	if err != nil {
		return nil, err
	}

	var kws []string
	switch mode {
	case query.ModeDefault:
		if kws, err = k.sc.ExtractKeywords(ctx, text, maxKeywords, tmpl); err != nil {
			return nil, err
		}
	case query.ModeSimple:
		kws = keyword.Simple(text, maxKeywords)
	default:
		return nil, &ModeError{Type: data.TypeKeywordTable, Mode: mode}
	}

	picks, err := filterKeywords(unscored(k.candidates(kws, numChunks)), params)
	if err != nil {
		return nil, err
	}
	k.sc.Logger().Debug("keyword table %s: keywords %v matched %d nodes", k.st.IndexID(), kws, len(picks))
	return k.fold(ctx, k.st.IndexID(), text, picks, tmpl, o)
}

// candidates returns up to limit nodes tagged with any of kws, those matching more
// keywords first and ties in insertion order.
func (k *KeywordTable) candidates(kws []string, limit int) []schema.Node {
	counts := make(map[string]int)
	seen := make(map[string]struct{}, len(kws))
	for _, kw := range kws {
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		for _, id := range k.st.NodeIDs(kw) {
			counts[id]++
		}
	}
	var nodes []schema.Node
	for _, n := range k.st.Registry().Nodes() {
		if counts[n.ID] > 0 {
			nodes = append(nodes, n)
		}
	}
	slices.SortStableFunc(nodes, func(a, b schema.Node) int {
		return counts[b.ID] - counts[a.ID]
	})
	if len(nodes) > limit {
		nodes = nodes[:limit]
	}
	return nodes
}

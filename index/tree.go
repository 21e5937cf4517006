package index

import (
	"context"
	"fmt"

	"github.com/smallnest/gptindex/data"
	"github.com/smallnest/gptindex/query"
	"github.com/smallnest/gptindex/schema"
	"github.com/smallnest/gptindex/service"
	"github.com/smallnest/gptindex/synth"
)

// Tree summarizes groups of nodes level by level and answers by descending from the
// roots to the leaves most relevant to the query.
type Tree struct {
	base
	st *data.Tree
}

var _ Index = (*Tree)(nil)

func buildTree(ctx context.Context, sc *service.Context, nodes []schema.Node, o buildOptions) (*Tree, error) {
	if len(nodes) == 0 {
		return nil, ErrEmptyDocuments
	}
	st := data.NewTree(o.indexID)
	level := make([]string, 0, len(nodes))
	for _, n := range assignIDs(st.Registry(), nodes) {
		if err := st.AddNode(n, ""); err != nil {
			return nil, err
		}
		level = append(level, n.ID)
	}
	for depth := 1; len(level) > o.numChildren; depth++ {
		next := make([]string, 0, (len(level)+o.numChildren-1)/o.numChildren)
		for start := 0; start < len(level); start += o.numChildren {
			group := level[start:min(start+o.numChildren, len(level))]
			children, err := st.Registry().GetNodes(group)
			if err != nil {
				return nil, err
			}
			summary, err := sc.Summarize(ctx, texts(children), o.templates)
			if err != nil {
				return nil, err
			}
			parent := schema.NewLeaf(st.Registry().NextID(), summary)
			if err := st.AddNode(parent, ""); err != nil {
				return nil, err
			}
			if err := st.SetChildren(parent.ID, group); err != nil {
				return nil, err
			}
			next = append(next, parent.ID)
		}
		sc.Logger().Debug("tree %s: level %d has %d summaries", o.indexID, depth, len(next))
		level = next
	}
	st.RootIDs = level
	return &Tree{base: base{sc: sc}, st: st}, nil
}

// Struct implements Index.
func (t *Tree) Struct() data.IndexStruct { return t.st }

// Insert implements Index. Trees are rebuilt rather than extended.
func (t *Tree) Insert(context.Context, schema.Document) error {
	return fmt.Errorf("%w: insert into tree", ErrUnsupportedOperation)
}

// Query implements Index. Modes: default lets the synthesizer choose
// child_branch_factor children per level, embedding chooses them by similarity and
// retrieve folds the roots without descending.
func (t *Tree) Query(ctx context.Context, text string, mode query.Mode, params query.Params, opts ...QueryOption) (*schema.Response, error) {
	o := newQueryOptions(opts)
	params = query.Params{query.ParamChildBranchFactor: 1}.Merge(params)
	tmpl, err := queryTemplates(params)
	if err != nil {
		return nil, err
	}
	branch, err := positive(params, query.ParamChildBranchFactor, 1)
	if err != nil {
		return nil, err
	}
	roots, err := t.st.Roots()
	if err != nil {
		return nil, err
	}

	var picks []scored
	switch mode {
	case query.ModeDefault, query.ModeEmbedding:
		picks, err = t.descend(ctx, text, roots, branch, mode, tmpl, 0)
		if err != nil {
			return nil, err
		}
	case query.ModeRetrieve:
		picks = unscored(roots)
	default:
		return nil, &ModeError{Type: data.TypeTree, Mode: mode}
	}

	picks, err = filterKeywords(picks, params)
	if err != nil {
		return nil, err
	}
	return t.fold(ctx, t.st.IndexID(), text, picks, tmpl, o)
}

// descend chooses up to branch candidates and returns the leaves reached below them,
// depth first in choice order. Choosing is skipped when there are no more candidates
// than branch.
func (t *Tree) descend(ctx context.Context, text string, candidates []schema.Node, branch int, mode query.Mode, tmpl synth.Templates, level int) ([]scored, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	chosen := unscored(candidates)
	if len(candidates) > branch {
		var err error
		if chosen, err = t.choose(ctx, text, candidates, branch, mode, tmpl); err != nil {
			return nil, err
		}
	}
	t.sc.Logger().Debug("tree %s: level %d chose %d of %d", t.st.IndexID(), level, len(chosen), len(candidates))

	var leaves []scored
	for _, c := range chosen {
		if t.st.IsLeaf(c.node.ID) {
			leaves = append(leaves, c)
			continue
		}
		children, err := t.st.Registry().GetNodes(t.st.ChildrenOf(c.node.ID))
		if err != nil {
			return nil, err
		}
		below, err := t.descend(ctx, text, children, branch, mode, tmpl, level+1)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, below...)
	}
	return leaves, nil
}

func (t *Tree) choose(ctx context.Context, text string, candidates []schema.Node, branch int, mode query.Mode, tmpl synth.Templates) ([]scored, error) {
	if mode == query.ModeEmbedding {
		return t.rankNodes(ctx, text, candidates, branch)
	}
	indices, err := t.sc.ChooseChildren(ctx, text, texts(candidates), branch, tmpl)
	if err != nil {
		return nil, err
	}
	chosen := make([]scored, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(candidates) {
			return nil, fmt.Errorf("tree %s: choice %d out of %d candidates", t.st.IndexID(), i, len(candidates))
		}
		chosen = append(chosen, scored{node: candidates[i]})
		if len(chosen) == branch {
			break
		}
	}
	return chosen, nil
}

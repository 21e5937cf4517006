package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallnest/gptindex/query"
	"github.com/smallnest/gptindex/schema"
	"github.com/smallnest/gptindex/synth"
)

// scored is a node picked by an engine, with its similarity when the engine ranks.
type scored struct {
	node  schema.Node
	score float64
}

func unscored(nodes []schema.Node) []scored {
	out := make([]scored, len(nodes))
	for i, n := range nodes {
		out[i] = scored{node: n}
	}
	return out
}

// fold synthesizes the answer over picks in order. The first contributing node is
// answered without a prior; each later one refines the running answer. A child
// reference is replaced by its resolved answer, and a child with an empty answer
// contributes nothing.
func (b base) fold(ctx context.Context, indexID, text string, picks []scored, t synth.Templates, o queryOptions) (*schema.Response, error) {
	resp := &schema.Response{}
	var prior *string
	for _, p := range picks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src := schema.SourceNode{NodeID: p.node.ID, IndexID: indexID, Text: p.node.Text, Score: p.score}
		chunk := p.node.Text
		if p.node.IsChildRef() && o.resolve != nil {
			child, err := o.resolve(ctx, p.node)
			if err != nil {
				return nil, err
			}
			if child.IsEmpty() {
				b.sc.Logger().Debug("index %s: child %s answered nothing", indexID, p.node.ChildIndexID)
				continue
			}
			src.Child = child
			chunk = child.Text
		}
		answer, err := b.sc.Synthesize(ctx, text, prior, chunk, t)
		if err != nil {
			return nil, err
		}
		prior = &answer
		resp.SourceNodes = append(resp.SourceNodes, src)
	}
	if prior != nil {
		resp.Text = *prior
	}
	return resp, nil
}

// filterKeywords keeps the picks whose text holds every required keyword and none of
// the excluded ones. Matching is case sensitive.
func filterKeywords(picks []scored, params query.Params) ([]scored, error) {
	required, err := params.Strings(query.ParamRequiredKeywords)
	if err != nil {
		return nil, err
	}
	excluded, err := params.Strings(query.ParamExcludeKeywords)
	if err != nil {
		return nil, err
	}
	if len(required) == 0 && len(excluded) == 0 {
		return picks, nil
	}
	out := make([]scored, 0, len(picks))
	for _, p := range picks {
		if containsAll(p.node.Text, required) && !containsAny(p.node.Text, excluded) {
			out = append(out, p)
		}
	}
	return out, nil
}

func containsAll(text string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return true
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// queryTemplates reads the prompt overrides from params.
func queryTemplates(params query.Params) (synth.Templates, error) {
	var t synth.Templates
	var err error
	if t.TextQA, err = params.String(query.ParamTextQATemplate, ""); err != nil {
		return t, err
	}
	if t.Refine, err = params.String(query.ParamRefineTemplate, ""); err != nil {
		return t, err
	}
	if t.Query, err = params.String(query.ParamQueryTemplate, ""); err != nil {
		return t, err
	}
	if t.KeywordExtract, err = params.String(query.ParamKeywordTemplate, synth.DefaultQueryKeywordExtractTemplate); err != nil {
		return t, err
	}
	return t, nil
}

func positive(params query.Params, key string, def int) (int, error) {
	n, err := params.Int(key, def)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("param %s must be positive, got %d", key, n)
	}
	return n, nil
}

package query

import (
	"fmt"
	"math"
)

// Well-known parameter keys.
const (
	ParamSimilarityTopK      = "similarity_top_k"
	ParamChildBranchFactor   = "child_branch_factor"
	ParamNumChunksPerQuery   = "num_chunks_per_query"
	ParamMaxKeywordsPerQuery = "max_keywords_per_query"
	ParamRequiredKeywords    = "required_keywords"
	ParamExcludeKeywords     = "exclude_keywords"
	ParamTextQATemplate      = "text_qa_template"
	ParamRefineTemplate      = "refine_template"
	ParamQueryTemplate       = "query_template"
	ParamKeywordTemplate     = "query_keyword_extract_template"
)

// Params are engine parameters. Values decoded from JSON or YAML may be float64, int
// or []any; the accessors accept all of them.
type Params map[string]any

// Merge returns p overlaid with over. Neither input is modified.
func (p Params) Merge(over Params) Params {
	out := make(Params, len(p)+len(over))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// Int returns the integer under key, or def when absent.
func (p Params) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("param %s: %v is not an integer", key, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("param %s: want integer, got %T", key, v)
	}
}

// String returns the string under key, or def when absent or empty.
func (p Params) String(key, def string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("param %s: want string, got %T", key, v)
	}
	if s == "" {
		return def, nil
	}
	return s, nil
}

// Strings returns the string list under key.
func (p Params) Strings(key string) ([]string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch l := v.(type) {
	case []string:
		return l, nil
	case []any:
		out := make([]string, len(l))
		for i, e := range l {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("param %s[%d]: want string, got %T", key, i, e)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("param %s: want string list, got %T", key, v)
	}
}

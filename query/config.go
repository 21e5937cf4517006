// Package query describes how each index of a graph is queried: the mode and the
// parameters chosen per index id or per index type.
package query

import (
	"errors"
	"fmt"

	"github.com/smallnest/gptindex/data"
)

// Mode selects a query engine of an index.
type Mode string

const (
	// ModeDefault is every index's primary engine.
	ModeDefault Mode = "default"
	// ModeEmbedding ranks nodes by embedding similarity (list, tree).
	ModeEmbedding Mode = "embedding"
	// ModeRetrieve folds the tree roots without descending.
	ModeRetrieve Mode = "retrieve"
	// ModeSimple extracts query keywords with the regex rule instead of the model.
	ModeSimple Mode = "simple"
)

// ErrAmbiguousConfig is returned when two rules name the same index id.
var ErrAmbiguousConfig = errors.New("query: more than one config for index id")

// Config is one query rule. A rule with IndexID applies to that index only; a rule
// without applies to every index of IndexType.
type Config struct {
	IndexType data.Type `json:"index_type" yaml:"index_type" validate:"required"`
	IndexID   string    `json:"index_id,omitempty" yaml:"index_id,omitempty"`
	Mode      Mode      `json:"mode,omitempty" yaml:"mode,omitempty"`
	Params    Params    `json:"params,omitempty" yaml:"params,omitempty"`
}

func (c Config) mode() Mode {
	if c.Mode == "" {
		return ModeDefault
	}
	return c.Mode
}

// Resolve picks the mode and params for s: the first rule naming its id, else the
// first id-less rule for its type, else the default mode with no params.
func Resolve(configs []Config, s data.IndexStruct) (Mode, Params) {
	for _, c := range configs {
		if c.IndexID != "" && c.IndexID == s.IndexID() {
			return c.mode(), c.Params
		}
	}
	for _, c := range configs {
		if c.IndexID == "" && c.IndexType == s.Type() {
			return c.mode(), c.Params
		}
	}
	return ModeDefault, nil
}

// Validate reports rules that Resolve would silently shadow: two rules for the same
// index id.
func Validate(configs []Config) error {
	seen := make(map[string]int, len(configs))
	for i, c := range configs {
		if c.IndexType == "" {
			return fmt.Errorf("query: config %d has no index type", i)
		}
		if c.IndexID == "" {
			continue
		}
		if j, ok := seen[c.IndexID]; ok {
			return fmt.Errorf("%w: %q in configs %d and %d", ErrAmbiguousConfig, c.IndexID, j, i)
		}
		seen[c.IndexID] = i
	}
	return nil
}

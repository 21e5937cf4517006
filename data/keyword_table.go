package data

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/tidwall/btree"
)

// KeywordTable is the struct of a keyword-table index: a sorted mapping from
// keyword to the ids of the nodes tagged with it.
type KeywordTable struct {
	base
	table btree.Map[string, []string]
}

// NewKeywordTable creates an empty keyword table struct.
func NewKeywordTable(id string) *KeywordTable {
	return &KeywordTable{base: newBase(id)}
}

// Type implements IndexStruct.
func (k *KeywordTable) Type() Type { return TypeKeywordTable }

// AddKeywords tags nodeID with keywords. The node must already be registered.
func (k *KeywordTable) AddKeywords(nodeID string, keywords []string) error {
	if err := k.requireNodes(nodeID); err != nil {
		return err
	}
	for _, kw := range keywords {
		ids, _ := k.table.Get(kw)
		if slices.Contains(ids, nodeID) {
			continue
		}
		k.table.Set(kw, append(slices.Clone(ids), nodeID))
	}
	return nil
}

// NodeIDs returns the ids tagged with keyword, in tagging order.
func (k *KeywordTable) NodeIDs(keyword string) []string {
	ids, _ := k.table.Get(keyword)
	return ids
}

// Keywords returns every keyword in sorted order.
func (k *KeywordTable) Keywords() []string {
	return k.table.Keys()
}

// KeywordsOf returns the sorted keywords tagging nodeID.
func (k *KeywordTable) KeywordsOf(nodeID string) []string {
	var kws []string
	k.table.Scan(func(kw string, ids []string) bool {
		if slices.Contains(ids, nodeID) {
			kws = append(kws, kw)
		}
		return true
	})
	return kws
}

// Len returns the number of keywords.
func (k *KeywordTable) Len() int {
	return k.table.Len()
}

// Validate implements IndexStruct.
func (k *KeywordTable) Validate() error {
	if err := k.validateBase(); err != nil {
		return err
	}
	var err error
	k.table.Scan(func(kw string, ids []string) bool {
		if e := k.requireNodes(ids...); e != nil {
			err = fmt.Errorf("keyword %q: %w", kw, e)
			return false
		}
		return true
	})
	return err
}

type keywordTableJSON struct {
	ID    string              `json:"index_id"`
	Nodes *NodeRegistry       `json:"nodes"`
	Table map[string][]string `json:"table"`
}

// MarshalJSON implements json.Marshaler.
func (k *KeywordTable) MarshalJSON() ([]byte, error) {
	out := keywordTableJSON{
		ID:    k.ID,
		Nodes: k.Registry(),
		Table: make(map[string][]string, k.table.Len()),
	}
	k.table.Scan(func(kw string, ids []string) bool {
		out.Table[kw] = ids
		return true
	})
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (k *KeywordTable) UnmarshalJSON(b []byte) error {
	var in keywordTableJSON
	if err := decodeStrict(b, &in); err != nil {
		return err
	}
	k.base = base{ID: in.ID, Nodes: in.Nodes}
	k.table = btree.Map[string, []string]{}
	for kw, ids := range in.Table {
		k.table.Set(kw, ids)
	}
	return nil
}

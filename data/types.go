package data

import (
	"fmt"

	"github.com/smallnest/gptindex/schema"
)

// Type is the structural type tag of an index.
type Type string

const (
	TypeList         Type = "list"
	TypeTree         Type = "tree"
	TypeKeywordTable Type = "keyword_table"
	// TypeDict is a vector index keeping embeddings inside the struct.
	TypeDict Type = "dict"
	// TypeVectorStore is a vector index whose embeddings live in an external store.
	TypeVectorStore Type = "vector_store"
)

// IndexStruct is the persistent state of one index.
type IndexStruct interface {
	IndexID() string
	SetIndexID(id string)
	Type() Type
	Registry() *NodeRegistry
	// Validate checks that every id referenced by auxiliary structures is registered.
	Validate() error
}

type base struct {
	ID    string        `json:"index_id"`
	Nodes *NodeRegistry `json:"nodes"`
}

func newBase(id string) base {
	return base{ID: id, Nodes: NewNodeRegistry()}
}

// IndexID returns the index identifier.
func (b *base) IndexID() string { return b.ID }

// SetIndexID replaces the index identifier.
func (b *base) SetIndexID(id string) { b.ID = id }

// Registry returns the node registry.
func (b *base) Registry() *NodeRegistry {
	if b.Nodes == nil {
		b.Nodes = NewNodeRegistry()
	}
	return b.Nodes
}

func (b *base) validateBase() error {
	if b.ID == "" {
		return fmt.Errorf("%w: empty index id", ErrInvalidStruct)
	}
	for _, n := range b.Registry().Nodes() {
		if n.IsChildRef() && n.ChildIndexID == "" {
			return fmt.Errorf("%w: child ref node %s has no index id", ErrInvalidStruct, n.ID)
		}
	}
	return nil
}

func (b *base) requireNodes(ids ...string) error {
	for _, id := range ids {
		if !b.Registry().Has(id) {
			return fmt.Errorf("%w: index %s references %s: %w", ErrInvalidStruct, b.ID, id, ErrNodeNotFound)
		}
	}
	return nil
}

// List is the struct of a list index: just the ordered registry.
type List struct {
	base
}

// NewList creates an empty list struct.
func NewList(id string) *List {
	return &List{base: newBase(id)}
}

// Type implements IndexStruct.
func (l *List) Type() Type { return TypeList }

// Validate implements IndexStruct.
func (l *List) Validate() error { return l.validateBase() }

// AddNode appends a node.
func (l *List) AddNode(n schema.Node) error {
	return l.Registry().AddNode(n, false)
}

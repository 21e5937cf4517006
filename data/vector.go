package data

import (
	"fmt"

	"github.com/smallnest/gptindex/schema"
)

// Dict is the struct of a simple vector index: embeddings are stored by node id
// next to the nodes themselves.
type Dict struct {
	base
	Embeddings map[string][]float32 `json:"embeddings"`
}

// NewDict creates an empty dict struct.
func NewDict(id string) *Dict {
	return &Dict{base: newBase(id), Embeddings: make(map[string][]float32)}
}

// Type implements IndexStruct.
func (d *Dict) Type() Type { return TypeDict }

// AddNode registers n with its embedding.
func (d *Dict) AddNode(n schema.Node, embedding []float32) error {
	if len(embedding) == 0 {
		return fmt.Errorf("%w: node %s has no embedding", ErrInvalidStruct, n.ID)
	}
	if err := d.Registry().AddNode(n, false); err != nil {
		return err
	}
	if d.Embeddings == nil {
		d.Embeddings = make(map[string][]float32)
	}
	d.Embeddings[n.ID] = embedding
	return nil
}

// Embedding returns the stored embedding of a node.
func (d *Dict) Embedding(id string) ([]float32, bool) {
	e, ok := d.Embeddings[id]
	return e, ok
}

// Validate implements IndexStruct.
func (d *Dict) Validate() error {
	if err := d.validateBase(); err != nil {
		return err
	}
	for id := range d.Embeddings {
		if err := d.requireNodes(id); err != nil {
			return err
		}
	}
	for _, id := range d.Registry().IDs() {
		if _, ok := d.Embeddings[id]; !ok {
			return fmt.Errorf("%w: node %s has no embedding", ErrInvalidStruct, id)
		}
	}
	return nil
}

// VectorStore is the struct of a vector index backed by an external store. Only the
// nodes are persisted here; Store names the store the embeddings were written to and
// Namespace the partition of that store holding them.
type VectorStore struct {
	base
	Store     string `json:"store"`
	Namespace string `json:"namespace"`
}

// NewVectorStore creates an empty vector store struct whose namespace is its id.
func NewVectorStore(id, store string) *VectorStore {
	return &VectorStore{base: newBase(id), Store: store, Namespace: id}
}

// Type implements IndexStruct.
func (v *VectorStore) Type() Type { return TypeVectorStore }

// Validate implements IndexStruct.
func (v *VectorStore) Validate() error {
	if err := v.validateBase(); err != nil {
		return err
	}
	if v.Store == "" || v.Namespace == "" {
		return fmt.Errorf("%w: vector store index %s names no store", ErrInvalidStruct, v.ID)
	}
	return nil
}

package data

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/smallnest/gptindex/schema"
)

// NodeRegistry holds the nodes of one index in insertion order.
type NodeRegistry struct {
	order []string
	nodes map[string]schema.Node
	next  int
}

// NewNodeRegistry creates an empty registry.
func NewNodeRegistry() *NodeRegistry {
	return &NodeRegistry{nodes: make(map[string]schema.Node)}
}

// AddNode inserts node. An existing id is an ErrDuplicateNode unless upsert is set,
// in which case the stored node is replaced in place.
func (r *NodeRegistry) AddNode(node schema.Node, upsert bool) error {
	if node.ID == "" {
		return fmt.Errorf("%w: node has no id", ErrInvalidStruct)
	}
	if _, ok := r.nodes[node.ID]; ok {
		if !upsert {
			return fmt.Errorf("%w: %s", ErrDuplicateNode, node.ID)
		}
		r.nodes[node.ID] = node
		return nil
	}
	r.order = append(r.order, node.ID)
	r.nodes[node.ID] = node
	return nil
}

// GetNodes returns the nodes for ids in the given order.
func (r *NodeRegistry) GetNodes(ids []string) ([]schema.Node, error) {
	result := make([]schema.Node, 0, len(ids))
	for _, id := range ids {
		n, ok := r.nodes[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
		}
		result = append(result, n)
	}
	return result, nil
}

// Node returns a single node.
func (r *NodeRegistry) Node(id string) (schema.Node, bool) {
	n, ok := r.nodes[id]
	return n, ok
}

// Has reports whether id is registered.
func (r *NodeRegistry) Has(id string) bool {
	_, ok := r.nodes[id]
	return ok
}

// IDs returns node ids in insertion order.
func (r *NodeRegistry) IDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Nodes returns all nodes in insertion order.
func (r *NodeRegistry) Nodes() []schema.Node {
	result := make([]schema.Node, len(r.order))
	for i, id := range r.order {
		result[i] = r.nodes[id]
	}
	return result
}

// Len returns the number of nodes.
func (r *NodeRegistry) Len() int {
	return len(r.order)
}

// NextID returns an unused sequential node id.
func (r *NodeRegistry) NextID() string {
	for {
		id := strconv.Itoa(r.next)
		r.next++
		if _, ok := r.nodes[id]; !ok {
			return id
		}
	}
}

// ChildIndexIDs returns the index ids referenced by child-ref nodes, in node order.
func (r *NodeRegistry) ChildIndexIDs() []string {
	var ids []string
	for _, id := range r.order {
		if n := r.nodes[id]; n.IsChildRef() {
			ids = append(ids, n.ChildIndexID)
		}
	}
	return ids
}

// MarshalJSON encodes the registry as an ordered node list.
func (r *NodeRegistry) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.Nodes())
}

// UnmarshalJSON rebuilds the registry from an ordered node list.
func (r *NodeRegistry) UnmarshalJSON(b []byte) error {
	var nodes []schema.Node
	if err := decodeStrict(b, &nodes); err != nil {
		return err
	}
	fresh := NewNodeRegistry()
	for _, n := range nodes {
		if err := fresh.AddNode(n, false); err != nil {
			return err
		}
	}
	*r = *fresh
	return nil
}

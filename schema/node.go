package schema

import (
	"encoding/json"
	"fmt"
)

// NodeKind tells a plain text node apart from a proxy for a nested index.
type NodeKind int

const (
	// KindLeaf is a node carrying its own text.
	KindLeaf NodeKind = iota
	// KindChildRef is a node standing in for another index of a graph; its text is
	// the summary of that index.
	KindChildRef
)

// String returns the wire name of the kind.
func (k NodeKind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindChildRef:
		return "child_ref"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// MarshalJSON encodes the kind by name.
func (k NodeKind) MarshalJSON() ([]byte, error) {
	switch k {
	case KindLeaf, KindChildRef:
		return json.Marshal(k.String())
	default:
		return nil, fmt.Errorf("invalid node kind %d", int(k))
	}
}

// UnmarshalJSON decodes a kind name.
func (k *NodeKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "leaf":
		*k = KindLeaf
	case "child_ref":
		*k = KindChildRef
	default:
		return fmt.Errorf("unknown node kind %q", s)
	}
	return nil
}

// Node is the retrievable unit of an index.
type Node struct {
	ID        string    `json:"id"`
	Kind      NodeKind  `json:"kind"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding,omitempty"`
	// ParentID links a tree node to its parent.
	ParentID string `json:"parent_id,omitempty"`
	// ChildIndexID is the referenced index when Kind is KindChildRef.
	ChildIndexID string `json:"child_index_id,omitempty"`
	// DocID is the source document the text was chunked from.
	DocID string `json:"doc_id,omitempty"`
}

// NewLeaf creates a text node.
func NewLeaf(id, text string) Node {
	return Node{ID: id, Kind: KindLeaf, Text: text}
}

// NewChildRef creates a proxy node for the index indexID, summarized by summary.
func NewChildRef(id, indexID, summary string) Node {
	return Node{ID: id, Kind: KindChildRef, Text: summary, ChildIndexID: indexID}
}

// IsChildRef reports whether the node proxies a nested index.
func (n Node) IsChildRef() bool {
	return n.Kind == KindChildRef
}

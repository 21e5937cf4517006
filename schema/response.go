package schema

// SourceNode records a node that contributed to a response.
type SourceNode struct {
	NodeID string `json:"node_id"`
	// IndexID is the index the node was selected from.
	IndexID string  `json:"index_id"`
	Text    string  `json:"text"`
	Score   float64 `json:"score,omitempty"`
	// Child is the nested response when the node is a child reference.
	Child *Response `json:"child,omitempty"`
}

// Response is the synthesized answer to a query.
type Response struct {
	Text        string         `json:"response"`
	SourceNodes []SourceNode   `json:"source_nodes,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// String returns the response text.
func (r *Response) String() string {
	if r == nil {
		return ""
	}
	return r.Text
}

// IsEmpty reports whether no node contributed to the answer.
func (r *Response) IsEmpty() bool {
	return r == nil || (r.Text == "" && len(r.SourceNodes) == 0)
}

package data

import (
	"fmt"
	"maps"
	"slices"

	"github.com/smallnest/gptindex/schema"
)

// Tree is the struct of a tree index. Leaves are the nodes built from documents;
// every upper level holds summaries of the level below.
type Tree struct {
	base
	RootIDs  []string            `json:"root_ids"`
	Children map[string][]string `json:"children,omitempty"`
}

// NewTree creates an empty tree struct.
func NewTree(id string) *Tree {
	return &Tree{base: newBase(id), Children: make(map[string][]string)}
}

// Type implements IndexStruct.
func (t *Tree) Type() Type { return TypeTree }

// AddNode inserts n below parentID, or as a detached node when parentID is empty.
func (t *Tree) AddNode(n schema.Node, parentID string) error {
	if parentID != "" {
		if !t.Registry().Has(parentID) {
			return fmt.Errorf("%w: parent %s", ErrNodeNotFound, parentID)
		}
		n.ParentID = parentID
	}
	if err := t.Registry().AddNode(n, false); err != nil {
		return err
	}
	if parentID != "" {
		t.linkChild(parentID, n.ID)
	}
	return nil
}

// SetChildren links childIDs under parentID in the given order, replacing its
// previous children. A node already linked under another parent, or one that would
// become its own ancestor, is rejected.
func (t *Tree) SetChildren(parentID string, childIDs []string) error {
	if err := t.requireNodes(parentID); err != nil {
		return err
	}
	if err := t.requireNodes(childIDs...); err != nil {
		return err
	}
	for _, id := range childIDs {
		if p, ok := t.parentOf(id); ok && p != parentID {
			return fmt.Errorf("%w: tree %s: node %s is already a child of %s", ErrInvalidStruct, t.ID, id, p)
		}
		for up, ok := parentID, true; ok; up, ok = t.parentOf(up) {
			if up == id {
				return fmt.Errorf("%w: tree %s: node %s cannot be a descendant of itself", ErrInvalidStruct, t.ID, id)
			}
		}
	}
	for _, id := range t.Children[parentID] {
		if slices.Contains(childIDs, id) {
			continue
		}
		if n, ok := t.Registry().Node(id); ok {
			n.ParentID = ""
			if err := t.Registry().AddNode(n, true); err != nil {
				return err
			}
		}
	}
	t.Children[parentID] = nil
	for _, id := range childIDs {
		n, _ := t.Registry().Node(id)
		n.ParentID = parentID
		if err := t.Registry().AddNode(n, true); err != nil {
			return err
		}
		t.linkChild(parentID, id)
	}
	return nil
}

func (t *Tree) linkChild(parentID, childID string) {
	if t.Children == nil {
		t.Children = make(map[string][]string)
	}
	if !slices.Contains(t.Children[parentID], childID) {
		t.Children[parentID] = append(t.Children[parentID], childID)
	}
}

func (t *Tree) parentOf(id string) (string, bool) {
	for parent, children := range t.Children {
		if slices.Contains(children, id) {
			return parent, true
		}
	}
	return "", false
}

// ChildrenOf returns the ordered children of a node.
func (t *Tree) ChildrenOf(id string) []string {
	return t.Children[id]
}

// IsLeaf reports whether id has no children.
func (t *Tree) IsLeaf(id string) bool {
	return len(t.Children[id]) == 0
}

// Leaves returns leaf nodes in insertion order.
func (t *Tree) Leaves() []schema.Node {
	var leaves []schema.Node
	for _, n := range t.Registry().Nodes() {
		if t.IsLeaf(n.ID) {
			leaves = append(leaves, n)
		}
	}
	return leaves
}

// Roots returns the root nodes in declared order.
func (t *Tree) Roots() ([]schema.Node, error) {
	return t.Registry().GetNodes(t.RootIDs)
}

// Validate implements IndexStruct.
func (t *Tree) Validate() error {
	if err := t.validateBase(); err != nil {
		return err
	}
	if t.Registry().Len() > 0 && len(t.RootIDs) == 0 {
		return fmt.Errorf("%w: tree %s has nodes but no roots", ErrInvalidStruct, t.ID)
	}
	if err := t.requireNodes(t.RootIDs...); err != nil {
		return err
	}
	for parent, children := range t.Children {
		if err := t.requireNodes(parent); err != nil {
			return err
		}
		if err := t.requireNodes(children...); err != nil {
			return err
		}
	}
	return t.checkShape()
}

// checkShape rejects children listed under more than one parent, roots that have a
// parent and cycles in Children.
func (t *Tree) checkShape() error {
	parents := make(map[string]string)
	for _, parent := range slices.Sorted(maps.Keys(t.Children)) {
		for _, id := range t.Children[parent] {
			if p, ok := parents[id]; ok {
				return fmt.Errorf("%w: tree %s: node %s is listed under %s and %s", ErrInvalidStruct, t.ID, id, p, parent)
			}
			parents[id] = parent
		}
	}
	for _, id := range t.RootIDs {
		if p, ok := parents[id]; ok {
			return fmt.Errorf("%w: tree %s: root %s is a child of %s", ErrInvalidStruct, t.ID, id, p)
		}
	}

	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int)
	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case visiting:
			return fmt.Errorf("%w: tree %s: cycle through node %s", ErrInvalidStruct, t.ID, id)
		case done:
			return nil
		}
		state[id] = visiting
		for _, child := range t.Children[id] {
			if err := visit(child); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}
	for _, id := range slices.Sorted(maps.Keys(t.Children)) {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

// Package composable nests indices into a graph and answers queries by recursing from
// the root index into the child indices its proxy nodes point at.
package composable

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/smallnest/gptindex/data"
	"github.com/smallnest/gptindex/index"
	"github.com/smallnest/gptindex/query"
	"github.com/smallnest/gptindex/schema"
	"github.com/smallnest/gptindex/service"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrSummaryMismatch is returned when children and summaries differ in count.
	ErrSummaryMismatch = errors.New("composable: number of summaries does not match number of children")
	// ErrDuplicateIndex is returned when two indices of a graph share an id.
	ErrDuplicateIndex = errors.New("composable: duplicate index id")
	// ErrDanglingChild is returned when a child reference names an index the graph
	// does not hold.
	ErrDanglingChild = errors.New("composable: child reference to unknown index")
	// ErrMissingRoot is returned when the root id is not one of the graph's indices.
	ErrMissingRoot = errors.New("composable: root index not in graph")
	// ErrCycle is returned when child references loop back to an ancestor.
	ErrCycle = errors.New("composable: child references form a cycle")
)

// Graph is a root index plus every index reachable through its child references.
// A graph is read-only once built; any number of queries may run on it concurrently.
type Graph struct {
	sc      *service.Context
	indices map[string]index.Index
	rootID  string
}

// New assembles a graph from already built indices and checks that it is closed: the
// root and every child reference target are present and no reference loops back.
func New(sc *service.Context, rootID string, indices ...index.Index) (*Graph, error) {
	g := &Graph{sc: sc, indices: make(map[string]index.Index, len(indices)), rootID: rootID}
	for _, idx := range indices {
		id := idx.Struct().IndexID()
		if _, ok := g.indices[id]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateIndex, id)
		}
		g.indices[id] = idx
	}
	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// FromIndex wraps a single index in a graph of its own.
func FromIndex(sc *service.Context, idx index.Index) (*Graph, error) {
	return New(sc, idx.Struct().IndexID(), idx)
}

// FromIndices builds a root index of type t whose nodes are one child reference per
// child, in order, each carrying the matching summary as its text.
func FromIndices(ctx context.Context, sc *service.Context, t data.Type, children []index.Index, summaries []string, opts ...index.BuildOption) (*Graph, error) {
	graphs := make([]*Graph, 0, len(children))
	for _, c := range children {
		g, err := FromIndex(sc, c)
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, g)
	}
	return FromGraphs(ctx, sc, t, graphs, summaries, opts...)
}

// FromGraphs is FromIndices over whole graphs: the new root points at each child
// graph's root and the result holds every index of every child graph.
func FromGraphs(ctx context.Context, sc *service.Context, t data.Type, children []*Graph, summaries []string, opts ...index.BuildOption) (*Graph, error) {
	if len(children) != len(summaries) {
		return nil, fmt.Errorf("%w: %d children, %d summaries", ErrSummaryMismatch, len(children), len(summaries))
	}
	nodes := make([]schema.Node, len(children))
	var all []index.Index
	for i, c := range children {
		nodes[i] = schema.NewChildRef("", c.rootID, summaries[i])
		for _, id := range c.IndexIDs() {
			all = append(all, c.indices[id])
		}
	}
	root, err := index.BuildFromNodes(ctx, sc, t, nodes, opts...)
	if err != nil {
		return nil, err
	}
	rootID := root.Struct().IndexID()
	return New(sc, rootID, append([]index.Index{root}, all...)...)
}

func (g *Graph) validate() error {
	if _, ok := g.indices[g.rootID]; !ok {
		return fmt.Errorf("%w: %s", ErrMissingRoot, g.rootID)
	}
	for _, id := range g.IndexIDs() {
		for _, child := range g.indices[id].Struct().Registry().ChildIndexIDs() {
			if _, ok := g.indices[child]; !ok {
				return fmt.Errorf("%w: index %s references %s", ErrDanglingChild, id, child)
			}
		}
	}
	return g.checkCycles()
}

func (g *Graph) checkCycles() error {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int, len(g.indices))
	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case visiting:
			return fmt.Errorf("%w: through %s", ErrCycle, id)
		case done:
			return nil
		}
		state[id] = visiting
		for _, child := range g.indices[id].Struct().Registry().ChildIndexIDs() {
			if err := visit(child); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}
	for _, id := range g.IndexIDs() {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

// RootID returns the id of the root index.
func (g *Graph) RootID() string { return g.rootID }

// Root returns the root index.
func (g *Graph) Root() index.Index { return g.indices[g.rootID] }

// Index returns the index with the given id.
func (g *Graph) Index(id string) (index.Index, bool) {
	idx, ok := g.indices[id]
	return idx, ok
}

// IndexIDs returns the ids of all indices, sorted.
func (g *Graph) IndexIDs() []string {
	ids := make([]string, 0, len(g.indices))
	for id := range g.indices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of indices in the graph.
func (g *Graph) Len() int { return len(g.indices) }

// ServiceContext returns the context shared by every index of the graph.
func (g *Graph) ServiceContext() *service.Context { return g.sc }

// Query answers text starting at the root. Each index is queried with the mode and
// params configs resolve for it; a child reference reached during a fold is answered
// by querying its target index with the same text and configs.
func (g *Graph) Query(ctx context.Context, text string, configs []query.Config) (*schema.Response, error) {
	if err := query.Validate(configs); err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := g.query(ctx, g.rootID, text, configs, 0)
	if err == nil {
		err = ctx.Err()
	}
	status := "ok"
	if err != nil {
		status = "error"
		resp = nil
	}
	g.sc.Metrics().ObserveDuration(status, time.Since(start).Seconds())
	return resp, err
}

func (g *Graph) query(ctx context.Context, id, text string, configs []query.Config, depth int) (*schema.Response, error) {
	idx, ok := g.indices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDanglingChild, id)
	}
	st := idx.Struct()
	mode, params := query.Resolve(configs, st)

	ctx, span := g.sc.Tracer().Start(ctx, "composable.query", trace.WithAttributes(
		attribute.String("index.id", id),
		attribute.String("index.type", string(st.Type())),
		attribute.String("query.mode", string(mode)),
		attribute.Int("query.depth", depth),
	))
	defer span.End()

	g.sc.Logger().Debug("query %s index %s mode %s depth %d", st.Type(), id, mode, depth)
	g.sc.Metrics().ObserveQuery(string(st.Type()), depth)

	resolve := func(ctx context.Context, n schema.Node) (*schema.Response, error) {
		return g.query(ctx, n.ChildIndexID, text, configs, depth+1)
	}
	resp, err := idx.Query(ctx, text, mode, params, index.WithChildResolver(resolve))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.sc.Metrics().ObserveQueryError(string(st.Type()))
		return nil, fmt.Errorf("index %s: %w", id, err)
	}
	span.SetAttributes(attribute.Int("response.sources", len(resp.SourceNodes)))
	return resp, nil
}

// Result is the outcome of an asynchronous query.
type Result struct {
	Response *schema.Response
	Err      error
}

// QueryAsync runs Query on its own goroutine. The channel yields exactly one Result
// and is then closed. Cancelling ctx aborts the query.
func (g *Graph) QueryAsync(ctx context.Context, text string, configs []query.Config) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		resp, err := g.Query(ctx, text, configs)
		ch <- Result{Response: resp, Err: err}
	}()
	return ch
}

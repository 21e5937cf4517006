package index

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/smallnest/gptindex/data"
	"github.com/smallnest/gptindex/schema"
	"github.com/smallnest/gptindex/service"
	"github.com/smallnest/gptindex/synth"
)

// Build defaults.
const (
	DefaultNumChildren         = 10
	DefaultMaxKeywordsPerChunk = 10
)

// KeywordExtraction selects how a keyword table tags its nodes at build time.
type KeywordExtraction string

const (
	// ExtractWithSynthesizer asks the synthesizer for keywords.
	ExtractWithSynthesizer KeywordExtraction = "synthesizer"
	// ExtractSimple uses keyword.Simple.
	ExtractSimple KeywordExtraction = "simple"
)

type buildOptions struct {
	indexID             string
	numChildren         int
	maxKeywordsPerChunk int
	extraction          KeywordExtraction
	vectorStore         string
	templates           synth.Templates
}

func defaultBuildOptions() buildOptions {
	return buildOptions{
		numChildren:         DefaultNumChildren,
		maxKeywordsPerChunk: DefaultMaxKeywordsPerChunk,
		extraction:          ExtractWithSynthesizer,
		vectorStore:         service.DefaultVectorStore,
	}
}

// BuildOption configures a build.
type BuildOption func(*buildOptions)

// WithIndexID sets the index id instead of a generated one.
func WithIndexID(id string) BuildOption {
	return func(o *buildOptions) { o.indexID = id }
}

// WithNumChildren sets how many nodes a tree summary covers.
func WithNumChildren(n int) BuildOption {
	return func(o *buildOptions) { o.numChildren = n }
}

// WithMaxKeywordsPerChunk caps the keywords a keyword table stores per node.
func WithMaxKeywordsPerChunk(n int) BuildOption {
	return func(o *buildOptions) { o.maxKeywordsPerChunk = n }
}

// WithKeywordExtraction selects the build-time keyword extraction.
func WithKeywordExtraction(e KeywordExtraction) BuildOption {
	return func(o *buildOptions) { o.extraction = e }
}

// WithVectorStoreName selects the service vector store a vector_store index writes to.
func WithVectorStoreName(name string) BuildOption {
	return func(o *buildOptions) { o.vectorStore = name }
}

// WithBuildTemplates overrides the summary and keyword prompts used while building.
func WithBuildTemplates(t synth.Templates) BuildOption {
	return func(o *buildOptions) { o.templates = t }
}

func newBuildOptions(opts []BuildOption) (buildOptions, error) {
	o := defaultBuildOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.indexID == "" {
		o.indexID = uuid.NewString()
	}
	if o.numChildren < 2 {
		return o, fmt.Errorf("index: num_children must be at least 2, got %d", o.numChildren)
	}
	if o.maxKeywordsPerChunk < 1 {
		return o, fmt.Errorf("index: max_keywords_per_chunk must be positive, got %d", o.maxKeywordsPerChunk)
	}
	switch o.extraction {
	case ExtractWithSynthesizer, ExtractSimple:
	default:
		return o, fmt.Errorf("index: unknown keyword extraction %q", o.extraction)
	}
	return o, nil
}

// Chunk splits documents into nodes without ids, in document order.
func Chunk(sc *service.Context, docs []schema.Document) ([]schema.Node, error) {
	var nodes []schema.Node
	for _, doc := range docs {
		chunks, err := sc.Split(doc.Text)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", doc.ID, err)
		}
		for _, c := range chunks {
			if c == "" {
				continue
			}
			n := schema.NewLeaf("", c)
			n.DocID = doc.ID
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

// Build chunks docs and builds an index of type t over the chunks.
func Build(ctx context.Context, sc *service.Context, t data.Type, docs []schema.Document, opts ...BuildOption) (Index, error) {
	nodes, err := Chunk(sc, docs)
	if err != nil {
		return nil, err
	}
	return BuildFromNodes(ctx, sc, t, nodes, opts...)
}

// BuildFromNodes builds an index of type t over nodes. Nodes without an id get the
// next sequential id of the new struct.
func BuildFromNodes(ctx context.Context, sc *service.Context, t data.Type, nodes []schema.Node, opts ...BuildOption) (Index, error) {
	o, err := newBuildOptions(opts)
	if err != nil {
		return nil, err
	}
	var idx Index
	switch t {
	case data.TypeList:
		idx, err = buildList(sc, nodes, o)
	case data.TypeTree:
		idx, err = buildTree(ctx, sc, nodes, o)
	case data.TypeKeywordTable:
		idx, err = buildKeywordTable(ctx, sc, nodes, o)
	case data.TypeDict:
		idx, err = buildDict(ctx, sc, nodes, o)
	case data.TypeVectorStore:
		idx, err = buildVectorStore(ctx, sc, nodes, o)
	default:
		return nil, fmt.Errorf("%w: %q", data.ErrUnknownType, t)
	}
	if err != nil {
		return nil, fmt.Errorf("build %s index: %w", t, err)
	}
	sc.Metrics().ObserveBuild(string(t), len(nodes))
	sc.Logger().Info("built %s index %s over %d nodes", t, o.indexID, len(nodes))
	return idx, nil
}

// BuildList builds a list index over docs.
func BuildList(ctx context.Context, sc *service.Context, docs []schema.Document, opts ...BuildOption) (*List, error) {
	idx, err := Build(ctx, sc, data.TypeList, docs, opts...)
	if err != nil {
		return nil, err
	}
	return idx.(*List), nil
}

// BuildTree builds a tree index over docs.
func BuildTree(ctx context.Context, sc *service.Context, docs []schema.Document, opts ...BuildOption) (*Tree, error) {
	idx, err := Build(ctx, sc, data.TypeTree, docs, opts...)
	if err != nil {
		return nil, err
	}
	return idx.(*Tree), nil
}

// BuildKeywordTable builds a keyword table index over docs.
func BuildKeywordTable(ctx context.Context, sc *service.Context, docs []schema.Document, opts ...BuildOption) (*KeywordTable, error) {
	idx, err := Build(ctx, sc, data.TypeKeywordTable, docs, opts...)
	if err != nil {
		return nil, err
	}
	return idx.(*KeywordTable), nil
}

// BuildDict builds a vector index keeping its embeddings in the struct.
func BuildDict(ctx context.Context, sc *service.Context, docs []schema.Document, opts ...BuildOption) (*Vector, error) {
	idx, err := Build(ctx, sc, data.TypeDict, docs, opts...)
	if err != nil {
		return nil, err
	}
	return idx.(*Vector), nil
}

// BuildVectorStore builds a vector index writing its embeddings to a service vector store.
func BuildVectorStore(ctx context.Context, sc *service.Context, docs []schema.Document, opts ...BuildOption) (*Vector, error) {
	idx, err := Build(ctx, sc, data.TypeVectorStore, docs, opts...)
	if err != nil {
		return nil, err
	}
	return idx.(*Vector), nil
}

func assignIDs(r *data.NodeRegistry, nodes []schema.Node) []schema.Node {
	out := make([]schema.Node, len(nodes))
	for i, n := range nodes {
		if n.ID == "" {
			n.ID = r.NextID()
		}
		out[i] = n
	}
	return out
}

func texts(nodes []schema.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Text
	}
	return out
}

// Package service carries the collaborators shared by every index of a graph: the
// synthesizer, the embedder, vector stores, the splitter, and the token counter.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/tmc/langchaingo/textsplitter"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/smallnest/gptindex/embedding"
	"github.com/smallnest/gptindex/log"
	"github.com/smallnest/gptindex/metrics"
	"github.com/smallnest/gptindex/synth"
	"github.com/smallnest/gptindex/vectorstore"
)

// DefaultVectorStore names the in-memory store every context starts with.
const DefaultVectorStore = "simple"

var (
	// ErrNoSynthesizer is returned when a call needs a synthesizer and none is set.
	ErrNoSynthesizer = errors.New("service: no synthesizer configured")
	// ErrNoEmbedder is returned when a call needs an embedder and none is set.
	ErrNoEmbedder = errors.New("service: no embedder configured")
	// ErrUnknownVectorStore is returned for a vector store name that is not registered.
	ErrUnknownVectorStore = errors.New("service: unknown vector store")
)

// Context is shared by all indices of a graph. Its fields are set at construction and
// read concurrently afterwards; only the token counter changes.
type Context struct {
	synthesizer  synth.Synthesizer
	embedder     embedding.Embedder
	splitter     textsplitter.TextSplitter
	logger       log.Logger
	metrics      *metrics.Collector
	tracer       trace.Tracer
	vectorStores map[string]vectorstore.Store

	tokens atomic.Int64
}

// Option configures a Context.
type Option func(*Context)

// WithSynthesizer sets the synthesizer.
func WithSynthesizer(s synth.Synthesizer) Option {
	return func(c *Context) { c.synthesizer = s }
}

// WithEmbedder sets the embedder.
func WithEmbedder(e embedding.Embedder) Option {
	return func(c *Context) { c.embedder = e }
}

// WithSplitter sets the text splitter used to chunk documents.
func WithSplitter(s textsplitter.TextSplitter) Option {
	return func(c *Context) { c.splitter = s }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(c *Context) { c.logger = l }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Context) { c.metrics = m }
}

// WithTracer sets the tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *Context) { c.tracer = t }
}

// WithVectorStore registers a vector store under name.
func WithVectorStore(name string, s vectorstore.Store) Option {
	return func(c *Context) { c.vectorStores[name] = s }
}

// New creates a Context. Without options it splits with a recursive character
// splitter, logs through the package default logger, traces through the global otel
// provider and has an in-memory vector store named DefaultVectorStore.
func New(opts ...Option) *Context {
	c := &Context{
		splitter:     textsplitter.NewRecursiveCharacter(),
		vectorStores: map[string]vectorstore.Store{DefaultVectorStore: vectorstore.NewMemory()},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.GetDefaultLogger()
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer("github.com/smallnest/gptindex")
	}
	return c
}

// Logger returns the logger.
func (c *Context) Logger() log.Logger { return c.logger }

// Metrics returns the collector, which may be nil.
func (c *Context) Metrics() *metrics.Collector { return c.metrics }

// Tracer returns the tracer.
func (c *Context) Tracer() trace.Tracer { return c.tracer }

// HasEmbedder reports whether an embedder is configured.
func (c *Context) HasEmbedder() bool { return c.embedder != nil }

// TotalTokensUsed returns the tokens reported by the synthesizer since the last reset.
func (c *Context) TotalTokensUsed() int64 { return c.tokens.Load() }

// ResetTokens zeroes the token counter.
func (c *Context) ResetTokens() { c.tokens.Store(0) }

// AddTokens adds n to the token counter.
func (c *Context) AddTokens(n int) {
	if n > 0 {
		c.tokens.Add(int64(n))
	}
}

// Split chunks text with the configured splitter.
func (c *Context) Split(text string) ([]string, error) {
	chunks, err := c.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}
	return chunks, nil
}

// VectorStore returns the store registered under name.
func (c *Context) VectorStore(name string) (vectorstore.Store, error) {
	s, ok := c.vectorStores[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVectorStore, name)
	}
	return s, nil
}

func (c *Context) record(op string, tokens int) {
	c.AddTokens(tokens)
	c.metrics.ObserveCall(op, tokens)
}

// Synthesize calls the synthesizer and counts its tokens.
func (c *Context) Synthesize(ctx context.Context, query string, prior *string, chunk string, t synth.Templates) (string, error) {
	if c.synthesizer == nil {
		return "", ErrNoSynthesizer
	}
	res, err := c.synthesizer.Synthesize(ctx, query, prior, chunk, t)
	c.record("synthesize", res.Tokens)
	if err != nil {
		return "", fmt.Errorf("synthesize: %w", err)
	}
	return res.Text, nil
}

// ChooseChildren calls the synthesizer and counts its tokens.
func (c *Context) ChooseChildren(ctx context.Context, query string, summaries []string, branch int, t synth.Templates) ([]int, error) {
	if c.synthesizer == nil {
		return nil, ErrNoSynthesizer
	}
	res, err := c.synthesizer.ChooseChildren(ctx, query, summaries, branch, t)
	c.record("choose_children", res.Tokens)
	if err != nil {
		return nil, fmt.Errorf("choose children: %w", err)
	}
	return res.Indices, nil
}

// Summarize calls the synthesizer and counts its tokens.
func (c *Context) Summarize(ctx context.Context, texts []string, t synth.Templates) (string, error) {
	if c.synthesizer == nil {
		return "", ErrNoSynthesizer
	}
	res, err := c.synthesizer.Summarize(ctx, texts, t)
	c.record("summarize", res.Tokens)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return res.Text, nil
}

// ExtractKeywords calls the synthesizer and counts its tokens.
func (c *Context) ExtractKeywords(ctx context.Context, text string, limit int, t synth.Templates) ([]string, error) {
	if c.synthesizer == nil {
		return nil, ErrNoSynthesizer
	}
	res, err := c.synthesizer.ExtractKeywords(ctx, text, limit, t)
	c.record("extract_keywords", res.Tokens)
	if err != nil {
		return nil, fmt.Errorf("extract keywords: %w", err)
	}
	return res.Words, nil
}

// EmbedQuery embeds a query.
func (c *Context) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if c.embedder == nil {
		return nil, ErrNoEmbedder
	}
	c.metrics.ObserveCall("embed", 0)
	v, err := c.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return v, nil
}

// EmbedTexts embeds node texts.
func (c *Context) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if c.embedder == nil {
		return nil, ErrNoEmbedder
	}
	if len(texts) == 0 {
		return nil, nil
	}
	c.metrics.ObserveCall("embed", 0)
	vecs, err := c.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed texts: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embed texts: got %d vectors for %d texts", len(vecs), len(texts))
	}
	return vecs, nil
}

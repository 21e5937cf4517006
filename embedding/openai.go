package embedding

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = string(openai.SmallEmbedding3)

const openAIMaxBatch = 2048

// OpenAI calls the OpenAI embeddings endpoint, or any compatible server.
type OpenAI struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

var _ Embedder = (*OpenAI)(nil)

// OpenAIOption configures an OpenAI embedder.
type OpenAIOption func(*openai.ClientConfig, *string)

// WithBaseURL points the client at a compatible server.
func WithBaseURL(url string) OpenAIOption {
	return func(c *openai.ClientConfig, _ *string) { c.BaseURL = url }
}

// WithModel selects the embedding model.
func WithModel(model string) OpenAIOption {
	return func(_ *openai.ClientConfig, m *string) { *m = model }
}

// NewOpenAI creates an embedder authenticated with apiKey.
func NewOpenAI(apiKey string, opts ...OpenAIOption) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	model := DefaultOpenAIModel
	for _, o := range opts {
		o(&cfg, &model)
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.EmbeddingModel(model),
	}
}

// EmbedQuery implements Embedder.
func (o *OpenAI) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}
	vecs, err := o.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedTexts implements Embedder. Inputs beyond the API batch limit are sent in
// several requests.
func (o *OpenAI) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += openAIMaxBatch {
		end := min(start+openAIMaxBatch, len(texts))
		batch := texts[start:end]
		resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: batch,
			Model: o.model,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embeddings: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(resp.Data), len(batch))
		}
		vecs := make([][]float32, len(batch))
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(batch) {
				return nil, fmt.Errorf("openai embeddings: index %d out of range", d.Index)
			}
			vecs[d.Index] = d.Embedding
		}
		out = append(out, vecs...)
	}
	return out, nil
}

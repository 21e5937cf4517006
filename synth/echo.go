package synth

import (
	"context"
	"strings"

	"github.com/smallnest/gptindex/keyword"
)

// Echo is a deterministic Synthesizer that calls no model. An answer is the query
// joined to the first chunk, later chunks leave it unchanged, branches are taken in
// order and keywords come from keyword.Simple. It makes traversal order visible in
// the answer text, which is what tests and dry runs need.
type Echo struct {
	tokenizer Tokenizer
}

var _ Synthesizer = (*Echo)(nil)

// NewEcho creates an Echo counting tokens with tokenizer, or CountWords when nil.
func NewEcho(tokenizer Tokenizer) *Echo {
	if tokenizer == nil {
		tokenizer = CountWords
	}
	return &Echo{tokenizer: tokenizer}
}

func (e *Echo) cost(prompt []string, answer string) int {
	return e.tokenizer(strings.Join(prompt, "\n")) + e.tokenizer(answer)
}

// Synthesize implements Synthesizer.
func (e *Echo) Synthesize(ctx context.Context, query string, prior *string, chunk string, _ Templates) (Completion, error) {
	if err := ctx.Err(); err != nil {
		return Completion{}, err
	}
	if prior != nil {
		return Completion{Text: *prior, Tokens: e.cost([]string{query, *prior, chunk}, *prior)}, nil
	}
	answer := query + ":" + chunk
	return Completion{Text: answer, Tokens: e.cost([]string{query, chunk}, answer)}, nil
}

// ChooseChildren implements Synthesizer.
func (e *Echo) ChooseChildren(ctx context.Context, query string, summaries []string, branch int, _ Templates) (Choice, error) {
	if err := ctx.Err(); err != nil {
		return Choice{}, err
	}
	n := min(max(branch, 1), len(summaries))
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	prompt := append([]string{query}, summaries...)
	return Choice{Indices: indices, Tokens: e.cost(prompt, "")}, nil
}

// Summarize implements Synthesizer.
func (e *Echo) Summarize(ctx context.Context, texts []string, _ Templates) (Completion, error) {
	if err := ctx.Err(); err != nil {
		return Completion{}, err
	}
	summary := strings.Join(texts, "\n")
	return Completion{Text: summary, Tokens: e.cost(texts, summary)}, nil
}

// ExtractKeywords implements Synthesizer.
func (e *Echo) ExtractKeywords(ctx context.Context, text string, limit int, _ Templates) (Keywords, error) {
	if err := ctx.Err(); err != nil {
		return Keywords{}, err
	}
	words := keyword.Simple(text, limit)
	return Keywords{Words: words, Tokens: e.cost([]string{text}, strings.Join(words, ", "))}, nil
}

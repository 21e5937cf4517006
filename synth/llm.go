package synth

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"

	"github.com/smallnest/gptindex/keyword"
)

// LLM is a Synthesizer backed by a langchaingo model.
type LLM struct {
	model     llms.Model
	modelName string
	tokenizer Tokenizer
	callOpts  []llms.CallOption
}

var _ Synthesizer = (*LLM)(nil)

// LLMOption configures an LLM.
type LLMOption func(*LLM)

// WithModelName sets the model name used for token counting.
func WithModelName(name string) LLMOption {
	return func(l *LLM) { l.modelName = name }
}

// WithTokenizer replaces the token counter.
func WithTokenizer(t Tokenizer) LLMOption {
	return func(l *LLM) { l.tokenizer = t }
}

// WithCallOptions passes options to every model call.
func WithCallOptions(opts ...llms.CallOption) LLMOption {
	return func(l *LLM) { l.callOpts = append(l.callOpts, opts...) }
}

// NewLLM wraps model.
func NewLLM(model llms.Model, opts ...LLMOption) *LLM {
	l := &LLM{model: model, modelName: "gpt-3.5-turbo"}
	for _, opt := range opts {
		opt(l)
	}
	if l.tokenizer == nil {
		name := l.modelName
		l.tokenizer = func(text string) int { return llms.CountTokens(name, text) }
	}
	return l
}

func (l *LLM) complete(ctx context.Context, template string, vars map[string]any) (Completion, error) {
	names := make([]string, 0, len(vars))
	for k := range vars {
		names = append(names, k)
	}
	slices.Sort(names)
	tmpl := prompts.NewPromptTemplate(template, names)
	prompt, err := tmpl.Format(vars)
	if err != nil {
		return Completion{}, fmt.Errorf("format prompt: %w", err)
	}
	answer, err := llms.GenerateFromSinglePrompt(ctx, l.model, prompt, l.callOpts...)
	if err != nil {
		return Completion{}, fmt.Errorf("generate: %w", err)
	}
	answer = strings.TrimSpace(answer)
	return Completion{Text: answer, Tokens: l.tokenizer(prompt) + l.tokenizer(answer)}, nil
}

// Synthesize implements Synthesizer.
func (l *LLM) Synthesize(ctx context.Context, query string, prior *string, chunk string, t Templates) (Completion, error) {
	if prior == nil {
		return l.complete(ctx, orDefault(t.TextQA, DefaultTextQATemplate), map[string]any{
			"query_str":   query,
			"context_str": chunk,
		})
	}
	return l.complete(ctx, orDefault(t.Refine, DefaultRefineTemplate), map[string]any{
		"query_str":       query,
		"existing_answer": *prior,
		"context_msg":     chunk,
	})
}

// ChooseChildren implements Synthesizer.
func (l *LLM) ChooseChildren(ctx context.Context, query string, summaries []string, branch int, t Templates) (Choice, error) {
	branch = max(branch, 1)
	var list strings.Builder
	for i, s := range summaries {
		fmt.Fprintf(&list, "(%d) %s\n\n", i+1, strings.TrimSpace(s))
	}
	c, err := l.complete(ctx, orDefault(t.Query, DefaultQueryTemplate), map[string]any{
		"query_str":        query,
		"context_list":     list.String(),
		"num_chunks":       len(summaries),
		"branching_factor": branch,
	})
	if err != nil {
		return Choice{}, err
	}
	indices := ParseChoice(c.Text, len(summaries), branch)
	if len(indices) == 0 {
		return Choice{Tokens: c.Tokens}, fmt.Errorf("%w: %q", ErrNoChoice, c.Text)
	}
	return Choice{Indices: indices, Tokens: c.Tokens}, nil
}

// Summarize implements Synthesizer.
func (l *LLM) Summarize(ctx context.Context, texts []string, t Templates) (Completion, error) {
	return l.complete(ctx, orDefault(t.Summary, DefaultSummaryTemplate), map[string]any{
		"context_str": strings.Join(texts, "\n"),
	})
}

// ExtractKeywords implements Synthesizer.
func (l *LLM) ExtractKeywords(ctx context.Context, text string, limit int, t Templates) (Keywords, error) {
	c, err := l.complete(ctx, orDefault(t.KeywordExtract, DefaultKeywordExtractTemplate), map[string]any{
		"text":         text,
		"max_keywords": limit,
	})
	if err != nil {
		return Keywords{}, err
	}
	return Keywords{Words: keyword.ParseResponse(c.Text), Tokens: c.Tokens}, nil
}

var numberRegex = regexp.MustCompile(`\d+`)

// ParseChoice reads the 1-based numbers following "ANSWER:" (or anywhere in answer
// when the marker is missing) and returns up to limit distinct 0-based positions
// below n.
func ParseChoice(answer string, n, limit int) []int {
	if i := strings.Index(strings.ToUpper(answer), "ANSWER:"); i >= 0 {
		answer = answer[i+len("ANSWER:"):]
		if nl := strings.IndexByte(answer, '\n'); nl >= 0 {
			answer = answer[:nl]
		}
	}
	var out []int
	for _, m := range numberRegex.FindAllString(answer, -1) {
		v, err := strconv.Atoi(m)
		if err != nil || v < 1 || v > n || slices.Contains(out, v-1) {
			continue
		}
		out = append(out, v-1)
		if len(out) == limit {
			break
		}
	}
	return out
}

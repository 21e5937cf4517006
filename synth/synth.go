// Package synth is the language-model boundary of the engine: answering over a chunk,
// refining an answer, choosing tree branches, summarizing and extracting keywords.
package synth

import (
	"context"
	"errors"
	"strings"
)

// ErrNoChoice is returned when a model answer names no valid branch.
var ErrNoChoice = errors.New("synth: no valid choice in answer")

// Templates overrides the prompts used for one call. Empty fields use the defaults.
type Templates struct {
	TextQA         string
	Refine         string
	Query          string
	Summary        string
	KeywordExtract string
}

// Completion is a generated text and the tokens spent on it.
type Completion struct {
	Text   string
	Tokens int
}

// Choice is the set of selected branch positions and the tokens spent on it.
type Choice struct {
	Indices []int
	Tokens  int
}

// Keywords is an extracted keyword list and the tokens spent on it.
type Keywords struct {
	Words  []string
	Tokens int
}

// Synthesizer is the capability every query engine folds its nodes through.
type Synthesizer interface {
	// Synthesize answers query from chunk. With a prior answer the chunk refines it.
	Synthesize(ctx context.Context, query string, prior *string, chunk string, t Templates) (Completion, error)
	// ChooseChildren picks up to branch positions of summaries, most relevant first.
	ChooseChildren(ctx context.Context, query string, summaries []string, branch int, t Templates) (Choice, error)
	// Summarize condenses texts into one summary.
	Summarize(ctx context.Context, texts []string, t Templates) (Completion, error)
	// ExtractKeywords returns up to limit keywords of text.
	ExtractKeywords(ctx context.Context, text string, limit int, t Templates) (Keywords, error)
}

// Tokenizer counts the tokens of a text.
type Tokenizer func(text string) int

// CountWords is a Tokenizer counting whitespace separated words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

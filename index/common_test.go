package index

import (
	"context"

	"github.com/smallnest/gptindex/embedding"
	"github.com/smallnest/gptindex/log"
	"github.com/smallnest/gptindex/schema"
	"github.com/smallnest/gptindex/service"
	"github.com/smallnest/gptindex/synth"
)

var testTexts = []string{
	"This is a test v2.",
	"This is another test.",
	"This is a test.",
	"Hello world.",
}

func fixtureEmbedder() *embedding.Fixed {
	return &embedding.Fixed{
		Queries: map[string][]float32{
			"Foo?":    {0, 0, 1, 0, 0},
			"Orange?": {0, 1, 0, 0, 0},
			"Cat?":    {0, 0, 0, 1, 0},
		},
		Texts: map[string][]float32{
			"Hello world.":          {1, 0, 0, 0, 0},
			"This is a test.":       {0, 1, 0, 0, 0},
			"This is another test.": {0, 0, 1, 0, 0},
			"This is a test v2.":    {0, 0, 0, 1, 0},
			"foo bar":               {0, 0, 1, 0, 0},
			"apple orange":          {0, 1, 0, 0, 0},
			"toronto london":        {1, 0, 0, 0, 0},
			"cat dog":               {0, 0, 0, 1, 0},
		},
	}
}

func newTestContext(opts ...service.Option) *service.Context {
	base := []service.Option{
		service.WithSynthesizer(synth.NewEcho(nil)),
		service.WithEmbedder(fixtureEmbedder()),
		service.WithLogger(&log.NoOpLogger{}),
	}
	return service.New(append(base, opts...)...)
}

func docs(texts ...string) []schema.Document {
	return schema.NewDocuments(texts...)
}

type recordingSynth struct {
	*synth.Echo
	templates []synth.Templates
}

func (r *recordingSynth) Synthesize(ctx context.Context, query string, prior *string, chunk string, t synth.Templates) (synth.Completion, error) {
	r.templates = append(r.templates, t)
	return r.Echo.Synthesize(ctx, query, prior, chunk, t)
}

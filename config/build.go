package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/smallnest/gptindex/embedding"
	"github.com/smallnest/gptindex/index"
	"github.com/smallnest/gptindex/log"
	"github.com/smallnest/gptindex/service"
	"github.com/smallnest/gptindex/store"
	"github.com/smallnest/gptindex/store/badger"
	"github.com/smallnest/gptindex/store/file"
	"github.com/smallnest/gptindex/store/memory"
	"github.com/smallnest/gptindex/store/postgres"
	"github.com/smallnest/gptindex/store/redis"
	"github.com/smallnest/gptindex/store/sqlite"
	"github.com/smallnest/gptindex/synth"
)

// ErrMissingAPIKey is returned when an openai provider is selected and its key
// variable is empty.
var ErrMissingAPIKey = errors.New("config: missing API key")

// NewLogger builds the configured logger.
func (c *Config) NewLogger() (log.Logger, error) {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if c.Logger == "golog" {
		return log.NewGologLoggerWithLevel(level), nil
	}
	return log.NewDefaultLogger(level), nil
}

func apiKey(env string) (string, error) {
	if env == "" {
		env = "OPENAI_API_KEY"
	}
	key := os.Getenv(env)
	if key == "" {
		return "", fmt.Errorf("%w: %s is not set", ErrMissingAPIKey, env)
	}
	return key, nil
}

// Synthesizer builds the configured synthesizer.
func (c *Config) Synthesizer() (synth.Synthesizer, error) {
	switch c.LLM.Provider {
	case ProviderOpenAI:
		key, err := apiKey(c.LLM.APIKeyEnv)
		if err != nil {
			return nil, err
		}
		opts := []openai.Option{openai.WithToken(key)}
		if c.LLM.Model != "" {
			opts = append(opts, openai.WithModel(c.LLM.Model))
		}
		if c.LLM.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(c.LLM.BaseURL))
		}
		model, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("config: openai llm: %w", err)
		}
		callOpts := []llms.CallOption{llms.WithTemperature(c.LLM.Temperature)}
		if c.LLM.MaxTokens > 0 {
			callOpts = append(callOpts, llms.WithMaxTokens(c.LLM.MaxTokens))
		}
		llmOpts := []synth.LLMOption{synth.WithCallOptions(callOpts...)}
		if c.LLM.Model != "" {
			llmOpts = append(llmOpts, synth.WithModelName(c.LLM.Model))
		}
		return synth.NewLLM(model, llmOpts...), nil
	case ProviderEcho, "":
		return synth.NewEcho(nil), nil
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", ErrInvalidConfig, c.LLM.Provider)
	}
}

// Embedder builds the configured embedder, or nil for provider none.
func (c *Config) Embedder() (embedding.Embedder, error) {
	switch c.Embedding.Provider {
	case ProviderNone, "":
		return nil, nil
	case ProviderHash:
		return embedding.NewHash(c.Embedding.Dimension), nil
	case ProviderOpenAI:
		key, err := apiKey(c.Embedding.APIKeyEnv)
		if err != nil {
			return nil, err
		}
		var opts []embedding.OpenAIOption
		if c.Embedding.Model != "" {
			opts = append(opts, embedding.WithModel(c.Embedding.Model))
		}
		if c.Embedding.BaseURL != "" {
			opts = append(opts, embedding.WithBaseURL(c.Embedding.BaseURL))
		}
		return embedding.NewOpenAI(key, opts...), nil
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, c.Embedding.Provider)
	}
}

// ServiceContext builds a service context from the configuration. Extra options are
// applied last and override the configured collaborators.
func (c *Config) ServiceContext(extra ...service.Option) (*service.Context, error) {
	logger, err := c.NewLogger()
	if err != nil {
		return nil, err
	}
	s, err := c.Synthesizer()
	if err != nil {
		return nil, err
	}
	e, err := c.Embedder()
	if err != nil {
		return nil, err
	}
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.Chunking.ChunkSize),
		textsplitter.WithChunkOverlap(c.Chunking.ChunkOverlap),
	)
	opts := []service.Option{
		service.WithLogger(logger),
		service.WithSynthesizer(s),
		service.WithSplitter(splitter),
	}
	if e != nil {
		opts = append(opts, service.WithEmbedder(e))
	}
	return service.New(append(opts, extra...)...), nil
}

// BuildOptions returns the index build options the configuration describes.
func (c *Config) BuildOptions() []index.BuildOption {
	return []index.BuildOption{
		index.WithNumChildren(c.Build.NumChildren),
		index.WithMaxKeywordsPerChunk(c.Build.MaxKeywordsPerChunk),
		index.WithKeywordExtraction(index.KeywordExtraction(c.Build.KeywordExtraction)),
		index.WithVectorStoreName(c.Build.VectorStore),
	}
}

// OpenStore opens the configured graph store. The returned function releases it.
func (c *Config) OpenStore(ctx context.Context) (store.GraphStore, func() error, error) {
	noop := func() error { return nil }
	s := c.Store
	switch s.Backend {
	case BackendMemory:
		return memory.NewMemoryGraphStore(), noop, nil
	case BackendFile:
		st, err := file.NewFileGraphStore(s.Path)
		if err != nil {
			return nil, nil, err
		}
		return st, noop, nil
	case BackendSqlite:
		st, err := sqlite.NewSqliteGraphStore(sqlite.SqliteOptions{Path: s.Path, TableName: s.Table})
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	case BackendPostgres:
		st, err := postgres.NewPostgresGraphStore(ctx, postgres.PostgresOptions{ConnString: s.DSN, TableName: s.Table})
		if err != nil {
			return nil, nil, err
		}
		if err := st.InitSchema(ctx); err != nil {
			st.Close()
			return nil, nil, err
		}
		return st, func() error { st.Close(); return nil }, nil
	case BackendRedis:
		st := redis.NewRedisGraphStore(redis.RedisOptions{
			Addr:     s.Addr,
			Password: s.Password,
			DB:       s.DB,
			Prefix:   s.Prefix,
			TTL:      s.TTL,
		})
		return st, st.Close, nil
	case BackendBadger:
		logger, err := c.NewLogger()
		if err != nil {
			return nil, nil, err
		}
		st, err := badger.NewBadgerGraphStore(badger.BadgerOptions{Dir: s.Path, Logger: logger})
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, s.Backend)
	}
}

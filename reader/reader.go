// Package reader turns files into documents for index builds.
package reader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/smallnest/gptindex/log"
	"github.com/smallnest/gptindex/schema"
	"github.com/tmc/langchaingo/documentloaders"
)

// ErrNoDocuments is returned when a directory holds no readable files.
var ErrNoDocuments = errors.New("reader: no documents found")

// Metadata keys set on every document read from a file.
const (
	MetaFilePath = "file_path"
	MetaFileName = "file_name"
	MetaTitle    = "title"
)

// Loader produces documents.
type Loader interface {
	Load(ctx context.Context) ([]schema.Document, error)
}

// ParseFunc converts file contents into a title and plain text.
type ParseFunc func(content []byte) (title, text string, err error)

// DefaultParsers maps lowercase file extensions to their parsers.
func DefaultParsers() map[string]ParseFunc {
	return map[string]ParseFunc{
		".txt":      parseText,
		".text":     parseText,
		".md":       parseMarkdown,
		".markdown": parseMarkdown,
		".html":     HTMLToText,
		".htm":      HTMLToText,
	}
}

func parseText(content []byte) (string, string, error) {
	return "", strings.TrimSpace(string(content)), nil
}

func parseMarkdown(content []byte) (string, string, error) {
	return HTMLToText(MarkdownToHTML(content))
}

// Directory reads every supported file under a root directory. Hidden files and
// directories are skipped. Documents come back in lexical path order and use the
// slash-separated path relative to the root as their id.
type Directory struct {
	root      string
	recursive bool
	parsers   map[string]ParseFunc
	logger    log.Logger
}

var _ Loader = (*Directory)(nil)

// Option configures a Directory.
type Option func(*Directory)

// WithRecursive descends into subdirectories.
func WithRecursive(recursive bool) Option {
	return func(d *Directory) { d.recursive = recursive }
}

// WithExtensions restricts reading to the given extensions, e.g. ".md".
func WithExtensions(exts ...string) Option {
	return func(d *Directory) {
		all := DefaultParsers()
		d.parsers = make(map[string]ParseFunc, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(ext)
			if p, ok := all[ext]; ok {
				d.parsers[ext] = p
			}
		}
	}
}

// WithParser registers a parser for an extension.
func WithParser(ext string, p ParseFunc) Option {
	return func(d *Directory) { d.parsers[strings.ToLower(ext)] = p }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(d *Directory) { d.logger = l }
}

// NewDirectory creates a reader rooted at root.
func NewDirectory(root string, opts ...Option) *Directory {
	d := &Directory{
		root:    root,
		parsers: DefaultParsers(),
		logger:  log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = log.Named(d.logger, "reader")
	return d
}

// Load implements Loader.
func (d *Directory) Load(ctx context.Context) ([]schema.Document, error) {
	info, err := os.Stat(d.root)
	if err != nil {
		return nil, fmt.Errorf("reader: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("reader: %s is not a directory", d.root)
	}

	var docs []schema.Document
	err = filepath.WalkDir(d.root, func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != d.root && strings.HasPrefix(e.Name(), ".") {
			if e.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if e.IsDir() {
			if path != d.root && !d.recursive {
				return fs.SkipDir
			}
			return nil
		}
		parse, ok := d.parsers[strings.ToLower(filepath.Ext(path))]
		if !ok {
			d.logger.Debug("skipping %s", path)
			return nil
		}
		doc, err := d.read(path, parse)
		if err != nil {
			return err
		}
		if doc.Text == "" {
			d.logger.Warn("%s has no text", path)
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDocuments, d.root)
	}
	d.logger.Info("loaded %d documents from %s", len(docs), d.root)
	return docs, nil
}

func (d *Directory) read(path string, parse ParseFunc) (schema.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return schema.Document{}, fmt.Errorf("reader: %w", err)
	}
	title, text, err := parse(content)
	if err != nil {
		return schema.Document{}, fmt.Errorf("reader: %s: %w", path, err)
	}
	rel, err := filepath.Rel(d.root, path)
	if err != nil {
		return schema.Document{}, fmt.Errorf("reader: %w", err)
	}
	meta := map[string]any{
		MetaFilePath: path,
		MetaFileName: filepath.Base(path),
	}
	if title != "" {
		meta[MetaTitle] = title
	}
	return schema.Document{ID: filepath.ToSlash(rel), Text: text, Metadata: meta}, nil
}

// LangChain adapts a langchaingo document loader.
type LangChain struct {
	loader documentloaders.Loader
}

var _ Loader = (*LangChain)(nil)

// NewLangChain wraps loader.
func NewLangChain(loader documentloaders.Loader) *LangChain {
	return &LangChain{loader: loader}
}

// Load implements Loader.
func (l *LangChain) Load(ctx context.Context) ([]schema.Document, error) {
	docs, err := l.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("reader: %w", err)
	}
	return schema.FromLangChain(docs), nil
}

// Package index builds the four index strategies (list, tree, keyword table, vector)
// over documents or nodes and runs their query engines.
//
// Every engine selects nodes and folds them through the synthesizer in selection
// order. A child reference node is handed to the ChildResolver given with
// WithChildResolver, and the child's answer is folded in place of its summary.
package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallnest/gptindex/data"
	"github.com/smallnest/gptindex/query"
	"github.com/smallnest/gptindex/schema"
	"github.com/smallnest/gptindex/service"
)

var (
	// ErrEmptyDocuments is returned when building a strategy that needs content from
	// nothing.
	ErrEmptyDocuments = errors.New("index: no documents to build from")
	// ErrUnsupportedMode is matched by every *ModeError.
	ErrUnsupportedMode = errors.New("index: unsupported query mode")
	// ErrUnsupportedOperation is returned by operations a strategy does not offer.
	ErrUnsupportedOperation = errors.New("index: unsupported operation")
)

// ModeError reports a query mode an index type has no engine for.
type ModeError struct {
	Type data.Type
	Mode query.Mode
}

func (e *ModeError) Error() string {
	return fmt.Sprintf("index: %s index has no %q query mode", e.Type, e.Mode)
}

// Is makes errors.Is(err, ErrUnsupportedMode) hold.
func (e *ModeError) Is(target error) bool {
	return target == ErrUnsupportedMode
}

// ChildResolver answers the query for the index a child reference node points at.
type ChildResolver func(ctx context.Context, node schema.Node) (*schema.Response, error)

// Index is a built index: its struct plus the engines that query it.
type Index interface {
	Struct() data.IndexStruct
	// Query runs the engine for mode with params merged over the engine defaults.
	Query(ctx context.Context, text string, mode query.Mode, params query.Params, opts ...QueryOption) (*schema.Response, error)
	// Insert adds a document to an existing index. It must not run concurrently with
	// queries on the same index.
	Insert(ctx context.Context, doc schema.Document) error
}

type queryOptions struct {
	resolve ChildResolver
}

// QueryOption configures a single query.
type QueryOption func(*queryOptions)

// WithChildResolver recurses into child reference nodes through r. Without it a child
// reference is folded like a leaf holding its summary.
func WithChildResolver(r ChildResolver) QueryOption {
	return func(o *queryOptions) { o.resolve = r }
}

// FromStruct wraps a loaded struct in its index.
func FromStruct(sc *service.Context, s data.IndexStruct) (Index, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	b := base{sc: sc}
	switch st := s.(type) {
	case *data.List:
		return &List{base: b, st: st}, nil
	case *data.Tree:
		return &Tree{base: b, st: st}, nil
	case *data.KeywordTable:
		return &KeywordTable{base: b, st: st, opts: defaultBuildOptions()}, nil
	case *data.Dict:
		return &Vector{base: b, dict: st}, nil
	case *data.VectorStore:
		if err := checkStore(sc, st); err != nil {
			return nil, err
		}
		return &Vector{base: b, store: st}, nil
	default:
		return nil, fmt.Errorf("%w: %s", data.ErrUnknownType, s.Type())
	}
}

type base struct {
	sc *service.Context
}

func newQueryOptions(opts []QueryOption) queryOptions {
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

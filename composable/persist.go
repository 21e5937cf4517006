package composable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/smallnest/gptindex/data"
	"github.com/smallnest/gptindex/index"
	"github.com/smallnest/gptindex/service"
	"github.com/smallnest/gptindex/store"
)

// DocstoreVersion is the only persisted graph version this package reads and writes.
const DocstoreVersion = "1"

var (
	// ErrVersionMismatch is returned when a persisted graph has another version.
	ErrVersionMismatch = errors.New("composable: unsupported docstore version")
	// ErrCorruptGraph is returned when a persisted graph cannot be decoded or does not
	// form a valid graph.
	ErrCorruptGraph = errors.New("composable: corrupt graph document")
)

// Document is the persisted form of a graph.
type Document struct {
	DocstoreVersion string                   `json:"docstore_version"`
	RootID          string                   `json:"root_id"`
	IndexStructs    map[string]data.Envelope `json:"index_structs"`
}

// Document returns the persisted form of g.
func (g *Graph) Document() (*Document, error) {
	doc := &Document{
		DocstoreVersion: DocstoreVersion,
		RootID:          g.rootID,
		IndexStructs:    make(map[string]data.Envelope, len(g.indices)),
	}
	for id, idx := range g.indices {
		env, err := data.Encode(idx.Struct())
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", id, err)
		}
		doc.IndexStructs[id] = env
	}
	return doc, nil
}

// MarshalJSON implements json.Marshaler.
func (g *Graph) MarshalJSON() ([]byte, error) {
	doc, err := g.Document()
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// FromDocument rebuilds a graph over sc. Unknown index types, struct ids that differ
// from their keys and graphs that are not closed are reported as ErrCorruptGraph.
func FromDocument(sc *service.Context, doc *Document) (*Graph, error) {
	if doc.DocstoreVersion != DocstoreVersion {
		return nil, fmt.Errorf("%w: %q", ErrVersionMismatch, doc.DocstoreVersion)
	}
	indices := make([]index.Index, 0, len(doc.IndexStructs))
	for id, env := range doc.IndexStructs {
		s, err := data.Decode(env)
		if err != nil {
			return nil, fmt.Errorf("%w: index %s: %w", ErrCorruptGraph, id, err)
		}
		if s.IndexID() != id {
			return nil, fmt.Errorf("%w: index stored as %s has id %s", ErrCorruptGraph, id, s.IndexID())
		}
		idx, err := index.FromStruct(sc, s)
		if err != nil {
			return nil, fmt.Errorf("%w: index %s: %w", ErrCorruptGraph, id, err)
		}
		indices = append(indices, idx)
	}
	g, err := New(sc, doc.RootID, indices...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptGraph, err)
	}
	return g, nil
}

// Unmarshal decodes a graph written by MarshalJSON. The version is checked before
// anything else; the rest of the document is decoded strictly.
func Unmarshal(sc *service.Context, b []byte) (*Graph, error) {
	var head struct {
		DocstoreVersion *string `json:"docstore_version"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptGraph, err)
	}
	if head.DocstoreVersion == nil {
		return nil, fmt.Errorf("%w: missing docstore_version", ErrVersionMismatch)
	}
	if *head.DocstoreVersion != DocstoreVersion {
		return nil, fmt.Errorf("%w: %q", ErrVersionMismatch, *head.DocstoreVersion)
	}

	var doc Document
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptGraph, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after document", ErrCorruptGraph)
	}
	return FromDocument(sc, &doc)
}

// SaveToDisk writes the graph as JSON to path.
func (g *Graph) SaveToDisk(path string) error {
	b, err := g.MarshalJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("save graph: %w", err)
	}
	return nil
}

// LoadFromDisk reads a graph written by SaveToDisk.
func LoadFromDisk(sc *service.Context, path string) (*Graph, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	return Unmarshal(sc, b)
}

// Save stores the graph in st under id.
func (g *Graph) Save(ctx context.Context, st store.GraphStore, id string, metadata map[string]any) error {
	b, err := g.MarshalJSON()
	if err != nil {
		return err
	}
	record := &store.Record{
		ID:        id,
		RootID:    g.rootID,
		Version:   DocstoreVersion,
		Data:      b,
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
	}
	if err := st.Save(ctx, record); err != nil {
		return fmt.Errorf("save graph %s: %w", id, err)
	}
	g.sc.Logger().Info("saved graph %s (root %s, %d indices)", id, g.rootID, len(g.indices))
	return nil
}

// Load reads the graph stored in st under id.
func Load(ctx context.Context, sc *service.Context, st store.GraphStore, id string) (*Graph, error) {
	record, err := st.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load graph %s: %w", id, err)
	}
	if record.Version != DocstoreVersion {
		return nil, fmt.Errorf("%w: record %s has version %q", ErrVersionMismatch, id, record.Version)
	}
	g, err := Unmarshal(sc, record.Data)
	if err != nil {
		return nil, fmt.Errorf("load graph %s: %w", id, err)
	}
	if g.rootID != record.RootID {
		return nil, fmt.Errorf("%w: record %s names root %s, document %s", ErrCorruptGraph, id, record.RootID, g.rootID)
	}
	return g, nil
}

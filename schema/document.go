package schema

import (
	"maps"

	"github.com/google/uuid"
	lcschema "github.com/tmc/langchaingo/schema"
)

// Document is a unit of raw text handed to an index build.
type Document struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewDocument creates a document with a generated id.
func NewDocument(text string) Document {
	return Document{
		ID:   uuid.NewString(),
		Text: text,
	}
}

// NewDocuments wraps each text in a Document.
func NewDocuments(texts ...string) []Document {
	docs := make([]Document, len(texts))
	for i, t := range texts {
		docs[i] = NewDocument(t)
	}
	return docs
}

// FromLangChain converts langchaingo documents, as returned by its document loaders.
func FromLangChain(docs []lcschema.Document) []Document {
	result := make([]Document, len(docs))
	for i, d := range docs {
		doc := NewDocument(d.PageContent)
		if len(d.Metadata) > 0 {
			doc.Metadata = make(map[string]any, len(d.Metadata))
			maps.Copy(doc.Metadata, d.Metadata)
		}
		result[i] = doc
	}
	return result
}

// Package store defines the vector store abstraction backing the
// knowledge base, with Milvus and in-memory implementations.
package store

import (
	"context"
)

// Metadata carries the descriptive fields stored with every chunk.
// All fields are plain strings with empty-string defaults, so the
// stored shape is uniform across backends.
type Metadata struct {
	// Source is the original document filename.
	Source string
	// SourceID is the owning document id.
	SourceID string
	// Type is the document format (txt, pdf, ...).
	Type string
	// UploadTime is the RFC 3339 upload timestamp.
	UploadTime string
}

// Entry is one chunk ready for insertion.
type Entry struct {
	Content   string
	Embedding []float32
	Meta      Metadata
}

// SearchResult is one retrieved chunk.
type SearchResult struct {
	Content string
	Meta    Metadata
	// Score is the cosine similarity to the query, higher is closer.
	Score float32
}

// CollectionConfig describes a vector collection.
type CollectionConfig struct {
	Name        string
	Description string
	Dimension   int
}

// VectorStore is the storage contract of the knowledge base.
type VectorStore interface {
	// EnsureCollection creates the collection when missing.
	EnsureCollection(ctx context.Context, config *CollectionConfig) error

	// Insert adds entries to the collection.
	Insert(ctx context.Context, collection string, entries []*Entry) error

	// Search returns the topK nearest entries for the embedding.
	Search(ctx context.Context, collection string, embedding []float32, topK int) ([]*SearchResult, error)

	// DeleteBySource removes every entry belonging to a document id.
	DeleteBySource(ctx context.Context, collection, sourceID string) error

	// HasSource reports whether any entry belongs to the document id.
	HasSource(ctx context.Context, collection, sourceID string) (bool, error)

	// Drop removes the whole collection. Dropping a missing
	// collection is a no-op.
	Drop(ctx context.Context, collection string) error

	// Count returns the number of stored entries.
	Count(ctx context.Context, collection string) (int64, error)

	// Close releases the backend connection.
	Close(ctx context.Context) error
}

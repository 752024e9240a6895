package biz

import (
	"context"
	"errors"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/askdoc-io/askdoc/internal/askdoc/store"
	"github.com/askdoc-io/askdoc/pkg/llm"
)

// ErrLengthMismatch is returned when chunk and metadata slices differ
// in length. Nothing is written in that case.
var ErrLengthMismatch = errors.New("chunks and metadata length mismatch")

// IndexConfig configures the vector index.
type IndexConfig struct {
	// Collection is the vector collection name.
	Collection string
	// EmbeddingDim is the embedding vector dimension.
	EmbeddingDim int
}

// Index pairs the embedding provider with the vector store. Writes are
// strict, reads degrade: a failed search yields an empty result so a
// question can still be answered with the no-context fallback.
type Index struct {
	store    store.VectorStore
	embedder llm.EmbeddingProvider
	config   *IndexConfig
}

// NewIndex creates a vector index.
func NewIndex(s store.VectorStore, embedder llm.EmbeddingProvider, config *IndexConfig) *Index {
	return &Index{
		store:    s,
		embedder: embedder,
		config:   config,
	}
}

// Ready ensures the backing collection exists.
func (ix *Index) Ready(ctx context.Context) error {
	return ix.store.EnsureCollection(ctx, &store.CollectionConfig{
		Name:        ix.config.Collection,
		Description: "askdoc knowledge base chunks",
		Dimension:   ix.config.EmbeddingDim,
	})
}

// Add embeds chunks and inserts them with their metadata. The two
// slices must correspond pairwise; on mismatch nothing is written.
func (ix *Index) Add(ctx context.Context, chunks []string, metas []store.Metadata) error {
	if len(chunks) != len(metas) {
		return fmt.Errorf("%w: %d chunks, %d metadata records", ErrLengthMismatch, len(chunks), len(metas))
	}
	if len(chunks) == 0 {
		return nil
	}

	embeddings, err := ix.embedder.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embed %d chunks: %w", len(chunks), err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(chunks))
	}

	entries := make([]*store.Entry, len(chunks))
	for i := range chunks {
		entries[i] = &store.Entry{
			Content:   chunks[i],
			Embedding: embeddings[i],
			Meta:      metas[i],
		}
	}
	if err := ix.store.Insert(ctx, ix.config.Collection, entries); err != nil {
		return fmt.Errorf("insert %d entries: %w", len(entries), err)
	}
	return nil
}

// Search embeds the query and returns the topK nearest chunks. Any
// failure degrades to an empty result with a warning.
func (ix *Index) Search(ctx context.Context, query string, topK int) []*store.SearchResult {
	if topK <= 0 {
		return nil
	}

	embedding, err := ix.embedder.EmbedSingle(ctx, query)
	if err != nil {
		logger.Warnw("failed to embed query, returning no results", "error", err.Error())
		return nil
	}

	results, err := ix.store.Search(ctx, ix.config.Collection, embedding, topK)
	if err != nil {
		logger.Warnw("vector search failed, returning no results", "error", err.Error())
		return nil
	}
	return results
}

// EmbedQuery embeds a single question for similarity bookkeeping.
func (ix *Index) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return ix.embedder.EmbedSingle(ctx, query)
}

// DeleteBySource removes every entry of a document.
func (ix *Index) DeleteBySource(ctx context.Context, sourceID string) error {
	return ix.store.DeleteBySource(ctx, ix.config.Collection, sourceID)
}

// HasSource reports whether the document has entries in the store.
func (ix *Index) HasSource(ctx context.Context, sourceID string) (bool, error) {
	return ix.store.HasSource(ctx, ix.config.Collection, sourceID)
}

// Clear drops and recreates the collection.
func (ix *Index) Clear(ctx context.Context) error {
	if err := ix.store.Drop(ctx, ix.config.Collection); err != nil {
		return fmt.Errorf("drop collection %s: %w", ix.config.Collection, err)
	}
	return ix.Ready(ctx)
}

// Count returns the number of stored entries, degrading to zero on
// error.
func (ix *Index) Count(ctx context.Context) int64 {
	count, err := ix.store.Count(ctx, ix.config.Collection)
	if err != nil {
		logger.Warnw("failed to count vector entries", "error", err.Error())
		return 0
	}
	return count
}

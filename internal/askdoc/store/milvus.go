package store

import (
	"context"
	"fmt"

	"github.com/askdoc-io/askdoc/pkg/component/milvus"
)

var _ VectorStore = (*MilvusStore)(nil)

// MilvusStore implements VectorStore on a Milvus collection.
type MilvusStore struct {
	client *milvus.Client
}

// NewMilvusStore creates a Milvus-backed store.
func NewMilvusStore(client *milvus.Client) *MilvusStore {
	return &MilvusStore{client: client}
}

// EnsureCollection creates the chunk collection when missing.
func (s *MilvusStore) EnsureCollection(ctx context.Context, config *CollectionConfig) error {
	schema := &milvus.CollectionSchema{
		Name:        config.Name,
		Description: config.Description,
		Dimension:   config.Dimension,
		VarCharFields: []milvus.VarCharField{
			{Name: "source", MaxLen: 255},
			{Name: "source_id", MaxLen: 64},
			{Name: "type", MaxLen: 16},
			{Name: "upload_time", MaxLen: 64},
			{Name: "content", MaxLen: 65535},
		},
	}
	return s.client.EnsureCollection(ctx, schema)
}

// Insert adds chunk entries to the collection.
func (s *MilvusStore) Insert(ctx context.Context, collection string, entries []*Entry) error {
	if len(entries) == 0 {
		return nil
	}

	embeddings := make([][]float32, len(entries))
	metadata := map[string][]string{
		"source":      make([]string, len(entries)),
		"source_id":   make([]string, len(entries)),
		"type":        make([]string, len(entries)),
		"upload_time": make([]string, len(entries)),
		"content":     make([]string, len(entries)),
	}
	for i, e := range entries {
		embeddings[i] = e.Embedding
		metadata["source"][i] = e.Meta.Source
		metadata["source_id"][i] = e.Meta.SourceID
		metadata["type"][i] = e.Meta.Type
		metadata["upload_time"][i] = e.Meta.UploadTime
		metadata["content"][i] = e.Content
	}

	if _, err := s.client.Insert(ctx, collection, &milvus.InsertData{
		Embeddings: embeddings,
		Metadata:   metadata,
	}); err != nil {
		return fmt.Errorf("failed to insert into milvus: %w", err)
	}
	return nil
}

// Search performs a vector similarity search.
func (s *MilvusStore) Search(ctx context.Context, collection string, embedding []float32, topK int) ([]*SearchResult, error) {
	outputFields := []string{"source", "source_id", "type", "upload_time", "content"}
	results, err := s.client.Search(ctx, collection, embedding, topK, outputFields)
	if err != nil {
		return nil, fmt.Errorf("failed to search milvus: %w", err)
	}

	searchResults := make([]*SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = &SearchResult{
			Content: r.Metadata["content"],
			Score:   r.Score,
			Meta: Metadata{
				Source:     r.Metadata["source"],
				SourceID:   r.Metadata["source_id"],
				Type:       r.Metadata["type"],
				UploadTime: r.Metadata["upload_time"],
			},
		}
	}
	return searchResults, nil
}

// DeleteBySource removes every chunk of a document.
func (s *MilvusStore) DeleteBySource(ctx context.Context, collection, sourceID string) error {
	expr := fmt.Sprintf("source_id == %q", sourceID)
	if err := s.client.DeleteByExpr(ctx, collection, expr); err != nil {
		return fmt.Errorf("failed to delete document chunks: %w", err)
	}
	return nil
}

// HasSource reports whether any chunk of the document is stored.
func (s *MilvusStore) HasSource(ctx context.Context, collection, sourceID string) (bool, error) {
	expr := fmt.Sprintf("source_id == %q", sourceID)
	return s.client.HasRows(ctx, collection, expr)
}

// Drop removes the whole collection.
func (s *MilvusStore) Drop(ctx context.Context, collection string) error {
	return s.client.DropCollection(ctx, collection)
}

// Count returns the number of stored chunks.
func (s *MilvusStore) Count(ctx context.Context, collection string) (int64, error) {
	return s.client.GetCollectionStats(ctx, collection)
}

// Close closes the Milvus connection.
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdoc-io/askdoc/internal/askdoc/store"
)

const testCollection = "chunks_test"

func newMemoryStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	s := store.NewMemoryStore()
	require.NoError(t, s.EnsureCollection(context.Background(), &store.CollectionConfig{
		Name:      testCollection,
		Dimension: 3,
	}))
	return s
}

func entry(content, sourceID string, embedding []float32) *store.Entry {
	return &store.Entry{
		Content:   content,
		Embedding: embedding,
		Meta: store.Metadata{
			Source:   sourceID + ".txt",
			SourceID: sourceID,
			Type:     "txt",
		},
	}
}

func TestMemoryStoreInsertAndSearch(t *testing.T) {
	s := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, testCollection, []*store.Entry{
		entry("exact match", "doc1", []float32{1, 0, 0}),
		entry("orthogonal", "doc2", []float32{0, 1, 0}),
		entry("close", "doc3", []float32{0.9, 0.1, 0}),
	}))

	results, err := s.Search(ctx, testCollection, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	// Ordered by descending similarity.
	assert.Equal(t, "exact match", results[0].Content)
	assert.Equal(t, "close", results[1].Content)
	assert.True(t, results[0].Score >= results[1].Score)
	assert.Equal(t, "doc1", results[0].Meta.SourceID)
}

func TestMemoryStoreInsertDimensionMismatch(t *testing.T) {
	s := newMemoryStore(t)

	err := s.Insert(context.Background(), testCollection, []*store.Entry{
		entry("bad", "doc1", []float32{1, 0}),
	})
	require.Error(t, err)
}

func TestMemoryStoreInsertUnknownCollection(t *testing.T) {
	s := store.NewMemoryStore()

	err := s.Insert(context.Background(), "missing", []*store.Entry{
		entry("x", "doc1", []float32{1, 0, 0}),
	})
	require.Error(t, err)
}

func TestMemoryStoreDeleteBySource(t *testing.T) {
	s := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, testCollection, []*store.Entry{
		entry("a", "doc1", []float32{1, 0, 0}),
		entry("b", "doc1", []float32{0, 1, 0}),
		entry("c", "doc2", []float32{0, 0, 1}),
	}))

	require.NoError(t, s.DeleteBySource(ctx, testCollection, "doc1"))

	count, err := s.Count(ctx, testCollection)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	has, err := s.HasSource(ctx, testCollection, "doc1")
	require.NoError(t, err)
	assert.False(t, has)

	has, err = s.HasSource(ctx, testCollection, "doc2")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestMemoryStoreCountMissingCollection(t *testing.T) {
	s := store.NewMemoryStore()

	count, err := s.Count(context.Background(), "missing")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMemoryStoreDropAndReuse(t *testing.T) {
	s := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, testCollection, []*store.Entry{
		entry("a", "doc1", []float32{1, 0, 0}),
	}))
	require.NoError(t, s.Drop(ctx, testCollection))

	// Search on a dropped collection degrades to empty.
	results, err := s.Search(ctx, testCollection, []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)

	// Recreate and ingest again.
	require.NoError(t, s.EnsureCollection(ctx, &store.CollectionConfig{Name: testCollection, Dimension: 3}))
	require.NoError(t, s.Insert(ctx, testCollection, []*store.Entry{
		entry("b", "doc2", []float32{0, 1, 0}),
	}))
	count, err := s.Count(ctx, testCollection)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

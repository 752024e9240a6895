package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/askdoc-io/askdoc/internal/pkg/textutil"
)

var _ VectorStore = (*MemoryStore)(nil)

// MemoryStore is a brute-force in-memory VectorStore. It serves
// single-node deployments and tests where running Milvus is overkill.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	dimension int
	entries   []*Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

// EnsureCollection creates the collection when missing.
func (s *MemoryStore) EnsureCollection(_ context.Context, config *CollectionConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[config.Name]; !ok {
		s.collections[config.Name] = &memoryCollection{dimension: config.Dimension}
	}
	return nil
}

// Insert adds entries to the collection.
func (s *MemoryStore) Insert(_ context.Context, collection string, entries []*Entry) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("collection %q does not exist", collection)
	}
	for _, e := range entries {
		if coll.dimension > 0 && len(e.Embedding) != coll.dimension {
			return fmt.Errorf("embedding dimension %d does not match collection dimension %d", len(e.Embedding), coll.dimension)
		}
	}
	coll.entries = append(coll.entries, entries...)
	return nil
}

// Search scans the collection and returns the topK entries by cosine
// similarity in descending order.
func (s *MemoryStore) Search(_ context.Context, collection string, embedding []float32, topK int) ([]*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	coll, ok := s.collections[collection]
	if !ok {
		return []*SearchResult{}, nil
	}

	results := make([]*SearchResult, 0, len(coll.entries))
	for _, e := range coll.entries {
		results = append(results, &SearchResult{
			Content: e.Content,
			Meta:    e.Meta,
			Score:   float32(textutil.CosineSimilarity(embedding, e.Embedding)),
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// DeleteBySource removes every entry of a document.
func (s *MemoryStore) DeleteBySource(_ context.Context, collection, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.collections[collection]
	if !ok {
		return nil
	}

	kept := coll.entries[:0]
	for _, e := range coll.entries {
		if e.Meta.SourceID != sourceID {
			kept = append(kept, e)
		}
	}
	coll.entries = kept
	return nil
}

// HasSource reports whether any entry of the document is stored.
func (s *MemoryStore) HasSource(_ context.Context, collection, sourceID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	coll, ok := s.collections[collection]
	if !ok {
		return false, nil
	}
	for _, e := range coll.entries {
		if e.Meta.SourceID == sourceID {
			return true, nil
		}
	}
	return false, nil
}

// Drop removes the whole collection.
func (s *MemoryStore) Drop(_ context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, collection)
	return nil
}

// Count returns the number of stored entries. Missing collections
// count as zero.
func (s *MemoryStore) Count(_ context.Context, collection string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	coll, ok := s.collections[collection]
	if !ok {
		return 0, nil
	}
	return int64(len(coll.entries)), nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close(_ context.Context) error {
	return nil
}

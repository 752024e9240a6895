package biz

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kart-io/logger"

	"github.com/askdoc-io/askdoc/internal/askdoc/registry"
	"github.com/askdoc-io/askdoc/internal/askdoc/store"
	"github.com/askdoc-io/askdoc/internal/pkg/parser"
	"github.com/askdoc-io/askdoc/internal/pkg/textutil"
)

// persistedTag marks documents rebuilt from the registry at startup.
const persistedTag = "persisted"

// ManagerConfig configures the knowledge-base manager.
type ManagerConfig struct {
	// UploadDir holds original document bytes.
	UploadDir string
	// Splitter selects the chunking strategy: "characters" or "words".
	Splitter string
	// ChunkSize is the rune window for the character splitter.
	ChunkSize int
	// ChunkOverlap is the rune overlap for the character splitter.
	ChunkOverlap int
	// WordChunkSize is the window for the word splitter.
	WordChunkSize int
}

// Manager owns the document lifecycle: ingestion, deletion, restore,
// purge, tagging and the startup reconciliation that rebuilds state
// from the registry. A single write lock covers every mutating
// operation; reads take snapshots under a read lock.
type Manager struct {
	mu sync.RWMutex

	active   []*Document
	deleted  []*DeletedDocument
	registry *registry.Registry
	index    *Index
	config   *ManagerConfig
}

// NewManager creates a knowledge-base manager.
func NewManager(reg *registry.Registry, index *Index, config *ManagerConfig) *Manager {
	return &Manager{
		registry: reg,
		index:    index,
		config:   config,
	}
}

// AddFile ingests one uploaded document: fingerprint, dedup, parse,
// persist, chunk and index. Duplicate, empty and chunk-free uploads
// are non-error outcomes reported through AddResult.Status.
func (m *Manager) AddFile(ctx context.Context, name string, data []byte) (*AddResult, error) {
	id := textutil.Fingerprint(data)

	m.mu.Lock()
	defer m.mu.Unlock()

	if doc := m.findActive(id); doc != nil {
		logger.Infow("duplicate upload skipped", "id", id, "name", name, "existing", doc.Name)
		return &AddResult{ID: id, Name: name, Status: StatusDuplicate}, nil
	}

	content, err := parser.Parse(name, data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		// Nothing extractable. Abort before touching disk or the
		// registry.
		logger.Warnw("document contained no extractable text", "id", id, "name", name)
		return &AddResult{ID: id, Name: name, Status: StatusEmpty}, nil
	}

	storedPath, err := m.persist(id, name, data)
	if err != nil {
		return nil, err
	}
	if err := m.registry.Register(id, name, storedPath); err != nil {
		return nil, fmt.Errorf("register document %s: %w", id, err)
	}

	now := time.Now()
	doc := &Document{
		ID:          id,
		Name:        name,
		Type:        formatOf(name),
		Content:     content,
		StoragePath: storedPath,
		UploadTime:  now,
		Tags:        []string{},
	}

	chunks := m.splitContent(content)
	if len(chunks) == 0 {
		// Registered but unindexed; reconciliation will retry the
		// chunking on the next startup.
		m.active = append(m.active, doc)
		logger.Warnw("document produced no chunks", "id", id, "name", name)
		return &AddResult{ID: id, Name: name, Status: StatusNoChunks}, nil
	}

	if err := m.index.Add(ctx, chunks, m.buildMetas(doc, chunks)); err != nil {
		// The document is registered and its bytes stored; the vector
		// entries are missing. Reconciliation closes this window.
		return nil, fmt.Errorf("index document %s: %w", id, err)
	}

	doc.Chunks = len(chunks)
	m.active = append(m.active, doc)
	logger.Infow("document added", "id", id, "name", name, "chunks", len(chunks))
	return &AddResult{ID: id, Name: name, Status: StatusAdded, Chunks: len(chunks)}, nil
}

// Delete removes a document from the active set: its vector entries,
// stored bytes and registry entry. The document copy is captured
// before any removal so restore always has the full content. It
// reports whether the id was active.
func (m *Manager) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc := m.findActive(id)
	if doc == nil {
		return false, nil
	}

	// Capture first. The copy must be complete before anything is
	// torn down.
	copied := *doc
	copied.Tags = append([]string(nil), doc.Tags...)
	removed := &DeletedDocument{Document: copied, DeletedTime: time.Now()}

	// Vector delete goes first; if it fails nothing has changed yet.
	if err := m.index.DeleteBySource(ctx, id); err != nil {
		return false, fmt.Errorf("delete vector entries for %s: %w", id, err)
	}

	if doc.StoragePath != "" {
		if err := os.Remove(doc.StoragePath); err != nil && !os.IsNotExist(err) {
			logger.Warnw("failed to remove stored file", "id", id, "path", doc.StoragePath, "error", err.Error())
		}
	}
	if _, err := m.registry.Unregister(id); err != nil {
		logger.Warnw("failed to unregister document", "id", id, "error", err.Error())
	}

	kept := m.active[:0]
	for _, d := range m.active {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	m.active = kept
	m.deleted = append(m.deleted, removed)

	logger.Infow("document deleted", "id", id, "name", doc.Name)
	return true, nil
}

// Restore moves a deleted document back to the active set, re-chunking
// its retained content and re-indexing. The original bytes are gone,
// so only memory and vector state come back. It reports whether the id
// was in the deleted set.
func (m *Manager) Restore(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed *DeletedDocument
	for _, d := range m.deleted {
		if d.ID == id {
			removed = d
			break
		}
	}
	if removed == nil {
		return false, nil
	}

	doc := removed.Document
	chunks := m.splitContent(doc.Content)
	if len(chunks) > 0 {
		if err := m.index.Add(ctx, chunks, m.buildMetas(&doc, chunks)); err != nil {
			return false, fmt.Errorf("re-index document %s: %w", id, err)
		}
	}
	doc.Chunks = len(chunks)

	kept := m.deleted[:0]
	for _, d := range m.deleted {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	m.deleted = kept
	m.active = append(m.active, &doc)

	logger.Infow("document restored", "id", id, "name", doc.Name, "chunks", len(chunks))
	return true, nil
}

// PurgeDeleted clears the deleted set for good and returns how many
// documents were discarded.
func (m *Manager) PurgeDeleted() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.deleted)
	m.deleted = nil
	if n > 0 {
		logger.Infow("purged deleted documents", "count", n)
	}
	return n
}

// ToggleTag flips a tag on an active document: present tags are
// removed, absent tags added. Toggling twice is the identity. It
// reports whether the id was active.
func (m *Manager) ToggleTag(id, tag string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc := m.findActive(id)
	if doc == nil {
		return false
	}

	for i, t := range doc.Tags {
		if t == tag {
			doc.Tags = append(doc.Tags[:i], doc.Tags[i+1:]...)
			return true
		}
	}
	doc.Tags = append(doc.Tags, tag)
	return true
}

// Reconcile rebuilds the in-memory view from the registry at startup
// and closes the orphan window: registered documents without vector
// entries are re-indexed. Registry entries whose file is gone are
// counted as dangling and skipped.
func (m *Manager) Reconcile(ctx context.Context) (*ReconcileStats, error) {
	entries, err := m.registry.Load()
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &ReconcileStats{}
	for id, entry := range entries {
		if m.findActive(id) != nil {
			continue
		}

		data, err := os.ReadFile(entry.Filepath)
		if err != nil {
			logger.Warnw("registered file missing on disk", "id", id, "path", entry.Filepath)
			stats.Dangling++
			continue
		}

		content, err := parser.Parse(entry.Filename, data)
		if err != nil {
			logger.Warnw("failed to parse registered file", "id", id, "name", entry.Filename, "error", err.Error())
			stats.Dangling++
			continue
		}

		doc := &Document{
			ID:          id,
			Name:        entry.Filename,
			Type:        formatOf(entry.Filename),
			Content:     content,
			StoragePath: entry.Filepath,
			UploadTime:  entry.Timestamp,
			Tags:        []string{persistedTag},
		}

		chunks := m.splitContent(content)
		doc.Chunks = len(chunks)

		indexed, err := m.index.HasSource(ctx, id)
		if err != nil {
			logger.Warnw("failed to check vector entries", "id", id, "error", err.Error())
			indexed = true // do not double-insert on a flaky check
		}
		if !indexed && len(chunks) > 0 {
			if err := m.index.Add(ctx, chunks, m.buildMetas(doc, chunks)); err != nil {
				logger.Errorw("failed to re-index document", "id", id, "error", err.Error())
			} else {
				stats.Reindexed++
			}
		}

		m.active = append(m.active, doc)
		stats.Loaded++
	}

	logger.Infow("reconciliation finished",
		"loaded", stats.Loaded, "reindexed", stats.Reindexed, "dangling", stats.Dangling)
	return stats, nil
}

// ClearAll wipes the knowledge base: stored files, registry, vector
// collection and in-memory state.
func (m *Manager) ClearAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.registry.Load()
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}
	for id, entry := range entries {
		if err := os.Remove(entry.Filepath); err != nil && !os.IsNotExist(err) {
			logger.Warnw("failed to remove stored file", "id", id, "path", entry.Filepath, "error", err.Error())
		}
	}
	if err := m.registry.Reset(); err != nil {
		return fmt.Errorf("reset registry: %w", err)
	}
	if err := m.index.Clear(ctx); err != nil {
		return fmt.Errorf("clear vector index: %w", err)
	}

	m.active = nil
	m.deleted = nil
	logger.Infow("knowledge base cleared")
	return nil
}

// ListActive returns a snapshot of active documents.
func (m *Manager) ListActive() []*Document {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Document, len(m.active))
	for i, d := range m.active {
		copied := *d
		copied.Tags = append([]string(nil), d.Tags...)
		out[i] = &copied
	}
	return out
}

// ListDeleted returns a snapshot of deleted documents.
func (m *Manager) ListDeleted() []*DeletedDocument {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*DeletedDocument, len(m.deleted))
	for i, d := range m.deleted {
		copied := *d
		copied.Tags = append([]string(nil), d.Tags...)
		out[i] = &copied
	}
	return out
}

// Stats returns a point-in-time snapshot.
func (m *Manager) Stats(ctx context.Context) *Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	chunks := 0
	for _, d := range m.active {
		chunks += d.Chunks
	}
	return &Stats{
		ActiveDocuments:  len(m.active),
		DeletedDocuments: len(m.deleted),
		Chunks:           chunks,
		VectorEntries:    m.index.Count(ctx),
	}
}

func (m *Manager) findActive(id string) *Document {
	for _, d := range m.active {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// persist writes the original bytes under the upload directory as
// "{id}_{sanitized name}".
func (m *Manager) persist(id, name string, data []byte) (string, error) {
	if err := os.MkdirAll(m.config.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir %s: %w", m.config.UploadDir, err)
	}
	path := filepath.Join(m.config.UploadDir, id+"_"+textutil.SanitizeFilename(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("store document bytes: %w", err)
	}
	return path, nil
}

func (m *Manager) splitContent(content string) []string {
	var raw []string
	if m.config.Splitter == "words" {
		raw = textutil.SplitWords(content, m.config.WordChunkSize)
	} else {
		raw = textutil.SplitIntoChunks(content, m.config.ChunkSize, m.config.ChunkOverlap)
	}

	chunks := raw[:0]
	for _, c := range raw {
		if strings.TrimSpace(c) != "" {
			chunks = append(chunks, c)
		}
	}
	return chunks
}

func (m *Manager) buildMetas(doc *Document, chunks []string) []store.Metadata {
	metas := make([]store.Metadata, len(chunks))
	for i := range chunks {
		metas[i] = store.Metadata{
			Source:     doc.Name,
			SourceID:   doc.ID,
			Type:       doc.Type,
			UploadTime: doc.UploadTime.Format(time.RFC3339),
		}
	}
	return metas
}

func formatOf(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

package biz

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdoc-io/askdoc/internal/askdoc/registry"
)

func newTestManager(t *testing.T) (*Manager, *Index, *registry.Registry) {
	t.Helper()
	dir := t.TempDir()
	reg := registry.New(filepath.Join(dir, "registry.json"))
	ix := newTestIndex(t, newFakeEmbedder())
	mgr := NewManager(reg, ix, &ManagerConfig{
		UploadDir:    filepath.Join(dir, "uploads"),
		Splitter:     "characters",
		ChunkSize:    40,
		ChunkOverlap: 8,
	})
	return mgr, ix, reg
}

func TestManagerAddFile(t *testing.T) {
	mgr, ix, reg := newTestManager(t)
	ctx := context.Background()
	data := []byte("The quick brown fox jumps over the lazy dog. Again and again it jumps.")

	res, err := mgr.AddFile(ctx, "fox.txt", data)
	require.NoError(t, err)
	assert.Equal(t, StatusAdded, res.Status)
	assert.Greater(t, res.Chunks, 0)

	active := mgr.ListActive()
	require.Len(t, active, 1)
	assert.Equal(t, "fox.txt", active[0].Name)
	assert.Equal(t, "txt", active[0].Type)
	assert.FileExists(t, active[0].StoragePath)

	entries, err := reg.Load()
	require.NoError(t, err)
	require.Contains(t, entries, res.ID)

	ok, err := ix.HasSource(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestManagerAddFileDuplicate(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	ctx := context.Background()
	data := []byte("duplicate detection works on content, not names")

	first, err := mgr.AddFile(ctx, "a.txt", data)
	require.NoError(t, err)
	require.Equal(t, StatusAdded, first.Status)

	second, err := mgr.AddFile(ctx, "renamed.txt", data)
	require.NoError(t, err)
	assert.Equal(t, StatusDuplicate, second.Status)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, mgr.ListActive(), 1)
}

func TestManagerAddFileEmpty(t *testing.T) {
	mgr, _, reg := newTestManager(t)
	ctx := context.Background()

	res, err := mgr.AddFile(ctx, "blank.txt", []byte("   \n\t  "))
	require.NoError(t, err)
	assert.Equal(t, StatusEmpty, res.Status)
	assert.Empty(t, mgr.ListActive())

	// Nothing was persisted or registered.
	entries, err := reg.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestManagerDeleteAndRestore(t *testing.T) {
	mgr, ix, reg := newTestManager(t)
	ctx := context.Background()

	res, err := mgr.AddFile(ctx, "fox.txt", []byte("The quick brown fox jumps over the lazy dog."))
	require.NoError(t, err)
	storedPath := mgr.ListActive()[0].StoragePath

	ok, err := mgr.Delete(ctx, res.ID)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Empty(t, mgr.ListActive())
	require.Len(t, mgr.ListDeleted(), 1)
	assert.False(t, mgr.ListDeleted()[0].DeletedTime.IsZero())
	assert.NoFileExists(t, storedPath)

	entries, err := reg.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)

	indexed, err := ix.HasSource(ctx, res.ID)
	require.NoError(t, err)
	assert.False(t, indexed)

	ok, err = mgr.Restore(ctx, res.ID)
	require.NoError(t, err)
	require.True(t, ok)

	active := mgr.ListActive()
	require.Len(t, active, 1)
	assert.Equal(t, res.Chunks, active[0].Chunks)
	assert.Empty(t, mgr.ListDeleted())

	indexed, err = ix.HasSource(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, indexed)
}

func TestManagerDeleteUnknown(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	ok, err := mgr.Delete(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = mgr.Restore(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManagerPurgeDeleted(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	ctx := context.Background()

	res, err := mgr.AddFile(ctx, "fox.txt", []byte("The quick brown fox jumps over the lazy dog."))
	require.NoError(t, err)
	_, err = mgr.Delete(ctx, res.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, mgr.PurgeDeleted())
	assert.Empty(t, mgr.ListDeleted())
	assert.Equal(t, 0, mgr.PurgeDeleted())

	// Purged documents cannot come back.
	ok, err := mgr.Restore(ctx, res.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManagerToggleTag(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	ctx := context.Background()

	res, err := mgr.AddFile(ctx, "fox.txt", []byte("The quick brown fox jumps over the lazy dog."))
	require.NoError(t, err)

	require.True(t, mgr.ToggleTag(res.ID, "reviewed"))
	assert.Equal(t, []string{"reviewed"}, mgr.ListActive()[0].Tags)

	require.True(t, mgr.ToggleTag(res.ID, "reviewed"))
	assert.Empty(t, mgr.ListActive()[0].Tags)

	assert.False(t, mgr.ToggleTag("nope", "reviewed"))
}

func TestManagerReconcile(t *testing.T) {
	dir := t.TempDir()
	reg := registry.New(filepath.Join(dir, "registry.json"))
	cfg := &ManagerConfig{
		UploadDir:    filepath.Join(dir, "uploads"),
		Splitter:     "characters",
		ChunkSize:    40,
		ChunkOverlap: 8,
	}
	ctx := context.Background()

	first := NewManager(reg, newTestIndex(t, newFakeEmbedder()), cfg)
	res, err := first.AddFile(ctx, "fox.txt", []byte("The quick brown fox jumps over the lazy dog."))
	require.NoError(t, err)

	// A fresh index simulates a vector store that lost its entries.
	ix := newTestIndex(t, newFakeEmbedder())
	second := NewManager(reg, ix, cfg)

	stats, err := second.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Loaded)
	assert.Equal(t, 1, stats.Reindexed)
	assert.Equal(t, 0, stats.Dangling)

	active := second.ListActive()
	require.Len(t, active, 1)
	assert.Equal(t, res.ID, active[0].ID)
	assert.Contains(t, active[0].Tags, "persisted")

	indexed, err := ix.HasSource(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, indexed)

	// A second pass is a no-op for already loaded documents.
	stats, err = second.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Loaded)
	assert.Equal(t, 0, stats.Reindexed)
}

func TestManagerReconcileDangling(t *testing.T) {
	dir := t.TempDir()
	reg := registry.New(filepath.Join(dir, "registry.json"))
	require.NoError(t, reg.Register("gone", "gone.txt", filepath.Join(dir, "uploads", "gone_gone.txt")))

	mgr := NewManager(reg, newTestIndex(t, newFakeEmbedder()), &ManagerConfig{
		UploadDir: filepath.Join(dir, "uploads"),
		Splitter:  "characters",
		ChunkSize: 40,
	})

	stats, err := mgr.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Loaded)
	assert.Equal(t, 1, stats.Dangling)
	assert.Empty(t, mgr.ListActive())
}

func TestManagerClearAll(t *testing.T) {
	mgr, ix, reg := newTestManager(t)
	ctx := context.Background()

	res, err := mgr.AddFile(ctx, "fox.txt", []byte("The quick brown fox jumps over the lazy dog."))
	require.NoError(t, err)
	storedPath := mgr.ListActive()[0].StoragePath

	require.NoError(t, mgr.ClearAll(ctx))

	assert.Empty(t, mgr.ListActive())
	assert.Empty(t, mgr.ListDeleted())
	assert.NoFileExists(t, storedPath)
	assert.Equal(t, int64(0), ix.Count(ctx))

	entries, err := reg.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)

	// The knowledge base accepts new uploads after a wipe.
	again, err := mgr.AddFile(ctx, "fox.txt", []byte("The quick brown fox jumps over the lazy dog."))
	require.NoError(t, err)
	assert.Equal(t, StatusAdded, again.Status)
	assert.Equal(t, res.ID, again.ID)
}

func TestManagerWordSplitter(t *testing.T) {
	dir := t.TempDir()
	mgr := NewManager(
		registry.New(filepath.Join(dir, "registry.json")),
		newTestIndex(t, newFakeEmbedder()),
		&ManagerConfig{
			UploadDir:     filepath.Join(dir, "uploads"),
			Splitter:      "words",
			WordChunkSize: 3,
		},
	)

	res, err := mgr.AddFile(context.Background(), "words.txt",
		[]byte("one two three four five six seven"))
	require.NoError(t, err)
	assert.Equal(t, StatusAdded, res.Status)
	assert.Equal(t, 3, res.Chunks)
}

func TestManagerStats(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	ctx := context.Background()

	res, err := mgr.AddFile(ctx, "fox.txt", []byte("The quick brown fox jumps over the lazy dog."))
	require.NoError(t, err)

	stats := mgr.Stats(ctx)
	assert.Equal(t, 1, stats.ActiveDocuments)
	assert.Equal(t, 0, stats.DeletedDocuments)
	assert.Equal(t, res.Chunks, stats.Chunks)
	assert.Equal(t, int64(res.Chunks), stats.VectorEntries)

	_, err = mgr.Delete(ctx, res.ID)
	require.NoError(t, err)

	stats = mgr.Stats(ctx)
	assert.Equal(t, 0, stats.ActiveDocuments)
	assert.Equal(t, 1, stats.DeletedDocuments)
	assert.Equal(t, int64(0), stats.VectorEntries)
}

func TestManagerStoredFileName(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	res, err := mgr.AddFile(context.Background(), "../../etc/notes.txt",
		[]byte("path traversal in the name must not escape the upload dir"))
	require.NoError(t, err)

	path := mgr.ListActive()[0].StoragePath
	assert.Equal(t, res.ID+"_notes.txt", filepath.Base(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

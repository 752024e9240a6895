package registry_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdoc-io/askdoc/internal/askdoc/registry"
)

func newTestRegistry(t *testing.T) (*registry.Registry, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.json")
	return registry.New(path), path
}

func TestRegisterAndLoad(t *testing.T) {
	reg, path := newTestRegistry(t)

	require.NoError(t, reg.Register("abc12345", "report.pdf", "/data/abc12345_report.pdf"))

	entries, err := reg.Load()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "report.pdf", entries["abc12345"].Filename)
	assert.Equal(t, "/data/abc12345_report.pdf", entries["abc12345"].Filepath)
	assert.False(t, entries["abc12345"].Timestamp.IsZero())

	// Entries survive a restart.
	entries, err = registry.New(path).Load()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRegisterOverwrites(t *testing.T) {
	reg, _ := newTestRegistry(t)

	require.NoError(t, reg.Register("id1", "old.txt", "/data/id1_old.txt"))
	require.NoError(t, reg.Register("id1", "new.txt", "/data/id1_new.txt"))

	entries, err := reg.Load()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new.txt", entries["id1"].Filename)
}

func TestUnregister(t *testing.T) {
	reg, _ := newTestRegistry(t)
	require.NoError(t, reg.Register("id1", "a.txt", "/data/id1_a.txt"))

	existed, err := reg.Unregister("id1")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = reg.Unregister("id1")
	require.NoError(t, err)
	assert.False(t, existed)

	entries, err := reg.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadMissingFile(t *testing.T) {
	reg := registry.New(filepath.Join(t.TempDir(), "does", "not", "exist.json"))

	entries, err := reg.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	entries, err := registry.New(path).Load()
	require.NoError(t, err)
	assert.Empty(t, entries)

	// A damaged catalog must not block new registrations.
	require.NoError(t, registry.New(path).Register("id1", "a.txt", "/data/id1_a.txt"))
	entries, err = registry.New(path).Load()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReset(t *testing.T) {
	reg, _ := newTestRegistry(t)
	require.NoError(t, reg.Register("id1", "a.txt", "/data/id1_a.txt"))
	require.NoError(t, reg.Register("id2", "b.txt", "/data/id2_b.txt"))

	require.NoError(t, reg.Reset())

	entries, err := reg.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// Package registry persists the document catalog: a JSON mapping from
// document id to the stored file's name, path and upload timestamp.
// The registry is the durable source of truth the knowledge base
// rebuilds from at startup.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kart-io/logger"
)

// Entry describes one registered document.
type Entry struct {
	Filename  string    `json:"filename"`
	Filepath  string    `json:"filepath"`
	Timestamp time.Time `json:"timestamp"`
}

// Registry is a file-backed id → Entry map. All operations are safe
// for concurrent use and write through to disk atomically.
type Registry struct {
	mu   sync.Mutex
	path string
}

// New returns a registry backed by the JSON file at path. The file is
// created on first write.
func New(path string) *Registry {
	return &Registry{path: path}
}

// Load reads the registry from disk. A missing or corrupt file
// degrades to an empty registry with a warning; ingestion must never
// be blocked by a damaged catalog.
func (r *Registry) Load() (map[string]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *Registry) load() (map[string]Entry, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Entry{}, nil
		}
		return nil, fmt.Errorf("read registry %s: %w", r.path, err)
	}

	entries := map[string]Entry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Warnw("registry file corrupt, starting empty", "path", r.path, "error", err.Error())
		return map[string]Entry{}, nil
	}
	return entries, nil
}

// Register records a document and persists the catalog. Registering an
// existing id overwrites its entry.
func (r *Registry) Register(id, filename, storedPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	if err != nil {
		return err
	}
	entries[id] = Entry{
		Filename:  filename,
		Filepath:  storedPath,
		Timestamp: time.Now(),
	}
	return r.save(entries)
}

// Unregister removes a document and persists the catalog. It reports
// whether the id was present.
func (r *Registry) Unregister(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	if err != nil {
		return false, err
	}
	if _, ok := entries[id]; !ok {
		return false, nil
	}
	delete(entries, id)
	return true, r.save(entries)
}

// Reset empties the registry on disk.
func (r *Registry) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save(map[string]Entry{})
}

// save writes entries atomically: temp file in the same directory,
// then rename over the target.
func (r *Registry) save(entries map[string]Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create registry dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".registry-*.json")
	if err != nil {
		return fmt.Errorf("create registry temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close registry temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace registry %s: %w", r.path, err)
	}
	return nil
}

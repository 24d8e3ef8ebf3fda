package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// manifestEntry records a file as it was at the last sync between the source
// and its staging copy.
type manifestEntry struct {
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

func (e *manifestEntry) matches(info os.FileInfo) bool {
	return e.Size == info.Size() && e.ModTime.Equal(info.ModTime())
}

type manifestIndex struct {
	Version int                       `json:"version"`
	Source  string                    `json:"source"`
	Entries map[string]*manifestEntry `json:"entries"` // Key is the slash separated relative path
	dirty   bool
	mu      sync.RWMutex
}

// manifest tracks every file synced into a staging copy. It lives next to the
// copy, never inside it, so it is not mirrored back.
type manifest struct {
	Path  string
	index *manifestIndex
}

func newManifest(path, source string) *manifest {
	return &manifest{
		Path: path,
		index: &manifestIndex{
			Version: 1,
			Source:  source,
			Entries: make(map[string]*manifestEntry),
		},
	}
}

// Save persists the manifest if it changed.
func (m *manifest) Save() error {
	m.index.mu.RLock()
	if !m.index.dirty {
		m.index.mu.RUnlock()
		return nil
	}
	data, err := json.MarshalIndent(m.index, "", "  ")
	m.index.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := WriteFileAtomic(m.Path, data, 0o644); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}

	m.index.mu.Lock()
	m.index.dirty = false
	m.index.mu.Unlock()
	return nil
}

// Get returns the entry recorded for rel.
func (m *manifest) Get(rel string) (*manifestEntry, bool) {
	m.index.mu.RLock()
	defer m.index.mu.RUnlock()
	e, ok := m.index.Entries[rel]
	return e, ok
}

func (m *manifest) Set(rel string, info os.FileInfo) {
	m.index.mu.Lock()
	defer m.index.mu.Unlock()
	m.index.Entries[rel] = &manifestEntry{Size: info.Size(), ModTime: info.ModTime()}
	m.index.dirty = true
}

func (m *manifest) Delete(rel string) {
	m.index.mu.Lock()
	defer m.index.mu.Unlock()
	delete(m.index.Entries, rel)
	m.index.dirty = true
}

// Missing returns the recorded paths that are not in keep.
func (m *manifest) Missing(keep map[string]bool) []string {
	m.index.mu.RLock()
	defer m.index.mu.RUnlock()
	var out []string
	for rel := range m.index.Entries {
		if !keep[rel] {
			out = append(out, rel)
		}
	}
	return out
}

func (m *manifest) Len() int {
	m.index.mu.RLock()
	defer m.index.mu.RUnlock()
	return len(m.index.Entries)
}

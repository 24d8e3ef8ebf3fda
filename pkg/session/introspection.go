package session

import (
	"github.com/aretw0/introspection"
)

// WorldState exposes internal state for observability.
type WorldState struct {
	ID            string `json:"id"`
	Source        string `json:"source"`
	Mode          string `json:"mode"`
	Kind          string `json:"kind"`
	StagingDir    string `json:"staging_dir,omitempty"`
	StoreType     string `json:"store_type,omitempty"`
	StoreOpen     bool   `json:"store_open"`
	OpenError     string `json:"open_error,omitempty"`
	Classified    bool   `json:"classified"`
	Keys          int    `json:"keys"`
	Entries       int    `json:"entries"`
	Selected      int    `json:"selected_entry,omitempty"`
	Modified      bool   `json:"modified"`
	Saving        bool   `json:"saving"`
	Closed        bool   `json:"closed"`
	WatcherActive bool   `json:"watcher_active"`
}

// State implements introspection.Introspectable.
func (w *World) State() any {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := WorldState{
		ID:         string(w.ID),
		Source:     w.Source,
		Mode:       w.Mode.String(),
		Kind:       w.Kind.String(),
		StagingDir: w.StagingDir(),
		Classified: w.classification != nil,
		Entries:    len(w.entries),
		Selected:   int(w.selected),
		Modified:   w.modified,
		Saving:     w.saving.Load(),
		Closed:     w.closed,
	}
	if w.store != nil {
		s.StoreOpen = w.store.IsOpen()
		s.StoreType = "store"
		if comp, ok := w.store.(introspection.Component); ok {
			s.StoreType = comp.ComponentType()
		}
	}
	if w.openErr != nil {
		s.OpenError = w.openErr.Error()
	}
	if w.classification != nil {
		s.Keys = w.classification.Len()
	}
	if w.watcher != nil {
		s.WatcherActive = w.watcher.Active()
	}
	return s
}

// ComponentType implements introspection.Component.
func (w *World) ComponentType() string {
	return "world"
}

var _ introspection.Introspectable = (*World)(nil)
var _ introspection.Component = (*World)(nil)

// ManagerState exposes internal state for observability.
type ManagerState struct {
	Selected string       `json:"selected,omitempty"`
	Worlds   []WorldState `json:"worlds"`
}

// State implements introspection.Introspectable.
func (m *Manager) State() any {
	worlds := m.Worlds()
	s := ManagerState{Worlds: make([]WorldState, 0, len(worlds))}
	if sel := m.Selected(); sel != nil {
		s.Selected = string(sel.ID)
	}
	for _, w := range worlds {
		s.Worlds = append(s.Worlds, w.State().(WorldState))
	}
	return s
}

// ComponentType implements introspection.Component.
func (m *Manager) ComponentType() string {
	return "session-manager"
}

var _ introspection.Introspectable = (*Manager)(nil)
var _ introspection.Component = (*Manager)(nil)

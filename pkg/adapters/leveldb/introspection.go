package leveldb

import "github.com/aretw0/introspection"

// StoreState exposes internal state for observability.
type StoreState struct {
	Path     string `json:"path"`
	Open     bool   `json:"open"`
	ReadOnly bool   `json:"read_only"`
	Gets     int    `json:"gets"`
	Puts     int    `json:"puts"`
	Deletes  int    `json:"deletes"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StoreState{
		Path:     s.config.Path,
		Open:     s.db != nil,
		ReadOnly: s.config.ReadOnly,
		Gets:     s.gets,
		Puts:     s.puts,
		Deletes:  s.deletes,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "leveldb"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)

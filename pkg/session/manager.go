package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/worldkit/pkg/core"
)

// ErrUnknownWorld is returned for a WorldID that is not open.
var ErrUnknownWorld = errors.New("unknown world")

// Manager keeps the ordered set of open worlds and the selected one. World
// events are relayed to the manager's subscribers.
type Manager struct {
	config Config

	mu       sync.Mutex
	worlds   []*World
	unsub    map[WorldID]func()
	selected WorldID

	obs observers
}

// NewManager creates a manager whose worlds share config.
func NewManager(config Config) *Manager {
	return &Manager{
		config: config.withDefaults(),
		unsub:  make(map[WorldID]func()),
	}
}

// Config returns the configuration shared by the manager's worlds.
func (m *Manager) Config() Config { return m.config }

// Subscribe registers fn for manager and world events.
func (m *Manager) Subscribe(fn func(core.Event)) func() {
	return m.obs.subscribe(fn)
}

// Watch streams events on a buffered channel until ctx is done. Events are
// dropped while the channel is full.
func (m *Manager) Watch(ctx context.Context) <-chan core.Event {
	out := make(chan core.Event, 64)
	var (
		mu     sync.Mutex
		closed bool
	)
	unsub := m.Subscribe(func(e core.Event) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case out <- e:
		default:
			m.config.Logger.Warn("event dropped", "type", e.Type)
		}
	})
	go func() {
		<-ctx.Done()
		unsub()
		mu.Lock()
		closed = true
		close(out)
		mu.Unlock()
	}()
	return out
}

// Open opens a world and selects it.
func (m *Manager) Open(ctx context.Context, source string, mode core.AccessMode) (*World, error) {
	w, err := OpenWorld(ctx, source, mode, m.config)
	if err != nil {
		return nil, err
	}
	unsub := w.Subscribe(func(e core.Event) { m.obs.emit(e) })

	m.mu.Lock()
	m.worlds = append(m.worlds, w)
	m.unsub[w.ID] = unsub
	m.selected = w.ID
	m.mu.Unlock()

	opened := newEvent(core.EventWorldOpened, w.ID, 0)
	opened.Path = w.Source
	opened.Message = mode.String()
	if err := w.OpenErr(); err != nil {
		opened.Err = err
	}
	m.obs.emit(opened, newEvent(core.EventWorldSwitched, w.ID, 0))
	return w, nil
}

// World looks up an open world.
func (m *Manager) World(id WorldID) (*World, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(id)
	if i < 0 {
		return nil, false
	}
	return m.worlds[i], true
}

// Worlds returns the open worlds in display order.
func (m *Manager) Worlds() []*World {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.worlds)
}

// Selected returns the selected world, or nil when none is open.
func (m *Manager) Selected() *World {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexLocked(m.selected); i >= 0 {
		return m.worlds[i]
	}
	return nil
}

func (m *Manager) indexLocked(id WorldID) int {
	return slices.IndexFunc(m.worlds, func(w *World) bool { return w.ID == id })
}

// Switch selects an open world.
func (m *Manager) Switch(id WorldID) error {
	m.mu.Lock()
	if m.indexLocked(id) < 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownWorld, id)
	}
	changed := m.selected != id
	m.selected = id
	m.mu.Unlock()

	if changed {
		m.obs.emit(newEvent(core.EventWorldSwitched, id, 0))
	}
	return nil
}

// Move moves a world to position index in the display order.
func (m *Manager) Move(id WorldID, index int) error {
	m.mu.Lock()
	i := m.indexLocked(id)
	if i < 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownWorld, id)
	}
	if index < 0 || index >= len(m.worlds) {
		m.mu.Unlock()
		return fmt.Errorf("%w: index %d out of range", core.ErrInvalidValue, index)
	}
	if i == index {
		m.mu.Unlock()
		return nil
	}
	w := m.worlds[i]
	m.worlds = slices.Insert(slices.Delete(m.worlds, i, i+1), index, w)
	m.mu.Unlock()

	m.obs.emit(newEvent(core.EventWorldsReordered, id, 0))
	return nil
}

// Close closes a world and removes it. When it was selected, the next world
// (or the previous one, for the last) is selected. A world with a save in
// flight is left open and core.ErrBusy returned.
func (m *Manager) Close(ctx context.Context, id WorldID) error {
	w, ok := m.World(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWorld, id)
	}
	closeErr := w.Close(ctx)
	if errors.Is(closeErr, core.ErrBusy) {
		return closeErr
	}

	m.mu.Lock()
	i := m.indexLocked(id)
	if i < 0 {
		m.mu.Unlock()
		return closeErr
	}
	m.worlds = slices.Delete(m.worlds, i, i+1)
	unsub := m.unsub[id]
	delete(m.unsub, id)

	var switched []core.Event
	if m.selected == id {
		var next WorldID
		if len(m.worlds) > 0 {
			next = m.worlds[min(i, len(m.worlds)-1)].ID
		}
		m.selected = next
		switched = append(switched, newEvent(core.EventWorldSwitched, next, 0))
	}
	m.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	m.obs.emit(switched...)
	return closeErr
}

// CloseAll closes every world. Worlds that fail with core.ErrBusy stay open.
func (m *Manager) CloseAll(ctx context.Context) error {
	var errs []error
	for _, w := range m.Worlds() {
		if err := m.Close(ctx, w.ID); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", w.Source, err))
		}
	}
	return errors.Join(errs...)
}

package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/aretw0/worldkit/pkg/core"
)

// EntryID identifies an entry session inside its world. IDs start at 1 and
// are never reused.
type EntryID int

// ErrUnknownEntry is returned for an EntryID that is not open.
var ErrUnknownEntry = errors.New("unknown entry")

// LoadOptions tunes World.LoadEntry.
type LoadOptions struct {
	// Binary skips decoding and keeps the raw bytes as a binary value.
	Binary bool
}

// EntryInfo is a snapshot of an entry session.
type EntryInfo struct {
	ID          EntryID
	Target      core.EntryTarget
	ContentType core.ContentType
	DisplayKey  string
	// Value is nil until the entry is loaded. Trees inside it are shared with
	// the session: edit them in place, then call SetUnsaved.
	Value        *core.Value
	Unsaved      bool
	PendingEdits int
}

type entry struct {
	id      EntryID
	target  core.EntryTarget
	ct      core.ContentType
	value   *core.Value
	dirty   bool
	pending []core.PendingEdit
	// rev counts mutations so a save only clears the state it wrote.
	rev int
}

func (e *entry) unsaved() bool {
	return e.dirty || len(e.pending) > 0
}

func (e *entry) markSaved(rev int) {
	if e.rev != rev {
		return
	}
	e.dirty = false
	e.pending = nil
}

func (w *World) info(e *entry) EntryInfo {
	info := EntryInfo{
		ID:           e.id,
		Target:       e.target,
		ContentType:  e.ct,
		DisplayKey:   w.describe(e.target),
		Unsaved:      e.unsaved(),
		PendingEdits: len(e.pending),
	}
	if e.value != nil {
		v := *e.value
		info.Value = &v
	}
	return info
}

// OpenEntry opens an entry session on target and selects it. Opening a target
// that is already open selects the existing session.
func (w *World) OpenEntry(target core.EntryTarget) (EntryID, error) {
	if !target.IsKey() && !filepath.IsLocal(filepath.FromSlash(target.File())) {
		return 0, fmt.Errorf("%w: %q is outside the world", core.ErrInvalidValue, target.File())
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return 0, core.ErrClosed
	}
	for _, id := range w.order {
		if w.entries[id].target.Equal(target) {
			events := w.selectLocked(id)
			w.mu.Unlock()
			w.obs.emit(events...)
			return id, nil
		}
	}

	id := w.nextID
	w.nextID++
	ct := w.config.Classifier.ClassifyFile(target.File())
	if target.IsKey() {
		ct = w.config.Classifier.Classify(target.Key())
	}
	w.entries[id] = &entry{id: id, target: target, ct: ct}
	w.order = append(w.order, id)
	events := []core.Event{newEvent(core.EventEntryOpened, w.ID, id)}
	events = append(events, w.selectLocked(id)...)
	w.mu.Unlock()

	w.obs.emit(events...)
	return id, nil
}

func (w *World) selectLocked(id EntryID) []core.Event {
	if w.selected == id {
		return nil
	}
	w.selected = id
	return []core.Event{newEvent(core.EventEntrySwitched, w.ID, id)}
}

// Entry returns a snapshot of an entry session.
func (w *World) Entry(id EntryID) (EntryInfo, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entries[id]
	if !ok {
		return EntryInfo{}, fmt.Errorf("%w: %d", ErrUnknownEntry, id)
	}
	return w.info(e), nil
}

// Entries returns every open entry in display order.
func (w *World) Entries() []EntryInfo {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]EntryInfo, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.info(w.entries[id]))
	}
	return out
}

// SelectedEntry returns the selected entry, or 0 when none is open.
func (w *World) SelectedEntry() EntryID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selected
}

// mutate runs fn on an open entry under the world lock and emits the
// resulting events after unlocking.
func (w *World) mutate(id EntryID, fn func(e *entry) ([]core.Event, error)) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return core.ErrClosed
	}
	e, ok := w.entries[id]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownEntry, id)
	}
	events, err := fn(e)
	if err != nil {
		w.mu.Unlock()
		return err
	}
	events = append(events, w.recomputeLocked()...)
	w.mu.Unlock()
	w.obs.emit(events...)
	return nil
}

func (w *World) target(id EntryID) (core.EntryTarget, core.ContentType, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return core.EntryTarget{}, "", core.ErrClosed
	}
	e, ok := w.entries[id]
	if !ok {
		return core.EntryTarget{}, "", fmt.Errorf("%w: %d", ErrUnknownEntry, id)
	}
	return e.target, e.ct, nil
}

// LoadEntry reads and decodes an entry with its content type's native
// format. Loading replaces the current value and discards unsaved changes.
func (w *World) LoadEntry(ctx context.Context, id EntryID, opts LoadOptions) (core.Value, error) {
	target, ct, err := w.target(id)
	if err != nil {
		return core.Value{}, err
	}
	raw, err := w.readRaw(ctx, target)
	if err != nil {
		return core.Value{}, err
	}

	desc := w.Format(ct)
	v := core.Value{Type: core.DataBinary, Format: desc, Bytes: raw}
	if !opts.Binary {
		v, err = w.engine.Load(raw, desc)
		if err != nil {
			return core.Value{}, fmt.Errorf("load %s: %w", w.describe(target), err)
		}
	}

	err = w.mutate(id, func(e *entry) ([]core.Event, error) {
		stored := v
		e.value = &stored
		e.dirty = false
		e.pending = nil
		e.rev++
		return nil, nil
	})
	return v, err
}

// SetValue replaces an entry's value and marks it unsaved.
func (w *World) SetValue(id EntryID, v core.Value) error {
	return w.mutate(id, func(e *entry) ([]core.Event, error) {
		e.value = &v
		e.dirty = true
		e.rev++
		return nil, nil
	})
}

// SetUnsaved sets or clears the entry's dirty bit. An entry with pending
// edits stays unsaved either way.
func (w *World) SetUnsaved(id EntryID, unsaved bool) error {
	return w.mutate(id, func(e *entry) ([]core.Event, error) {
		e.dirty = unsaved
		e.rev++
		return nil, nil
	})
}

// RecordEdit appends to the entry's pending edit log. Recorded edits are
// not applied to the value; they only keep the entry unsaved until the next
// successful save discards them.
func (w *World) RecordEdit(id EntryID, edit core.PendingEdit) error {
	edit.Path = slices.Clone(edit.Path)
	return w.mutate(id, func(e *entry) ([]core.Event, error) {
		e.pending = append(e.pending, edit)
		e.rev++
		return nil, nil
	})
}

// ViewEntry converts the loaded value to another data type for display or
// editing. The value keeps its format and is written back with it.
func (w *World) ViewEntry(id EntryID, dt core.DataType) (core.Value, error) {
	w.mu.Lock()
	e, ok := w.entries[id]
	var cur *core.Value
	if ok {
		cur = e.value
	}
	w.mu.Unlock()
	if !ok {
		return core.Value{}, fmt.Errorf("%w: %d", ErrUnknownEntry, id)
	}
	if cur == nil {
		return core.Value{}, fmt.Errorf("%w: entry %d is not loaded", core.ErrInvalidValue, id)
	}

	v, err := w.engine.Convert(*cur, dt)
	if err != nil {
		return core.Value{}, err
	}
	err = w.mutate(id, func(e *entry) ([]core.Event, error) {
		stored := v
		e.value = &stored
		e.rev++
		return nil, nil
	})
	return v, err
}

// SaveEntry encodes the entry with the format its value was loaded with and
// writes it back. Saving an entry without unsaved changes writes nothing.
func (w *World) SaveEntry(ctx context.Context, id EntryID) error {
	if err := w.checkSavable(); err != nil {
		return err
	}
	rev, wrote, err := w.writeEntry(ctx, id)
	if err != nil {
		return err
	}
	return w.mutate(id, func(e *entry) ([]core.Event, error) {
		if wrote && w.Mode.CommitsOnSave() {
			// Written to the staging copy only.
			w.storeDirty = true
		}
		e.markSaved(rev)
		return nil, nil
	})
}

// writeEntry writes an unsaved entry. It returns the revision it saw and
// whether anything was written.
func (w *World) writeEntry(ctx context.Context, id EntryID) (int, bool, error) {
	w.mu.Lock()
	e, ok := w.entries[id]
	if !ok {
		w.mu.Unlock()
		return 0, false, fmt.Errorf("%w: %d", ErrUnknownEntry, id)
	}
	rev, unsaved, target, value := e.rev, e.unsaved(), e.target, e.value
	w.mu.Unlock()

	if !unsaved || value == nil {
		return rev, false, nil
	}
	raw, err := w.engine.Save(*value, value.Format)
	if err != nil {
		return 0, false, fmt.Errorf("save %s: %w", w.describe(target), err)
	}
	if err := w.writeRaw(ctx, target, raw); err != nil {
		return 0, false, fmt.Errorf("write %s: %w", w.describe(target), err)
	}
	w.logger.Debug("entry written", "entry", id, "target", w.describe(target), "bytes", len(raw))
	return rev, true, nil
}

// CloseEntry discards an entry session. When it was selected, the next entry
// (or the previous one, for the last) is selected.
func (w *World) CloseEntry(id EntryID) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return core.ErrClosed
	}
	i := slices.Index(w.order, id)
	if i < 0 {
		w.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownEntry, id)
	}
	w.order = slices.Delete(w.order, i, i+1)
	delete(w.entries, id)

	events := []core.Event{newEvent(core.EventEntryClosed, w.ID, id)}
	if w.selected == id {
		var next EntryID
		if len(w.order) > 0 {
			next = w.order[min(i, len(w.order)-1)]
		}
		w.selected = next
		events = append(events, newEvent(core.EventEntrySwitched, w.ID, next))
	}
	events = append(events, w.recomputeLocked()...)
	w.mu.Unlock()

	w.obs.emit(events...)
	return nil
}

// SwitchEntry selects an open entry.
func (w *World) SwitchEntry(id EntryID) error {
	return w.mutate(id, func(e *entry) ([]core.Event, error) {
		return w.selectLocked(id), nil
	})
}

// MoveEntry moves an entry to position index in the display order.
func (w *World) MoveEntry(id EntryID, index int) error {
	return w.mutate(id, func(e *entry) ([]core.Event, error) {
		if index < 0 || index >= len(w.order) {
			return nil, fmt.Errorf("%w: index %d out of range", core.ErrInvalidValue, index)
		}
		i := slices.Index(w.order, id)
		if i == index {
			return nil, nil
		}
		w.order = slices.Insert(slices.Delete(w.order, i, i+1), index, id)
		return []core.Event{newEvent(core.EventEntriesReordered, w.ID, id)}, nil
	})
}

package session

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/google/uuid"

	"github.com/aretw0/worldkit/pkg/adapters/fs"
	"github.com/aretw0/worldkit/pkg/core"
	"github.com/aretw0/worldkit/pkg/format"
)

// WorldID identifies an open world.
type WorldID string

// SaveOptions tunes World.Save.
type SaveOptions struct {
	// IgnoreFailedSubSaves keeps saving the remaining entries, and commits,
	// when an entry fails to save. Failed entries stay unsaved.
	IgnoreFailedSubSaves bool
}

// World is an open world, bare store, directory or file.
type World struct {
	ID     WorldID
	Source string
	Mode   core.AccessMode
	Kind   core.TargetKind

	config  Config
	logger  *slog.Logger
	engine  *format.Engine
	staging *fs.Staging
	// root is the directory file targets resolve against.
	root  string
	store core.Store

	ctx    context.Context
	cancel context.CancelFunc

	classifyDone chan struct{}
	watcher      *fs.Watcher
	saving       atomic.Bool

	mu             sync.Mutex
	openErr        error
	classification *core.Classification
	classifyErr    error
	entries        map[EntryID]*entry
	order          []EntryID
	selected       EntryID
	nextID         EntryID
	storeDirty     bool
	modified       bool
	closed         bool

	obs observers
}

// DetectKind reports what lives at path: a world (level.dat plus db/), a bare
// LevelDB directory, any other directory, or a file.
func DetectKind(path string) (core.TargetKind, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return core.TargetFile, nil
	}
	if isRegular(filepath.Join(path, "level.dat")) && isDir(filepath.Join(path, "db")) {
		return core.TargetWorld, nil
	}
	if isRegular(filepath.Join(path, "CURRENT")) {
		return core.TargetStore, nil
	}
	return core.TargetDirectory, nil
}

func isRegular(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// OpenWorld opens source in the given mode. Staged modes copy the source
// first. A store that fails to open does not fail the call: the error is kept
// in OpenErr and store operations report core.ErrStoreClosed.
func OpenWorld(ctx context.Context, source string, mode core.AccessMode, config Config) (*World, error) {
	config = config.withDefaults()
	if config.Sandbox && mode == core.Direct {
		config.Logger.Warn("sandbox enabled, opening a copy instead of the source", "source", source)
		mode = core.Copy
	}
	abs, err := filepath.Abs(source)
	if err != nil {
		return nil, fmt.Errorf("open world: %w", err)
	}
	kind, err := DetectKind(abs)
	if err != nil {
		return nil, fmt.Errorf("open world: %w", err)
	}

	w := &World{
		ID:      WorldID(uuid.NewString()),
		Source:  abs,
		Mode:    mode,
		Kind:    kind,
		config:  config,
		logger:  config.Logger.With("world", abs),
		entries: make(map[EntryID]*entry),
		nextID:  1,
	}
	w.engine = config.Engine.Fork(w.onWarning)

	if mode.Staged() {
		st, err := fs.NewStaging(ctx, abs, config.Staging)
		if err != nil {
			return nil, fmt.Errorf("open world: %w", err)
		}
		w.staging = st
		w.root = st.Dir
	} else {
		w.root = abs
		if kind == core.TargetFile {
			w.root = filepath.Dir(abs)
		}
	}

	w.ctx, w.cancel = context.WithCancel(context.WithoutCancel(ctx))
	if kind.HasStore() {
		w.openStore(ctx)
	}
	if config.Watch && mode.Staged() && kind != core.TargetFile {
		w.startWatcher()
	}
	w.logger.Info("world opened", "mode", mode.String(), "kind", kind.String())
	return w, nil
}

func (w *World) storePath() string {
	if w.Kind == core.TargetWorld {
		return filepath.Join(w.root, "db")
	}
	return w.root
}

func (w *World) openStore(ctx context.Context) {
	w.store = w.config.OpenStore(w.storePath(), w.Mode.ReadOnly())
	if err := w.store.Open(ctx); err != nil {
		w.openErr = err
		w.logger.Warn("store open failed", "path", w.storePath(), "error", err)
		return
	}
	w.startClassification()
}

// startClassification scans the store once in the background. Callers of
// Classification wait on this single task.
func (w *World) startClassification() {
	done := make(chan struct{})
	w.classifyDone = done
	lifecycle.Go(w.ctx, func(ctx context.Context) error {
		defer close(done)
		c, err := classifyAll(ctx, w.config.Classifier, w.store)
		ev := newEvent(core.EventKeysClassified, w.ID, 0)
		w.mu.Lock()
		if err != nil {
			w.classifyErr = err
			ev.Err = err
		} else {
			w.classification = c
			ev.Message = fmt.Sprintf("%d keys", c.Len())
		}
		w.mu.Unlock()
		if err != nil {
			w.logger.Warn("key classification failed", "error", err)
		}
		w.obs.emit(ev)
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		w.logger.Error("key classification panic", "error", err)
	}))
}

func classifyAll(ctx context.Context, c core.Classifier, store core.Store) (*core.Classification, error) {
	if bulk, ok := c.(core.BulkClassifier); ok {
		return bulk.ClassifyAll(ctx, store)
	}
	out := core.NewClassification(c.ContentTypes())
	err := store.Keys(ctx, func(key []byte) error {
		out.Add(c.Classify(key), key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrClassificationIncomplete, err)
	}
	return out, nil
}

func (w *World) startWatcher() {
	events := make(chan core.Event, 16)
	w.watcher = fs.NewWatcher(fs.WatchConfig{
		Root:     w.Source,
		Exclude:  w.config.Staging.Exclude,
		Debounce: w.config.WatchDebounce,
		Logger:   w.logger,
	}, events)
	if err := w.watcher.Start(w.ctx); err != nil {
		w.logger.Warn("source watcher not started", "error", err)
		w.watcher = nil
		return
	}
	lifecycle.Go(w.ctx, func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case e := <-events:
				e.World = string(w.ID)
				w.obs.emit(e)
			}
		}
	})
}

func (w *World) onWarning(wr format.Warning) {
	ev := newEvent(core.EventFormatBridged, w.ID, 0)
	ev.Message = wr.String()
	w.obs.emit(ev)
}

// Subscribe registers fn for every event of this world. The returned func
// unsubscribes.
func (w *World) Subscribe(fn func(core.Event)) func() {
	return w.obs.subscribe(fn)
}

// OpenErr returns the error the store failed to open with, if any.
func (w *World) OpenErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.openErr
}

// StagingDir returns the staging directory, or "" for unstaged modes.
func (w *World) StagingDir() string {
	if w.staging == nil {
		return ""
	}
	return w.staging.Dir
}

// Modified reports whether any entry is unsaved or the store holds
// uncommitted edits.
func (w *World) Modified() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.modified
}

// Saving reports whether a save is in flight.
func (w *World) Saving() bool { return w.saving.Load() }

// Closed reports whether the world has been closed.
func (w *World) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// Classification waits for the key scan and returns a copy of its result.
func (w *World) Classification(ctx context.Context) (*core.Classification, error) {
	w.mu.Lock()
	closed, done := w.closed, w.classifyDone
	w.mu.Unlock()
	if closed {
		return nil, core.ErrClosed
	}
	if done == nil {
		return nil, w.storeErr()
	}
	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.classification == nil {
		return nil, w.classifyErr
	}
	return w.classification.Clone(), nil
}

// awaitClassification blocks until the running key scan, if any, is done or
// ctx ends.
func (w *World) awaitClassification(ctx context.Context) {
	w.mu.Lock()
	done := w.classifyDone
	w.mu.Unlock()
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (w *World) storeErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.openErr != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreClosed, w.openErr)
	}
	return core.ErrStoreClosed
}

func (w *World) liveStore() (core.Store, error) {
	if w.store == nil || !w.store.IsOpen() {
		return nil, w.storeErr()
	}
	return w.store, nil
}

// ReadKey returns the raw bytes stored under key.
func (w *World) ReadKey(ctx context.Context, key []byte) ([]byte, error) {
	st, err := w.liveStore()
	if err != nil {
		return nil, err
	}
	return st.Get(ctx, key)
}

// DisplayKey renders a raw key for humans.
func (w *World) DisplayKey(key []byte) string {
	return w.config.Classifier.DisplayKey(key)
}

// Format returns the native format of a content type.
func (w *World) Format(ct core.ContentType) core.FormatDescriptor {
	return w.config.Formats.Format(ct)
}

func (w *World) checkMutable() error {
	if w.Closed() {
		return core.ErrClosed
	}
	if w.Mode.ReadOnly() {
		return core.ErrReadOnly
	}
	return nil
}

func (w *World) checkSavable() error {
	if err := w.checkMutable(); err != nil {
		return err
	}
	if w.config.SaveDisabled {
		return core.ErrSaveDisabled
	}
	return nil
}

// PutKey writes raw bytes under key directly in the store. The world counts as
// modified until the next save.
func (w *World) PutKey(ctx context.Context, key, raw []byte) error {
	if err := w.checkMutable(); err != nil {
		return err
	}
	st, err := w.liveStore()
	if err != nil {
		return err
	}
	if err := st.Put(ctx, key, raw); err != nil {
		return err
	}
	w.mu.Lock()
	if w.classification != nil {
		ct := w.config.Classifier.Classify(key)
		if !w.classification.Has(ct, key) {
			w.classification.Add(ct, key)
		}
	}
	w.storeDirty = true
	events := w.recomputeLocked()
	w.mu.Unlock()
	w.obs.emit(events...)
	return nil
}

// DeleteKey removes key from the store.
func (w *World) DeleteKey(ctx context.Context, key []byte) error {
	if err := w.checkMutable(); err != nil {
		return err
	}
	st, err := w.liveStore()
	if err != nil {
		return err
	}
	if err := st.Delete(ctx, key); err != nil {
		return err
	}
	w.mu.Lock()
	if w.classification != nil {
		w.classification.Remove(w.config.Classifier.Classify(key), key)
	}
	w.storeDirty = true
	events := w.recomputeLocked()
	w.mu.Unlock()
	w.obs.emit(events...)
	return nil
}

// recomputeLocked refreshes the aggregate modified state and returns the
// event to emit when it flipped.
func (w *World) recomputeLocked() []core.Event {
	m := w.storeDirty
	if !m {
		for _, e := range w.entries {
			if e.unsaved() {
				m = true
				break
			}
		}
	}
	if m == w.modified {
		return nil
	}
	w.modified = m
	ev := newEvent(core.EventModifiedChanged, w.ID, 0)
	ev.Modified = m
	return []core.Event{ev}
}

// Save writes every unsaved entry in order, then, in copy-until-save mode,
// mirrors the staging copy back over the source. The mirror is the only
// step that touches the source; it does not run when an entry failed unless
// opts.IgnoreFailedSubSaves is set. A save requested while another is in
// flight returns nil without doing anything.
func (w *World) Save(ctx context.Context, opts SaveOptions) error {
	if w.Mode.ReadOnly() {
		return core.ErrReadOnly
	}
	if w.config.SaveDisabled {
		return core.ErrSaveDisabled
	}
	if !w.saving.CompareAndSwap(false, true) {
		w.logger.Debug("save already in progress")
		return nil
	}
	defer w.saving.Store(false)
	if w.Closed() {
		return core.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	w.obs.emit(newEvent(core.EventSaveStarted, w.ID, 0))
	start := time.Now()
	err := w.save(ctx, opts)
	ev := newEvent(core.EventSaveFinished, w.ID, 0)
	ev.Err = err
	w.obs.emit(ev)
	if err != nil {
		w.logger.Error("save failed", "error", err)
		return err
	}
	w.logger.Info("world saved", "duration", time.Since(start))
	return nil
}

type savedEntry struct {
	id  EntryID
	rev int
}

func (w *World) save(ctx context.Context, opts SaveOptions) error {
	// Started saves run to completion.
	ctx = context.WithoutCancel(ctx)

	w.mu.Lock()
	var ids []EntryID
	for _, id := range w.order {
		if w.entries[id].unsaved() {
			ids = append(ids, id)
		}
	}
	w.mu.Unlock()

	var saved []savedEntry
	var errs []error
	for _, id := range ids {
		rev, _, err := w.writeEntry(ctx, id)
		if err != nil {
			err = fmt.Errorf("entry %d: %w", id, err)
			if opts.IgnoreFailedSubSaves {
				w.logger.Warn("entry save failed, continuing", "entry", id, "error", err)
			}
			errs = append(errs, err)
			continue
		}
		saved = append(saved, savedEntry{id: id, rev: rev})
	}
	// Nothing is committed or marked clean unless failures are ignored.
	if len(errs) > 0 && !opts.IgnoreFailedSubSaves {
		return errors.Join(errs...)
	}

	if w.Mode.CommitsOnSave() {
		if err := w.commit(ctx); err != nil {
			return err
		}
	}

	w.mu.Lock()
	for _, s := range saved {
		if e, ok := w.entries[s.id]; ok {
			e.markSaved(s.rev)
		}
	}
	w.storeDirty = false
	events := w.recomputeLocked()
	w.mu.Unlock()
	w.obs.emit(events...)
	return nil
}

// commit mirrors the staging copy over the source. The store is closed
// around the copy so its files are consistent on disk.
func (w *World) commit(ctx context.Context) error {
	if w.watcher != nil {
		w.watcher.Pause()
		// Resume once the events caused by our own writes have been dropped.
		defer time.AfterFunc(4*w.config.WatchDebounce, w.watcher.Resume)
	}

	// The key scan reads the store; let it finish before the store closes.
	w.awaitClassification(ctx)
	reopen := w.store != nil && w.store.IsOpen()
	if reopen {
		if err := w.store.Close(); err != nil {
			return fmt.Errorf("close store before commit: %w", err)
		}
	}
	err := w.staging.Mirror(ctx)
	if reopen {
		if oerr := w.store.Open(ctx); oerr != nil {
			w.mu.Lock()
			w.openErr = oerr
			w.mu.Unlock()
			err = errors.Join(err, fmt.Errorf("reopen store: %w", oerr))
		}
	}
	return err
}

// Close releases the store, discards every entry and removes the staging
// copy. It fails with core.ErrBusy while a save is in flight.
func (w *World) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	if w.saving.Load() {
		w.mu.Unlock()
		return core.ErrBusy
	}
	w.closed = true
	discarded := len(w.entries)
	w.entries = make(map[EntryID]*entry)
	w.order = nil
	w.selected = 0
	w.mu.Unlock()

	w.cancel()
	w.awaitClassification(ctx)

	var errs []error
	if w.watcher != nil {
		if err := w.watcher.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop watcher: %w", err))
		}
	}
	if w.store != nil && w.store.IsOpen() {
		if err := w.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	if w.staging != nil {
		if err := w.staging.Remove(); err != nil {
			errs = append(errs, err)
		}
	}
	err := errors.Join(errs...)

	ev := newEvent(core.EventWorldClosed, w.ID, 0)
	ev.Err = err
	w.obs.emit(ev)
	w.logger.Info("world closed", "discarded_entries", discarded)
	return err
}

func (w *World) filePath(rel string) string {
	return filepath.Join(w.root, filepath.FromSlash(rel))
}

func (w *World) readRaw(ctx context.Context, t core.EntryTarget) ([]byte, error) {
	if t.IsKey() {
		return w.ReadKey(ctx, t.Key())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(w.filePath(t.File()))
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", core.ErrEntryNotFound, t.File())
	}
	return b, err
}

func (w *World) writeRaw(ctx context.Context, t core.EntryTarget, raw []byte) error {
	if t.IsKey() {
		st, err := w.liveStore()
		if err != nil {
			return err
		}
		return st.Put(ctx, t.Key(), raw)
	}
	return fs.WriteFileAtomic(w.filePath(t.File()), raw, 0)
}

func (w *World) describe(t core.EntryTarget) string {
	if t.IsKey() {
		return w.DisplayKey(t.Key())
	}
	return t.File()
}

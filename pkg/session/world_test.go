package session_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/worldkit/internal/testutil"
	"github.com/aretw0/worldkit/pkg/adapters/fs"
	"github.com/aretw0/worldkit/pkg/contenttype"
	"github.com/aretw0/worldkit/pkg/core"
	"github.com/aretw0/worldkit/pkg/nbt"
	"github.com/aretw0/worldkit/pkg/session"
)

const playerKey = "~local_player"

// storeDir returns a directory that looks like a bare LevelDB store.
func storeDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CURRENT"), []byte("MANIFEST-000001\n"), 0o644))
	return dir
}

func memConfig(st core.Store) session.Config {
	return session.Config{OpenStore: func(string, bool) core.Store { return st }}
}

type recorder struct {
	mu     sync.Mutex
	events []core.Event
}

func (r *recorder) record(e core.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) of(t core.EventType) []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []core.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func health(t *testing.T, raw []byte) int16 {
	t.Helper()
	_, root, _, err := nbt.Decode(raw, nbt.LittleEndian)
	require.NoError(t, err)
	h, ok := root.Get("Health")
	require.True(t, ok)
	return h.(int16)
}

func loadAndHeal(t *testing.T, w *session.World, key string, hp int16) session.EntryID {
	t.Helper()
	ctx := context.Background()
	id, err := w.OpenEntry(core.KeyTarget([]byte(key)))
	require.NoError(t, err)
	v, err := w.LoadEntry(ctx, id, session.LoadOptions{})
	require.NoError(t, err)
	require.Equal(t, core.DataNBT, v.Type)
	v.NBT.Root().Set("Health", hp)
	require.NoError(t, w.SetUnsaved(id, true))
	return id
}

func TestDetectKind(t *testing.T) {
	world := filepath.Join(t.TempDir(), "world")
	testutil.WriteWorld(t, world, nil, nil)
	file := filepath.Join(t.TempDir(), "player.nbt")
	require.NoError(t, os.WriteFile(file, []byte{10, 0, 0, 0}, 0o644))

	cases := map[string]core.TargetKind{
		world:                      core.TargetWorld,
		filepath.Join(world, "db"): core.TargetStore,
		t.TempDir():                core.TargetDirectory,
		file:                       core.TargetFile,
	}
	for path, want := range cases {
		got, err := session.DetectKind(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
	_, err := session.DetectKind(filepath.Join(world, "missing"))
	assert.Error(t, err)
}

func TestEntrySaveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewMemStore()
	st.Seed([]byte(playerKey), testutil.NBT(t, testutil.Player("Steve", 20)))

	w, err := session.OpenWorld(ctx, storeDir(t), core.Direct, memConfig(st))
	require.NoError(t, err)
	defer w.Close(ctx)

	id := loadAndHeal(t, w, playerKey, 5)
	info, err := w.Entry(id)
	require.NoError(t, err)
	assert.Equal(t, contenttype.LocalPlayer, info.ContentType)
	assert.True(t, info.Unsaved)
	assert.True(t, w.Modified())

	require.NoError(t, w.SaveEntry(ctx, id))
	assert.Equal(t, 1, st.Puts())
	assert.False(t, w.Modified())

	require.NoError(t, w.SaveEntry(ctx, id))
	assert.Equal(t, 1, st.Puts(), "a clean entry is not written again")

	raw, ok := st.Raw([]byte(playerKey))
	require.True(t, ok)
	assert.Equal(t, int16(5), health(t, raw))
}

func TestModifiedChangedOnlyOnAggregateFlip(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewMemStore()
	w, err := session.OpenWorld(ctx, storeDir(t), core.Direct, memConfig(st))
	require.NoError(t, err)
	defer w.Close(ctx)

	rec := &recorder{}
	w.Subscribe(rec.record)

	a, err := w.OpenEntry(core.KeyTarget([]byte("a")))
	require.NoError(t, err)
	b, err := w.OpenEntry(core.KeyTarget([]byte("b")))
	require.NoError(t, err)

	require.NoError(t, w.SetUnsaved(a, true))
	require.NoError(t, w.SetUnsaved(b, true))
	require.NoError(t, w.RecordEdit(a, core.PendingEdit{Path: []string{"Health"}, Value: int16(3)}))
	require.NoError(t, w.SetUnsaved(a, false))
	require.NoError(t, w.SetUnsaved(b, false))

	info, err := w.Entry(a)
	require.NoError(t, err)
	assert.True(t, info.Unsaved, "pending edits keep the entry unsaved")
	assert.Equal(t, 1, info.PendingEdits)

	require.NoError(t, w.CloseEntry(a))

	changes := rec.of(core.EventModifiedChanged)
	require.Len(t, changes, 2)
	assert.True(t, changes[0].Modified)
	assert.False(t, changes[1].Modified)
	assert.False(t, w.Modified())
}

func TestEntrySelection(t *testing.T) {
	ctx := context.Background()
	w, err := session.OpenWorld(ctx, storeDir(t), core.Direct, memConfig(testutil.NewMemStore()))
	require.NoError(t, err)
	defer w.Close(ctx)

	a, _ := w.OpenEntry(core.KeyTarget([]byte("a")))
	b, _ := w.OpenEntry(core.KeyTarget([]byte("b")))
	c, _ := w.OpenEntry(core.KeyTarget([]byte("c")))
	assert.Equal(t, c, w.SelectedEntry())

	again, err := w.OpenEntry(core.KeyTarget([]byte("a")))
	require.NoError(t, err)
	assert.Equal(t, a, again, "reopening selects the existing entry")
	assert.Equal(t, a, w.SelectedEntry())

	require.NoError(t, w.CloseEntry(a))
	assert.Equal(t, b, w.SelectedEntry())

	require.NoError(t, w.MoveEntry(c, 0))
	ids := []session.EntryID{}
	for _, e := range w.Entries() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []session.EntryID{c, b}, ids)

	require.NoError(t, w.CloseEntry(b))
	assert.Equal(t, c, w.SelectedEntry())
	require.NoError(t, w.SwitchEntry(c))

	assert.ErrorIs(t, w.MoveEntry(c, 5), core.ErrInvalidValue)
	assert.ErrorIs(t, w.CloseEntry(a), session.ErrUnknownEntry)
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()
	w, err := session.OpenWorld(ctx, storeDir(t), core.Direct, memConfig(testutil.NewMemStore()))
	require.NoError(t, err)
	defer w.Close(ctx)

	id, err := w.OpenEntry(core.KeyTarget([]byte("nope")))
	require.NoError(t, err)
	_, err = w.LoadEntry(ctx, id, session.LoadOptions{})
	assert.ErrorIs(t, err, core.ErrEntryNotFound)

	id, err = w.OpenEntry(core.FileTarget("missing.txt"))
	require.NoError(t, err)
	_, err = w.LoadEntry(ctx, id, session.LoadOptions{})
	assert.ErrorIs(t, err, core.ErrEntryNotFound)

	_, err = w.OpenEntry(core.FileTarget("../outside"))
	assert.ErrorIs(t, err, core.ErrInvalidValue)

	_, err = w.LoadEntry(ctx, 99, session.LoadOptions{})
	assert.ErrorIs(t, err, session.ErrUnknownEntry)
}

func TestStoreOpenFailureDegrades(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewMemStore()
	st.FailOpen(errors.New("locked by another process"))

	w, err := session.OpenWorld(ctx, storeDir(t), core.Direct, memConfig(st))
	require.NoError(t, err, "a store that fails to open does not fail the world")
	defer w.Close(ctx)
	require.Error(t, w.OpenErr())

	id, err := w.OpenEntry(core.KeyTarget([]byte(playerKey)))
	require.NoError(t, err)
	_, err = w.LoadEntry(ctx, id, session.LoadOptions{})
	assert.ErrorIs(t, err, core.ErrStoreClosed)

	_, err = w.Classification(ctx)
	assert.ErrorIs(t, err, core.ErrStoreClosed)
	assert.ErrorIs(t, w.PutKey(ctx, []byte("k"), []byte("v")), core.ErrStoreClosed)

	state := w.State().(session.WorldState)
	assert.False(t, state.StoreOpen)
	assert.NotEmpty(t, state.OpenError)
}

func TestLoadBinaryAndViews(t *testing.T) {
	ctx := context.Background()
	raw := testutil.NBT(t, testutil.Player("Steve", 20))
	st := testutil.NewMemStore()
	st.Seed([]byte(playerKey), raw)

	w, err := session.OpenWorld(ctx, storeDir(t), core.Direct, memConfig(st))
	require.NoError(t, err)
	defer w.Close(ctx)
	rec := &recorder{}
	w.Subscribe(rec.record)

	id, err := w.OpenEntry(core.KeyTarget([]byte(playerKey)))
	require.NoError(t, err)

	v, err := w.LoadEntry(ctx, id, session.LoadOptions{Binary: true})
	require.NoError(t, err)
	assert.Equal(t, core.DataBinary, v.Type)
	assert.Equal(t, raw, v.Bytes)
	assert.Equal(t, core.FormatNBT, v.Format.Type)

	_, err = w.LoadEntry(ctx, id, session.LoadOptions{})
	require.NoError(t, err)
	text, err := w.ViewEntry(id, core.DataUTF8)
	require.NoError(t, err)
	assert.Contains(t, text.Text, `"Steve"`)

	// Writing the text view back goes through the entry's native format.
	require.NoError(t, w.SetUnsaved(id, true))
	require.NoError(t, w.SaveEntry(ctx, id))
	got, _ := st.Raw([]byte(playerKey))
	assert.Equal(t, raw, got)
	assert.NotEmpty(t, rec.of(core.EventFormatBridged))
}

// Scenario: a direct edit of one level.dat field changes only that field's bytes.
func TestDirectLevelDatEdit(t *testing.T) {
	ctx := context.Background()
	src := filepath.Join(t.TempDir(), "world")
	testutil.WriteWorld(t, src, nil, nil)
	orig, err := os.ReadFile(filepath.Join(src, "level.dat"))
	require.NoError(t, err)

	w, err := session.OpenWorld(ctx, src, core.Direct, session.Config{})
	require.NoError(t, err)
	defer w.Close(ctx)
	assert.Empty(t, w.StagingDir())

	id, err := w.OpenEntry(core.FileTarget("level.dat"))
	require.NoError(t, err)
	info, _ := w.Entry(id)
	assert.Equal(t, contenttype.LevelDat, info.ContentType)

	v, err := w.LoadEntry(ctx, id, session.LoadOptions{})
	require.NoError(t, err)
	require.True(t, v.NBT.Header)
	v.NBT.Root().Set("GameType", int32(1))
	require.NoError(t, w.SetUnsaved(id, true))
	require.NoError(t, w.Save(ctx, session.SaveOptions{}))

	got, err := os.ReadFile(filepath.Join(src, "level.dat"))
	require.NoError(t, err)
	require.Len(t, got, len(orig))
	var diff []int
	for i := range orig {
		if orig[i] != got[i] {
			diff = append(diff, i)
		}
	}
	require.NotEmpty(t, diff)
	assert.LessOrEqual(t, diff[len(diff)-1]-diff[0], 3, "only the int field changed")
}

func TestLevelDatViewsSaveUnchanged(t *testing.T) {
	ctx := context.Background()
	for _, dt := range []core.DataType{core.DataUTF8, core.DataNBTCompound, core.DataJSON} {
		t.Run(string(dt), func(t *testing.T) {
			src := filepath.Join(t.TempDir(), "world")
			testutil.WriteWorld(t, src, testutil.LevelDat(t, 9, testutil.LevelRoot("Old World")), nil)
			orig, err := os.ReadFile(filepath.Join(src, "level.dat"))
			require.NoError(t, err)

			w, err := session.OpenWorld(ctx, src, core.Direct, session.Config{})
			require.NoError(t, err)
			defer w.Close(ctx)

			id, err := w.OpenEntry(core.FileTarget("level.dat"))
			require.NoError(t, err)
			_, err = w.LoadEntry(ctx, id, session.LoadOptions{})
			require.NoError(t, err)
			_, err = w.ViewEntry(id, dt)
			require.NoError(t, err)
			require.NoError(t, w.SetUnsaved(id, true))
			require.NoError(t, w.Save(ctx, session.SaveOptions{}))

			got, err := os.ReadFile(filepath.Join(src, "level.dat"))
			require.NoError(t, err)
			assert.Equal(t, orig, got)

			info, err := w.Info(ctx)
			require.NoError(t, err)
			assert.Equal(t, 9, info.HeaderVersion)
		})
	}
}

// Scenario: a read-only world rejects saves and writes nothing anywhere.
func TestReadonlyRejectsSave(t *testing.T) {
	ctx := context.Background()
	src := filepath.Join(t.TempDir(), "world")
	testutil.WriteWorld(t, src, nil, map[string][]byte{playerKey: testutil.NBT(t, testutil.Player("Steve", 20))})
	before := testutil.Snapshot(t, src)

	w, err := session.OpenWorld(ctx, src, core.Readonly, session.Config{Staging: fs.StagingConfig{Root: t.TempDir()}})
	require.NoError(t, err)
	require.NoError(t, w.OpenErr())
	require.NotEmpty(t, w.StagingDir())
	staged := testutil.Snapshot(t, w.StagingDir())

	id := loadAndHeal(t, w, playerKey, 1)
	assert.ErrorIs(t, w.SaveEntry(ctx, id), core.ErrReadOnly)
	assert.ErrorIs(t, w.Save(ctx, session.SaveOptions{}), core.ErrReadOnly)
	assert.ErrorIs(t, w.PutKey(ctx, []byte("k"), []byte("v")), core.ErrReadOnly)
	assert.ErrorIs(t, w.DeleteKey(ctx, []byte(playerKey)), core.ErrReadOnly)

	info, _ := w.Entry(id)
	assert.True(t, info.Unsaved)
	assert.Equal(t, staged, testutil.Snapshot(t, w.StagingDir()))

	require.NoError(t, w.Close(ctx))
	assert.Equal(t, before, testutil.Snapshot(t, src))
}

// Scenario: copy mode never touches the source, and closing removes the copy.
func TestCopyModeIsolation(t *testing.T) {
	ctx := context.Background()
	src := filepath.Join(t.TempDir(), "world")
	testutil.WriteWorld(t, src, nil, map[string][]byte{playerKey: testutil.NBT(t, testutil.Player("Steve", 20))})
	before := testutil.Snapshot(t, src)
	srcInfo, err := os.Stat(src)
	require.NoError(t, err)

	w, err := session.OpenWorld(ctx, src, core.Copy, session.Config{Staging: fs.StagingConfig{Root: t.TempDir()}})
	require.NoError(t, err)

	loadAndHeal(t, w, playerKey, 1)
	require.NoError(t, w.Save(ctx, session.SaveOptions{}))
	assert.False(t, w.Modified())

	raw, err := w.ReadKey(ctx, []byte(playerKey))
	require.NoError(t, err)
	assert.Equal(t, int16(1), health(t, raw), "the staging copy holds the edit")
	assert.Equal(t, before, testutil.Snapshot(t, src))

	staging := w.StagingDir()
	require.DirExists(t, staging)
	require.NoError(t, w.Close(ctx))
	assert.NoDirExists(t, staging)

	after, err := os.Stat(src)
	require.NoError(t, err)
	assert.Equal(t, srcInfo.ModTime(), after.ModTime())
	assert.Equal(t, before, testutil.Snapshot(t, src))
}

func TestCopyUntilSaveCommitsOnSave(t *testing.T) {
	ctx := context.Background()
	src := filepath.Join(t.TempDir(), "world")
	testutil.WriteWorld(t, src, nil, map[string][]byte{playerKey: testutil.NBT(t, testutil.Player("Steve", 20))})

	w, err := session.OpenWorld(ctx, src, core.CopyUntilSave, session.Config{Staging: fs.StagingConfig{Root: t.TempDir()}})
	require.NoError(t, err)
	defer w.Close(ctx)

	id := loadAndHeal(t, w, playerKey, 7)
	require.NoError(t, w.SaveEntry(ctx, id))

	raw, err := testutil.ReadStore(t, filepath.Join(src, "db"), playerKey)
	require.NoError(t, err)
	assert.Equal(t, int16(20), health(t, raw), "the source changes only on world save")
	assert.True(t, w.Modified(), "the staged write is not committed yet")

	require.NoError(t, w.Save(ctx, session.SaveOptions{}))
	assert.False(t, w.Modified())

	raw, err = testutil.ReadStore(t, filepath.Join(src, "db"), playerKey)
	require.NoError(t, err)
	assert.Equal(t, int16(7), health(t, raw))

	_, err = w.ReadKey(ctx, []byte(playerKey))
	require.NoError(t, err, "the store is reopened after the commit")
}

// gatedClassifier holds the key scan on its first key until released. It
// embeds the interface so the scan goes through Classify key by key.
type gatedClassifier struct {
	core.Classifier
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (c *gatedClassifier) Classify(key []byte) core.ContentType {
	c.once.Do(func() {
		close(c.entered)
		<-c.release
	})
	return c.Classifier.Classify(key)
}

func TestCopyUntilSaveKeepsClassification(t *testing.T) {
	ctx := context.Background()
	keys := map[string][]byte{playerKey: testutil.NBT(t, testutil.Player("Steve", 20))}
	for i := range 200 {
		keys[fmt.Sprintf("player_server_%03d", i)] = testutil.NBT(t, testutil.Player("Alex", 20))
	}
	src := filepath.Join(t.TempDir(), "world")
	testutil.WriteWorld(t, src, nil, keys)

	gate := &gatedClassifier{Classifier: contenttype.New(), entered: make(chan struct{}), release: make(chan struct{})}
	w, err := session.OpenWorld(ctx, src, core.CopyUntilSave, session.Config{
		Staging:    fs.StagingConfig{Root: t.TempDir()},
		Classifier: gate,
	})
	require.NoError(t, err)
	defer w.Close(ctx)
	var unblock sync.Once
	release := func() { unblock.Do(func() { close(gate.release) }) }
	defer release()
	<-gate.entered

	done := make(chan error, 1)
	go func() { done <- w.Save(ctx, session.SaveOptions{}) }()
	select {
	case err := <-done:
		t.Fatalf("save committed during the key scan: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	release()
	require.NoError(t, <-done)

	c, err := w.Classification(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(keys), c.Len())

	_, err = w.ReadKey(ctx, []byte(playerKey))
	require.NoError(t, err)
}

type blockingStore struct {
	*testutil.MemStore
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) Put(ctx context.Context, key, value []byte) error {
	s.entered <- struct{}{}
	<-s.release
	return s.MemStore.Put(ctx, key, value)
}

func TestSaveWhileSaving(t *testing.T) {
	ctx := context.Background()
	st := &blockingStore{MemStore: testutil.NewMemStore(), entered: make(chan struct{}, 1), release: make(chan struct{})}
	st.Seed([]byte(playerKey), testutil.NBT(t, testutil.Player("Steve", 20)))

	w, err := session.OpenWorld(ctx, storeDir(t), core.Direct, memConfig(st))
	require.NoError(t, err)
	loadAndHeal(t, w, playerKey, 2)

	done := make(chan error, 1)
	go func() { done <- w.Save(ctx, session.SaveOptions{}) }()
	select {
	case <-st.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("save did not start")
	}

	assert.True(t, w.Saving())
	assert.NoError(t, w.Save(ctx, session.SaveOptions{}), "a second save is a no-op")
	assert.ErrorIs(t, w.Close(ctx), core.ErrBusy)

	close(st.release)
	require.NoError(t, <-done)
	assert.False(t, w.Modified())
	assert.Equal(t, 1, st.Puts())
	require.NoError(t, w.Close(ctx))
}

type failingStore struct {
	*testutil.MemStore
	bad string
}

func (s *failingStore) Put(ctx context.Context, key, value []byte) error {
	if string(key) == s.bad {
		return errors.New("disk full")
	}
	return s.MemStore.Put(ctx, key, value)
}

func TestSaveFailures(t *testing.T) {
	ctx := context.Background()
	st := &failingStore{MemStore: testutil.NewMemStore(), bad: "player_2"}
	st.Seed([]byte(playerKey), testutil.NBT(t, testutil.Player("Steve", 20)))
	st.Seed([]byte("player_2"), testutil.NBT(t, testutil.Player("Alex", 20)))

	w, err := session.OpenWorld(ctx, storeDir(t), core.Direct, memConfig(st))
	require.NoError(t, err)
	defer w.Close(ctx)
	rec := &recorder{}
	w.Subscribe(rec.record)

	good := loadAndHeal(t, w, playerKey, 3)
	bad := loadAndHeal(t, w, "player_2", 3)

	err = w.Save(ctx, session.SaveOptions{})
	require.ErrorContains(t, err, "disk full")
	for _, id := range []session.EntryID{good, bad} {
		info, _ := w.Entry(id)
		assert.True(t, info.Unsaved, "a failed save marks nothing clean")
	}
	finished := rec.of(core.EventSaveFinished)
	require.Len(t, finished, 1)
	assert.Error(t, finished[0].Err)

	require.NoError(t, w.Save(ctx, session.SaveOptions{IgnoreFailedSubSaves: true}))
	info, _ := w.Entry(good)
	assert.False(t, info.Unsaved)
	info, _ = w.Entry(bad)
	assert.True(t, info.Unsaved)
	assert.True(t, w.Modified())
}

func TestSaveDisabledAndClosed(t *testing.T) {
	ctx := context.Background()
	cfg := memConfig(testutil.NewMemStore())
	cfg.SaveDisabled = true
	w, err := session.OpenWorld(ctx, storeDir(t), core.Direct, cfg)
	require.NoError(t, err)

	id, err := w.OpenEntry(core.KeyTarget([]byte("k")))
	require.NoError(t, err)
	assert.ErrorIs(t, w.Save(ctx, session.SaveOptions{}), core.ErrSaveDisabled)
	assert.ErrorIs(t, w.SaveEntry(ctx, id), core.ErrSaveDisabled)

	require.NoError(t, w.Close(ctx))
	require.NoError(t, w.Close(ctx))
	_, err = w.OpenEntry(core.KeyTarget([]byte("k")))
	assert.ErrorIs(t, err, core.ErrClosed)
	_, err = w.Classification(ctx)
	assert.ErrorIs(t, err, core.ErrClosed)
}

func TestClassificationAndKeyEdits(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewMemStore()
	st.Seed([]byte(playerKey), testutil.NBT(t, testutil.Player("Steve", 20)))
	st.Seed([]byte("player_server_1"), testutil.NBT(t, testutil.Player("Alex", 20)))
	st.Seed([]byte("portals"), testutil.NBT(t, nbt.NewCompound()))

	w, err := session.OpenWorld(ctx, storeDir(t), core.Direct, memConfig(st))
	require.NoError(t, err)
	defer w.Close(ctx)

	c, err := w.Classification(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())
	assert.Len(t, c.Keys(contenttype.PlayerServer), 1)

	require.NoError(t, w.PutKey(ctx, []byte("player_server_2"), testutil.NBT(t, testutil.Player("Zed", 1))))
	assert.True(t, w.Modified())
	c, err = w.Classification(ctx)
	require.NoError(t, err)
	assert.Len(t, c.Keys(contenttype.PlayerServer), 2)

	require.NoError(t, w.DeleteKey(ctx, []byte("portals")))
	c, err = w.Classification(ctx)
	require.NoError(t, err)
	assert.Empty(t, c.Keys(contenttype.Portals))
	assert.Equal(t, 1, st.Deletes())

	require.NoError(t, w.Save(ctx, session.SaveOptions{}))
	assert.False(t, w.Modified())
}

func TestClassificationFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewMemStore()
	st.Seed([]byte(playerKey), testutil.NBT(t, testutil.Player("Steve", 20)))
	st.Seed([]byte("portals"), testutil.NBT(t, nbt.NewCompound()))
	st.FailKeysAfter(1, errors.New("corrupt block"))

	w, err := session.OpenWorld(ctx, storeDir(t), core.Direct, memConfig(st))
	require.NoError(t, err)
	defer w.Close(ctx)

	_, err = w.Classification(ctx)
	assert.ErrorIs(t, err, core.ErrClassificationIncomplete)

	id, err := w.OpenEntry(core.KeyTarget([]byte(playerKey)))
	require.NoError(t, err)
	_, err = w.LoadEntry(ctx, id, session.LoadOptions{})
	assert.NoError(t, err)
	assert.False(t, w.State().(session.WorldState).Classified)
}

package testutil

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/worldkit/pkg/adapters/leveldb"
	"github.com/aretw0/worldkit/pkg/nbt"
)

// LevelRoot returns a small level.dat compound.
func LevelRoot(name string) *nbt.Compound {
	return nbt.NewCompound(
		nbt.Entry{Name: "LevelName", Value: name},
		nbt.Entry{Name: "GameType", Value: int32(0)},
		nbt.Entry{Name: "Difficulty", Value: int32(2)},
		nbt.Entry{Name: "RandomSeed", Value: int64(1234567890123)},
		nbt.Entry{Name: "LastPlayed", Value: int64(1700000000)},
		nbt.Entry{Name: "SpawnX", Value: int32(8)},
		nbt.Entry{Name: "SpawnY", Value: int32(64)},
		nbt.Entry{Name: "SpawnZ", Value: int32(-8)},
		nbt.Entry{Name: "StorageVersion", Value: int32(10)},
	)
}

// LevelDat encodes root the way level.dat files are stored: a little endian
// header (version, payload length) followed by a little endian root.
func LevelDat(t testing.TB, version int32, root *nbt.Compound) []byte {
	t.Helper()
	payload, err := nbt.Encode("", root, nbt.LittleEndian)
	require.NoError(t, err)
	out := make([]byte, 8, 8+len(payload))
	binary.LittleEndian.PutUint32(out[0:4], uint32(version))
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(payload)))
	return append(out, payload...)
}

// NBT encodes root as a little endian record, as stored under player keys.
func NBT(t testing.TB, root *nbt.Compound) []byte {
	t.Helper()
	b, err := nbt.Encode("", root, nbt.LittleEndian)
	require.NoError(t, err)
	return b
}

// Player returns a player record named name.
func Player(name string, health int16) *nbt.Compound {
	pos, _ := nbt.NewList(float32(0.5), float32(70), float32(-2.5))
	return nbt.NewCompound(
		nbt.Entry{Name: "Name", Value: name},
		nbt.Entry{Name: "Health", Value: health},
		nbt.Entry{Name: "Pos", Value: pos},
	)
}

// WriteWorld creates a world directory: level.dat, levelname.txt and a db/
// LevelDB store holding keys. levelDat may be nil for a default one.
func WriteWorld(t testing.TB, dir string, levelDat []byte, keys map[string][]byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	if levelDat == nil {
		levelDat = LevelDat(t, 10, LevelRoot("Test World"))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "level.dat"), levelDat, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "levelname.txt"), []byte("Test World"), 0o644))
	WriteStore(t, filepath.Join(dir, "db"), keys)
}

// WriteStore creates a LevelDB store at dir holding keys.
func WriteStore(t testing.TB, dir string, keys map[string][]byte) {
	t.Helper()
	ctx := context.Background()
	st := leveldb.NewStore(leveldb.Config{Path: dir, Create: true})
	require.NoError(t, st.Open(ctx))
	for k, v := range keys {
		require.NoError(t, st.Put(ctx, []byte(k), v))
	}
	require.NoError(t, st.Close())
}

// ReadStore reads one key from the LevelDB store at dir.
func ReadStore(t testing.TB, dir string, key string) ([]byte, error) {
	t.Helper()
	ctx := context.Background()
	st := leveldb.NewStore(leveldb.Config{Path: dir, ReadOnly: true})
	require.NoError(t, st.Open(ctx))
	defer st.Close()
	return st.Get(ctx, []byte(key))
}

// Snapshot returns the content of every regular file below dir, keyed by
// slash separated relative path.
func Snapshot(t testing.TB, dir string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(b)
		return nil
	})
	require.NoError(t, err)
	return out
}

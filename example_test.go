package worldkit_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/df-mc/dragonfly/server/world/mcdb/leveldat"

	"github.com/aretw0/worldkit"
	"github.com/aretw0/worldkit/pkg/adapters/leveldb"
	"github.com/aretw0/worldkit/pkg/session"
)

// newWorld writes a minimal world: a default level.dat and an empty db/.
func newWorld(dir, name string) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Fatal(err)
	}
	var d leveldat.Data
	d.FillDefault()
	d.LevelName = name
	var ld leveldat.LevelDat
	if err := ld.Marshal(d); err != nil {
		log.Fatal(err)
	}
	if err := ld.WriteFile(filepath.Join(dir, "level.dat")); err != nil {
		log.Fatal(err)
	}
	st := leveldb.NewStore(leveldb.Config{Path: filepath.Join(dir, "db"), Create: true})
	if err := st.Open(context.Background()); err != nil {
		log.Fatal(err)
	}
	st.Close()
}

// Example_basic opens a world on a staging copy, switches it to creative and
// saves it back to the source.
func Example_basic() {
	tmpDir, err := os.MkdirTemp("", "worldkit-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	src := filepath.Join(tmpDir, "My World")
	newWorld(src, "My World")

	mgr, err := worldkit.New(worldkit.WithStagingRoot(tmpDir))
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()
	defer mgr.CloseAll(ctx)

	w, err := mgr.Open(ctx, src, worldkit.CopyUntilSave)
	if err != nil {
		log.Fatal(err)
	}

	// 1. Edit level.dat
	id, err := w.OpenEntry(worldkit.FileTarget("level.dat"))
	if err != nil {
		log.Fatal(err)
	}
	v, err := w.LoadEntry(ctx, id, session.LoadOptions{})
	if err != nil {
		log.Fatal(err)
	}
	v.NBT.Root().Set("GameType", int32(1))
	if err := w.SetValue(id, v); err != nil {
		log.Fatal(err)
	}
	if err := w.SetUnsaved(id, true); err != nil {
		log.Fatal(err)
	}

	// 2. Commit to the source
	if err := w.Save(ctx, session.SaveOptions{}); err != nil {
		log.Fatal(err)
	}

	// 3. Read the source back
	ro, err := mgr.Open(ctx, src, worldkit.ReadonlyDirect)
	if err != nil {
		log.Fatal(err)
	}
	info, err := ro.Info(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s: game type %d\n", info.Name, info.GameType)
	// Output:
	// My World: game type 1
}

package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/df-mc/dragonfly/server/world/mcdb/leveldat"

	"github.com/aretw0/worldkit/pkg/core"
)

// Info holds the headline fields of a world's level.dat.
type Info struct {
	Name           string
	LastPlayed     time.Time
	Seed           int64
	GameType       int
	Difficulty     int
	Generator      int
	Spawn          [3]int
	StorageVersion int
	// HeaderVersion is the version stored in the level.dat file header.
	HeaderVersion int
}

// Info decodes the level.dat of the world as the session currently sees it
// (the staging copy for staged modes).
func (w *World) Info(ctx context.Context) (Info, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	if w.Kind != core.TargetWorld {
		return Info{}, fmt.Errorf("%w: a %s has no level.dat", core.ErrEntryNotFound, w.Kind)
	}
	p := filepath.Join(w.root, "level.dat")
	if _, err := os.Stat(p); err != nil {
		return Info{}, fmt.Errorf("%w: %v", core.ErrEntryNotFound, err)
	}

	ld, err := leveldat.ReadFile(p)
	if err != nil {
		return Info{}, fmt.Errorf("read level.dat: %w", err)
	}
	var d leveldat.Data
	if err := ld.Unmarshal(&d); err != nil {
		return Info{}, fmt.Errorf("decode level.dat: %w", err)
	}
	return Info{
		Name:           d.LevelName,
		LastPlayed:     time.Unix(int64(d.LastPlayed), 0),
		Seed:           int64(d.RandomSeed),
		GameType:       int(d.GameType),
		Difficulty:     int(d.Difficulty),
		Generator:      int(d.Generator),
		Spawn:          [3]int{int(d.SpawnX), int(d.SpawnY), int(d.SpawnZ)},
		StorageVersion: int(d.StorageVersion),
		HeaderVersion:  int(ld.Ver()),
	}, nil
}

package contenttype

import (
	"github.com/aretw0/worldkit/pkg/core"
	"github.com/aretw0/worldkit/pkg/nbt"
)

// Table is a static content type to format mapping.
type Table map[core.ContentType]core.FormatDescriptor

var _ core.FormatTable = Table(nil)

// Format returns the descriptor for ct. Unmapped types are opaque binary.
func (t Table) Format(ct core.ContentType) core.FormatDescriptor {
	if f, ok := t[ct]; ok {
		return f
	}
	return core.FormatDescriptor{Type: core.FormatBinary}
}

var (
	nbtLE      = core.FormatDescriptor{Type: core.FormatNBT, NBT: core.NBTOptions{Encoding: nbt.LittleEndian}}
	nbtLEMulti = core.FormatDescriptor{Type: core.FormatNBT, NBT: core.NBTOptions{Encoding: nbt.LittleEndian, Multi: true}}
	binaryFmt  = core.FormatDescriptor{Type: core.FormatBinary}
	hexFmt     = core.FormatDescriptor{Type: core.FormatHex}
)

func intFmt(bytes int, signed bool) core.FormatDescriptor {
	return core.FormatDescriptor{Type: core.FormatInt, Int: core.IntOptions{Bytes: bytes, Signed: signed}}
}

// DefaultTable returns the Bedrock format table.
func DefaultTable() Table {
	t := Table{
		LevelDat: {
			Type: core.FormatNBT,
			NBT:  core.NBTOptions{Encoding: nbt.LittleEndian, Header: true},
		},
		LevelName:       {Type: core.FormatUTF8},
		WorldIcon:       binaryFmt,
		WorldPacks:      {Type: core.FormatJSON},
		FlatWorldLayers: {Type: core.FormatJSON},
		ChunkMetaData:   binaryFmt,
		DigP:            hexFmt,

		Data3D:             binaryFmt,
		Version:            intFmt(1, false),
		Data2D:             {Type: core.FormatCustom, Custom: Data2DCodec{}},
		Data2DLegacy:       binaryFmt,
		SubChunkPrefix:     binaryFmt,
		LegacyTerrain:      binaryFmt,
		BlockEntity:        nbtLEMulti,
		Entity:             nbtLEMulti,
		PendingTicks:       nbtLEMulti,
		RandomTicks:        nbtLEMulti,
		BlockExtraData:     binaryFmt,
		BiomeState:         binaryFmt,
		FinalizedState:     intFmt(4, true),
		ConversionData:     binaryFmt,
		BorderBlocks:       binaryFmt,
		HardcodedSpawners:  binaryFmt,
		Checksums:          hexFmt,
		MetaDataHash:       intFmt(8, false),
		BlendingPreCaves:   intFmt(1, false),
		BlendingHeight:     binaryFmt,
		BlendingData:       binaryFmt,
		ActorDigestVersion: intFmt(1, false),
		LegacyVersion:      intFmt(1, false),

		Unknown: binaryFmt,
	}
	for _, ct := range []core.ContentType{
		LocalPlayer, Player, PlayerServer, Map, StructureTemplate, Village, Portals,
		Scoreboard, AutonomousEntities, BiomeData, MobEvents, SchedulerWT,
		Overworld, Nether, TheEnd, Actor,
	} {
		t[ct] = nbtLE
	}
	return t
}

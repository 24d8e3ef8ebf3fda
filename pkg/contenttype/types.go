// Package contenttype classifies Bedrock world keys and files and maps each
// content type to the format its bytes are stored in.
package contenttype

import "github.com/aretw0/worldkit/pkg/core"

// World files.
const (
	LevelDat   core.ContentType = "LevelDat"
	LevelName  core.ContentType = "LevelName"
	WorldIcon  core.ContentType = "WorldIcon"
	WorldPacks core.ContentType = "WorldPacks"
)

// Global store records.
const (
	LocalPlayer        core.ContentType = "LocalPlayer"
	Player             core.ContentType = "Player"
	PlayerServer       core.ContentType = "PlayerServer"
	Map                core.ContentType = "Map"
	StructureTemplate  core.ContentType = "StructureTemplate"
	Village            core.ContentType = "Village"
	Portals            core.ContentType = "Portals"
	Scoreboard         core.ContentType = "Scoreboard"
	AutonomousEntities core.ContentType = "AutonomousEntities"
	BiomeData          core.ContentType = "BiomeData"
	MobEvents          core.ContentType = "MobEvents"
	SchedulerWT        core.ContentType = "SchedulerWT"
	Overworld          core.ContentType = "Overworld"
	Nether             core.ContentType = "Nether"
	TheEnd             core.ContentType = "TheEnd"
	ChunkMetaData      core.ContentType = "LevelChunkMetaDataDictionary"
	Actor              core.ContentType = "ActorPrefix"
	DigP               core.ContentType = "DigP"
	FlatWorldLayers    core.ContentType = "FlatWorldLayers"
)

// Chunk records, one per chunk key tag.
const (
	Data3D             core.ContentType = "Data3D"
	Version            core.ContentType = "Version"
	Data2D             core.ContentType = "Data2D"
	Data2DLegacy       core.ContentType = "Data2DLegacy"
	SubChunkPrefix     core.ContentType = "SubChunkPrefix"
	LegacyTerrain      core.ContentType = "LegacyTerrain"
	BlockEntity        core.ContentType = "BlockEntity"
	Entity             core.ContentType = "Entity"
	PendingTicks       core.ContentType = "PendingTicks"
	BlockExtraData     core.ContentType = "BlockExtraData"
	BiomeState         core.ContentType = "BiomeState"
	FinalizedState     core.ContentType = "FinalizedState"
	ConversionData     core.ContentType = "ConversionData"
	BorderBlocks       core.ContentType = "BorderBlocks"
	HardcodedSpawners  core.ContentType = "HardcodedSpawners"
	RandomTicks        core.ContentType = "RandomTicks"
	Checksums          core.ContentType = "Checksums"
	MetaDataHash       core.ContentType = "MetaDataHash"
	BlendingPreCaves   core.ContentType = "GeneratedPreCavesAndCliffsBlending"
	BlendingHeight     core.ContentType = "BlendingBiomeHeight"
	BlendingData       core.ContentType = "BlendingData"
	ActorDigestVersion core.ContentType = "ActorDigestVersion"
	LegacyVersion      core.ContentType = "LegacyVersion"
)

// Unknown is assigned to anything no other rule matches.
const Unknown core.ContentType = "Unknown"

// chunkTags maps the tag byte of a chunk key to its content type.
var chunkTags = map[byte]core.ContentType{
	43:  Data3D,
	44:  Version,
	45:  Data2D,
	46:  Data2DLegacy,
	47:  SubChunkPrefix,
	48:  LegacyTerrain,
	49:  BlockEntity,
	50:  Entity,
	51:  PendingTicks,
	52:  BlockExtraData,
	53:  BiomeState,
	54:  FinalizedState,
	55:  ConversionData,
	56:  BorderBlocks,
	57:  HardcodedSpawners,
	58:  RandomTicks,
	59:  Checksums,
	61:  MetaDataHash,
	62:  BlendingPreCaves,
	63:  BlendingHeight,
	64:  BlendingData,
	65:  ActorDigestVersion,
	118: LegacyVersion,
}

const tagSubChunkPrefix = 47

// declared is the content type declaration order. Search results and bulk
// classifications follow it.
var declared = []core.ContentType{
	LevelDat, LevelName, WorldIcon, WorldPacks,
	LocalPlayer, Player, PlayerServer, Map, StructureTemplate, Village, Portals,
	Scoreboard, AutonomousEntities, BiomeData, MobEvents, SchedulerWT,
	Overworld, Nether, TheEnd, ChunkMetaData, Actor, DigP, FlatWorldLayers,
	Data3D, Version, Data2D, Data2DLegacy, SubChunkPrefix, LegacyTerrain,
	BlockEntity, Entity, PendingTicks, BlockExtraData, BiomeState, FinalizedState,
	ConversionData, BorderBlocks, HardcodedSpawners, RandomTicks, Checksums,
	MetaDataHash, BlendingPreCaves, BlendingHeight, BlendingData,
	ActorDigestVersion, LegacyVersion,
	Unknown,
}

// All returns every content type in declaration order.
func All() []core.ContentType {
	return append([]core.ContentType(nil), declared...)
}

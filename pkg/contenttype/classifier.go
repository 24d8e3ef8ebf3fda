package contenttype

import (
	"context"
	"encoding/binary"
	"fmt"
	"path"
	"strconv"
	"strings"
	"unicode"

	"github.com/aretw0/worldkit/pkg/core"
)

// Classifier implements core.Classifier and core.BulkClassifier for Bedrock
// worlds.
type Classifier struct{}

// New returns the Bedrock classifier.
func New() *Classifier { return &Classifier{} }

var (
	_ core.Classifier     = (*Classifier)(nil)
	_ core.BulkClassifier = (*Classifier)(nil)
)

// Exact string keys.
var namedKeys = map[string]core.ContentType{
	"~local_player":                LocalPlayer,
	"portals":                      Portals,
	"scoreboard":                   Scoreboard,
	"AutonomousEntities":           AutonomousEntities,
	"BiomeData":                    BiomeData,
	"mobevents":                    MobEvents,
	"schedulerWT":                  SchedulerWT,
	"Overworld":                    Overworld,
	"Nether":                       Nether,
	"TheEnd":                       TheEnd,
	"LevelChunkMetaDataDictionary": ChunkMetaData,
	"game_flatworldlayers":         FlatWorldLayers,
}

// Prefixed string keys, checked in order.
var prefixedKeys = []struct {
	prefix string
	ct     core.ContentType
}{
	{"player_server_", PlayerServer},
	{"player_", Player},
	{"map_", Map},
	{"structuretemplate_", StructureTemplate},
	{"VILLAGE_", Village},
	{"actorprefix", Actor},
	{"digp", DigP},
}

// Classify returns the content type of a raw store key.
func (c *Classifier) Classify(key []byte) core.ContentType {
	if ct, ok := namedKeys[string(key)]; ok {
		return ct
	}
	s := string(key)
	for _, p := range prefixedKeys {
		if strings.HasPrefix(s, p.prefix) && len(s) > len(p.prefix) {
			return p.ct
		}
	}
	if ck, ok := ParseChunkKey(key); ok {
		return chunkTags[ck.Tag]
	}
	return Unknown
}

// ClassifyFile returns the content type of a file relative to the world root.
func (c *Classifier) ClassifyFile(rel string) core.ContentType {
	switch path.Clean(strings.ReplaceAll(rel, "\\", "/")) {
	case "level.dat", "level.dat_old":
		return LevelDat
	case "levelname.txt":
		return LevelName
	case "world_icon.jpeg", "world_icon.png":
		return WorldIcon
	case "world_behavior_packs.json", "world_resource_packs.json",
		"world_behavior_pack_history.json", "world_resource_pack_history.json":
		return WorldPacks
	}
	return Unknown
}

// ContentTypes lists every content type in declaration order.
func (c *Classifier) ContentTypes() []core.ContentType {
	return All()
}

// ClassifyAll walks every key of the store. When iteration stops early the
// keys seen so far are returned together with ErrClassificationIncomplete.
func (c *Classifier) ClassifyAll(ctx context.Context, store core.Store) (*core.Classification, error) {
	out := core.NewClassification(c.ContentTypes())
	err := store.Keys(ctx, func(key []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		out.Add(c.Classify(key), key)
		return nil
	})
	if err != nil {
		return out, fmt.Errorf("%w: %w", core.ErrClassificationIncomplete, err)
	}
	return out, nil
}

// ChunkKey is a decoded chunk record key.
type ChunkKey struct {
	X, Z      int32
	Dimension int32
	Tag       byte
	// SubChunk is only meaningful when HasSubChunk is set.
	SubChunk    int8
	HasSubChunk bool
}

// ParseChunkKey decodes keys of the form x, z, [dimension], tag, [subchunk],
// with x, z and dimension as little endian int32.
func ParseChunkKey(key []byte) (ChunkKey, bool) {
	var ck ChunkKey
	switch len(key) {
	case 9, 10:
		ck.Tag = key[8]
	case 13, 14:
		ck.Dimension = int32(binary.LittleEndian.Uint32(key[8:12]))
		ck.Tag = key[12]
		if ck.Dimension < 0 || ck.Dimension > 2 {
			return ChunkKey{}, false
		}
	default:
		return ChunkKey{}, false
	}
	if _, ok := chunkTags[ck.Tag]; !ok {
		return ChunkKey{}, false
	}
	if len(key) == 10 || len(key) == 14 {
		if ck.Tag != tagSubChunkPrefix {
			return ChunkKey{}, false
		}
		ck.SubChunk, ck.HasSubChunk = int8(key[len(key)-1]), true
	}
	ck.X = int32(binary.LittleEndian.Uint32(key[0:4]))
	ck.Z = int32(binary.LittleEndian.Uint32(key[4:8]))
	return ck, true
}

// Key encodes the chunk key back to its raw form.
func (ck ChunkKey) Key() []byte {
	out := binary.LittleEndian.AppendUint32(nil, uint32(ck.X))
	out = binary.LittleEndian.AppendUint32(out, uint32(ck.Z))
	if ck.Dimension != 0 {
		out = binary.LittleEndian.AppendUint32(out, uint32(ck.Dimension))
	}
	out = append(out, ck.Tag)
	if ck.HasSubChunk {
		out = append(out, byte(ck.SubChunk))
	}
	return out
}

var dimensionNames = [...]string{"overworld", "nether", "end"}

func (ck ChunkKey) String() string {
	s := fmt.Sprintf("%s [%d, %d] %s", chunkTags[ck.Tag], ck.X, ck.Z, dimensionNames[ck.Dimension])
	if ck.HasSubChunk {
		s += " y=" + strconv.Itoa(int(ck.SubChunk))
	}
	return s
}

// DisplayKey renders a key for listings and display-key search.
func (c *Classifier) DisplayKey(key []byte) string {
	s := string(key)
	for _, p := range []string{"actorprefix", "digp"} {
		if !strings.HasPrefix(s, p) {
			continue
		}
		rest := key[len(p):]
		switch {
		case p == "actorprefix" && len(rest) == 8:
			return fmt.Sprintf("actorprefix %d", int64(binary.LittleEndian.Uint64(rest)))
		case p == "digp" && (len(rest) == 8 || len(rest) == 12):
			ck := ChunkKey{
				X: int32(binary.LittleEndian.Uint32(rest[0:4])),
				Z: int32(binary.LittleEndian.Uint32(rest[4:8])),
			}
			dim := "overworld"
			if len(rest) == 12 {
				if d := binary.LittleEndian.Uint32(rest[8:12]); d < 3 {
					dim = dimensionNames[d]
				}
			}
			return fmt.Sprintf("digp [%d, %d] %s", ck.X, ck.Z, dim)
		}
	}
	if printable(s) {
		return s
	}
	if ck, ok := ParseChunkKey(key); ok {
		return ck.String()
	}
	return fmt.Sprintf("0x%x", key)
}

func printable(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r == unicode.ReplacementChar || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

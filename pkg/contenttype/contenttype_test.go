package contenttype_test

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/worldkit/internal/testutil"
	"github.com/aretw0/worldkit/pkg/contenttype"
	"github.com/aretw0/worldkit/pkg/core"
	"github.com/aretw0/worldkit/pkg/format"
	"github.com/aretw0/worldkit/pkg/nbt"
)

func chunkKey(x, z, dim int32, tag byte, sub ...int8) []byte {
	return contenttype.ChunkKey{X: x, Z: z, Dimension: dim, Tag: tag, SubChunk: firstOr(sub), HasSubChunk: len(sub) > 0}.Key()
}

func firstOr(s []int8) int8 {
	if len(s) == 0 {
		return 0
	}
	return s[0]
}

func TestClassify(t *testing.T) {
	c := contenttype.New()
	actor := append([]byte("actorprefix"), 1, 0, 0, 0, 0, 0, 0, 0)

	cases := map[string]struct {
		key  []byte
		want core.ContentType
	}{
		"local player":   {[]byte("~local_player"), contenttype.LocalPlayer},
		"player":         {[]byte("player_4e7a0c1e"), contenttype.Player},
		"player server":  {[]byte("player_server_2c1b"), contenttype.PlayerServer},
		"map":            {[]byte("map_-4294967295"), contenttype.Map},
		"village":        {[]byte("VILLAGE_0b7e_INFO"), contenttype.Village},
		"scoreboard":     {[]byte("scoreboard"), contenttype.Scoreboard},
		"actor":          {actor, contenttype.Actor},
		"flat layers":    {[]byte("game_flatworldlayers"), contenttype.FlatWorldLayers},
		"version":        {chunkKey(1, -1, 0, 44), contenttype.Version},
		"nether entity":  {chunkKey(-3, 7, 1, 50), contenttype.Entity},
		"subchunk":       {chunkKey(0, 0, 0, 47, -4), contenttype.SubChunkPrefix},
		"end subchunk":   {chunkKey(0, 0, 2, 47, 3), contenttype.SubChunkPrefix},
		"data2d":         {chunkKey(5, 5, 0, 45), contenttype.Data2D},
		"bare prefix":    {[]byte("player_"), contenttype.Unknown},
		"unknown tag":    {chunkKey(0, 0, 0, 99), contenttype.Unknown},
		"index on data":  {append(chunkKey(0, 0, 0, 44), 1), contenttype.Unknown},
		"bad dimension":  {append(binary.LittleEndian.AppendUint32(make([]byte, 8), 7), 44), contenttype.Unknown},
		"random garbage": {[]byte{0xde, 0xad}, contenttype.Unknown},
	}
	for name, tc := range cases {
		assert.Equal(t, tc.want, c.Classify(tc.key), name)
	}
}

func TestClassifyFile(t *testing.T) {
	c := contenttype.New()
	assert.Equal(t, contenttype.LevelDat, c.ClassifyFile("level.dat"))
	assert.Equal(t, contenttype.LevelName, c.ClassifyFile("./levelname.txt"))
	assert.Equal(t, contenttype.WorldPacks, c.ClassifyFile("world_behavior_packs.json"))
	assert.Equal(t, contenttype.Unknown, c.ClassifyFile("db/CURRENT"))
}

func TestChunkKeyRoundTrip(t *testing.T) {
	key := chunkKey(-12, 40, 1, 47, 2)
	ck, ok := contenttype.ParseChunkKey(key)
	require.True(t, ok)
	assert.Equal(t, int32(-12), ck.X)
	assert.Equal(t, int32(40), ck.Z)
	assert.Equal(t, int32(1), ck.Dimension)
	assert.Equal(t, int8(2), ck.SubChunk)
	assert.Equal(t, key, ck.Key())
}

func TestDisplayKey(t *testing.T) {
	c := contenttype.New()
	assert.Equal(t, "~local_player", c.DisplayKey([]byte("~local_player")))
	assert.Equal(t, "SubChunkPrefix [-12, 40] nether y=2", c.DisplayKey(chunkKey(-12, 40, 1, 47, 2)))
	assert.Equal(t, "Version [0, 0] overworld", c.DisplayKey(chunkKey(0, 0, 0, 44)))
	assert.Equal(t, "actorprefix 1", c.DisplayKey(append([]byte("actorprefix"), 1, 0, 0, 0, 0, 0, 0, 0)))
	assert.Equal(t, "0xdead", c.DisplayKey([]byte{0xde, 0xad}))
}

func TestClassifyAll(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemStore()
	require.NoError(t, store.Open(ctx))
	for _, k := range [][]byte{
		chunkKey(0, 0, 0, 44),
		[]byte("~local_player"),
		[]byte("player_1"),
		chunkKey(1, 0, 0, 44),
	} {
		require.NoError(t, store.Put(ctx, k, []byte{1}))
	}

	cls, err := contenttype.New().ClassifyAll(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 4, cls.Len())
	assert.Len(t, cls.Keys(contenttype.Version), 2)

	var order []core.ContentType
	for ct := range cls.All() {
		order = append(order, ct)
	}
	assert.Equal(t, []core.ContentType{contenttype.LocalPlayer, contenttype.Player, contenttype.Version, contenttype.Version}, order)

	store.FailKeysAfter(2, errors.New("corrupt block"))
	cls, err = contenttype.New().ClassifyAll(ctx, store)
	assert.ErrorIs(t, err, core.ErrClassificationIncomplete)
	assert.Equal(t, 2, cls.Len())
}

func TestDefaultTableRoundTrips(t *testing.T) {
	table := contenttype.DefaultTable()
	engine := format.NewEngine(format.Config{})

	for _, ct := range contenttype.All() {
		assert.NotEmpty(t, table.Format(ct).Type, ct)
	}

	raw := make([]byte, 768)
	for i := range 256 {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(60+i%5))
		raw[512+i] = byte(i % 7)
	}
	v, err := engine.Load(raw, table.Format(contenttype.Data2D))
	require.NoError(t, err)
	require.Equal(t, core.DataNBTCompound, v.Type)
	hm, _ := v.Compound.Get("HeightMap")
	assert.Equal(t, int16(61), hm.(*nbt.List).Items[1])

	out, err := engine.Save(v, v.Format)
	require.NoError(t, err)
	assert.Equal(t, raw, out)

	_, err = engine.Load(raw[:10], table.Format(contenttype.Data2D))
	assert.ErrorIs(t, err, core.ErrInvalidValue)

	v, err = engine.Load([]byte{40}, table.Format(contenttype.Version))
	require.NoError(t, err)
	assert.Equal(t, int64(40), v.Int.Int64())
}

package contenttype

import (
	"encoding/binary"
	"fmt"

	"github.com/aretw0/worldkit/pkg/core"
	"github.com/aretw0/worldkit/pkg/nbt"
)

const (
	data2DColumns = 256
	data2DSize    = data2DColumns*2 + data2DColumns
)

// Data2DCodec reads the pre-1.18 per-chunk height map and biome table: 256
// little endian shorts followed by 256 biome ids.
type Data2DCodec struct{}

var _ core.CustomCodec = Data2DCodec{}

func (Data2DCodec) Name() string { return "data2d" }

func (Data2DCodec) Result() core.ResultShape { return core.ResultJSONNBT }

// Parse returns a compound with a HeightMap list of shorts and a Biomes byte array.
func (Data2DCodec) Parse(raw []byte) (any, error) {
	if len(raw) != data2DSize {
		return nil, fmt.Errorf("%w: Data2D is %d bytes, want %d", core.ErrInvalidValue, len(raw), data2DSize)
	}
	heights := make([]any, data2DColumns)
	for i := range heights {
		heights[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	biomes := append([]byte(nil), raw[data2DColumns*2:]...)
	return nbt.NewCompound(
		nbt.Entry{Name: "HeightMap", Value: &nbt.List{Elem: nbt.TagShort, Items: heights}},
		nbt.Entry{Name: "Biomes", Value: biomes},
	), nil
}

func (Data2DCodec) Serialize(v any) ([]byte, error) {
	c, ok := v.(*nbt.Compound)
	if !ok {
		return nil, fmt.Errorf("%w: Data2D wants a compound, got %T", core.ErrInvalidValue, v)
	}
	hv, _ := c.Get("HeightMap")
	heights, ok := hv.(*nbt.List)
	if !ok || len(heights.Items) != data2DColumns {
		return nil, fmt.Errorf("%w: HeightMap must be a list of %d shorts", core.ErrInvalidValue, data2DColumns)
	}
	bv, _ := c.Get("Biomes")
	biomes, ok := bv.([]byte)
	if !ok || len(biomes) != data2DColumns {
		return nil, fmt.Errorf("%w: Biomes must be a byte array of %d entries", core.ErrInvalidValue, data2DColumns)
	}
	out := make([]byte, 0, data2DSize)
	for i, it := range heights.Items {
		h, ok := it.(int16)
		if !ok {
			return nil, fmt.Errorf("%w: HeightMap[%d] is %T, want short", core.ErrInvalidValue, i, it)
		}
		out = binary.LittleEndian.AppendUint16(out, uint16(h))
	}
	return append(out, biomes...), nil
}

package core

import (
	"math/big"

	"github.com/aretw0/worldkit/pkg/nbt"
)

// DataType tags the variant held by a Value.
type DataType string

const (
	DataNBT             DataType = "NBT"
	DataNBTCompound     DataType = "NBTCompound"
	DataJSON            DataType = "JSON"
	DataASCII           DataType = "ASCII"
	DataUTF8            DataType = "UTF-8"
	DataHex             DataType = "hex"
	DataBinaryPlainText DataType = "binaryPlainText"
	DataInt             DataType = "int"
	DataBinary          DataType = "binary"
	DataUnknown         DataType = "unknown"
)

// IsText reports whether the variant is carried in Value.Text.
func (d DataType) IsText() bool {
	switch d {
	case DataJSON, DataASCII, DataUTF8, DataHex, DataBinaryPlainText:
		return true
	}
	return false
}

// NBTData is a decoded NBT payload together with the layout it was read with.
type NBTData struct {
	Encoding nbt.Encoding
	// Name is the root tag name; Bedrock leaves it empty.
	Name  string
	Roots []*nbt.Compound
	// Multi is set when the payload holds several roots back to back.
	Multi bool
	// Header and HeaderVersion describe the level.dat prefix.
	Header        bool
	HeaderVersion int32
}

// Root returns the first root compound, or nil.
func (d *NBTData) Root() *nbt.Compound {
	if d == nil || len(d.Roots) == 0 {
		return nil
	}
	return d.Roots[0]
}

// NBTLayout is the root name and level.dat header version an NBT value was
// decoded with. Views carry it so a save writes the value back the same way.
type NBTLayout struct {
	Name          string
	HeaderVersion int32
}

// Value is the structured, in-memory form of an entry. Exactly one payload
// field is set, selected by Type. Format is the descriptor the value was
// produced from and is used again when it is saved.
type Value struct {
	Type   DataType
	Format FormatDescriptor
	Layout NBTLayout

	NBT      *NBTData      // DataNBT
	Compound *nbt.Compound // DataNBTCompound
	Text     string        // JSON, ASCII, UTF-8, hex, binaryPlainText
	Int      *big.Int      // DataInt
	Bytes    []byte        // DataBinary, DataUnknown
}

// CurrentLayout returns the layout the value is written with: the live NBT
// payload's for DataNBT values, the carried Layout otherwise.
func (v *Value) CurrentLayout() NBTLayout {
	if v.Type == DataNBT && v.NBT != nil {
		return NBTLayout{Name: v.NBT.Name, HeaderVersion: v.NBT.HeaderVersion}
	}
	return v.Layout
}

// Tree returns the NBT roots held by the value, if it holds any.
func (v *Value) Tree() ([]*nbt.Compound, bool) {
	switch v.Type {
	case DataNBT:
		if v.NBT == nil {
			return nil, false
		}
		return v.NBT.Roots, true
	case DataNBTCompound:
		return []*nbt.Compound{v.Compound}, v.Compound != nil
	}
	return nil, false
}

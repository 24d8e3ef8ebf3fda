package core

import "github.com/aretw0/worldkit/pkg/nbt"

// FormatType is the native encoding of a content type's raw bytes.
type FormatType string

const (
	FormatNBT             FormatType = "NBT"
	FormatSNBT            FormatType = "SNBT"
	FormatJSON            FormatType = "JSON"
	FormatASCII           FormatType = "ASCII"
	FormatUTF8            FormatType = "UTF-8"
	FormatHex             FormatType = "hex"
	FormatBinaryPlainText FormatType = "binaryPlainText"
	FormatInt             FormatType = "int"
	FormatBinary          FormatType = "binary"
	FormatCustom          FormatType = "custom"
)

// NBTOptions is the sub-mode of an NBT format.
type NBTOptions struct {
	Encoding nbt.Encoding
	// Header marks the 8 byte level.dat prefix (storage version, payload length).
	Header bool
	// Multi marks several root compounds stored back to back.
	Multi bool
}

// IntOptions describes a fixed width integer.
type IntOptions struct {
	Bytes     int
	BigEndian bool
	Signed    bool
}

// ResultShape is what a custom codec produces when parsing.
type ResultShape string

const (
	ResultJSONNBT ResultShape = "JSON-NBT"
	ResultSNBT    ResultShape = "SNBT"
	ResultBuffer  ResultShape = "buffer"
	ResultUnknown ResultShape = "unknown"
)

// CustomCodec parses and serializes a content type the built-in formats do
// not cover. Parse returns a *nbt.Compound for ResultJSONNBT, a string for
// ResultSNBT and a []byte otherwise; Serialize receives the same shapes.
type CustomCodec interface {
	Name() string
	Result() ResultShape
	Parse(raw []byte) (any, error)
	Serialize(v any) ([]byte, error)
}

// FormatDescriptor declares the native encoding of a content type.
type FormatDescriptor struct {
	Type   FormatType
	NBT    NBTOptions
	Int    IntOptions
	Custom CustomCodec
}

func (f FormatDescriptor) String() string {
	switch f.Type {
	case FormatNBT:
		return "NBT(" + f.NBT.Encoding.String() + ")"
	case FormatCustom:
		if f.Custom != nil {
			return "custom(" + f.Custom.Name() + ")"
		}
	}
	return string(f.Type)
}

// FormatTable maps every content type to its format descriptor.
type FormatTable interface {
	Format(ct ContentType) FormatDescriptor
}

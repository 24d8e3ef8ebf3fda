package format

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/aretw0/worldkit/pkg/core"
	"github.com/aretw0/worldkit/pkg/nbt"
)

// Save encodes v in the format described by desc. Only an int value can be
// written to an int format; every other mismatch is bridged with a Warning.
func (e *Engine) Save(v core.Value, desc core.FormatDescriptor) ([]byte, error) {
	if desc.Type == core.FormatInt {
		if v.Type != core.DataInt {
			return nil, &core.ConversionError{From: v.Type, To: desc.Type}
		}
		return encodeInt(v.Int, desc.Int)
	}
	if desc.Type == core.FormatCustom && desc.Custom == nil {
		return nil, fmt.Errorf("custom format without a codec")
	}
	if _, ok := v.Tree(); isTree(v.Type) && !ok {
		return nil, fmt.Errorf("%w: empty NBT value", core.ErrInvalidValue)
	}
	if !native(v.Type, desc) {
		e.warn(v.Type, desc, bridgeNote(v.Type, desc))
	}

	// Byte views are always written as the bytes they show.
	if isBytes(v.Type) {
		raw, err := bytesOf(v)
		if err != nil {
			return nil, err
		}
		if desc.Type == core.FormatCustom && !wantsTree(desc) && desc.Custom.Result() != core.ResultSNBT {
			return desc.Custom.Serialize(raw)
		}
		return raw, nil
	}

	switch desc.Type {
	case core.FormatNBT:
		if v.Type == core.DataNBT {
			if v.NBT.Encoding != desc.NBT.Encoding || v.NBT.Multi != desc.NBT.Multi || v.NBT.Header != desc.NBT.Header {
				e.logger.Warn("nbt layout differs from the entry format, keeping the value's layout",
					"value", v.NBT.Encoding.String(), "format", desc.NBT.Encoding.String())
			}
			return encodeNBT(v.NBT)
		}
		if v.Type == core.DataInt {
			return bytesOf(v)
		}
		roots, err := treeOf(v)
		if err != nil {
			return nil, err
		}
		d := layoutData(roots, desc.NBT, v.CurrentLayout())
		d.Multi = desc.NBT.Multi
		return encodeNBT(d)

	case core.FormatSNBT:
		if v.Type == core.DataUTF8 || v.Type == core.DataASCII {
			if _, err := nbt.ParseSNBT(v.Text); err != nil {
				return nil, fmt.Errorf("%w: %v", core.ErrInvalidValue, err)
			}
			return []byte(v.Text), nil
		}
		if v.Type == core.DataInt {
			s, err := textOf(v, "")
			return []byte(s), err
		}
		roots, err := treeOf(v)
		if err != nil {
			return nil, err
		}
		s, err := snbtText(roots, "")
		return []byte(s), err

	case core.FormatJSON:
		if isTree(v.Type) {
			roots, _ := v.Tree()
			s, err := jsonText(roots, "  ")
			return []byte(s), err
		}
		s, err := textOf(v, "")
		if err != nil {
			return nil, err
		}
		if !json.Valid([]byte(s)) {
			return nil, fmt.Errorf("%w: not valid JSON", core.ErrInvalidValue)
		}
		return []byte(s), nil

	case core.FormatASCII, core.FormatUTF8:
		s, err := textOf(v, "  ")
		if err != nil {
			return nil, err
		}
		if desc.Type == core.FormatASCII && !isASCII(s) {
			return nil, fmt.Errorf("%w: text is not ASCII", core.ErrInvalidValue)
		}
		if desc.Type == core.FormatUTF8 && !utf8.ValidString(s) {
			return nil, fmt.Errorf("%w: text is not valid UTF-8", core.ErrInvalidValue)
		}
		return []byte(s), nil

	case core.FormatCustom:
		switch desc.Custom.Result() {
		case core.ResultJSONNBT:
			if v.Type == core.DataInt {
				return bytesOf(v)
			}
			roots, err := treeOf(v)
			if err != nil {
				return nil, err
			}
			if len(roots) != 1 {
				return nil, fmt.Errorf("%w: %s takes one root compound, got %d", core.ErrInvalidValue, desc.Custom.Name(), len(roots))
			}
			return desc.Custom.Serialize(roots[0])
		case core.ResultSNBT:
			s, err := textOf(v, "")
			if err != nil {
				return nil, err
			}
			return desc.Custom.Serialize(s)
		}
		raw, err := bytesOf(v)
		if err != nil {
			return nil, err
		}
		return desc.Custom.Serialize(raw)
	}

	return bytesOf(v)
}

func wantsTree(desc core.FormatDescriptor) bool {
	return desc.Type == core.FormatCustom && desc.Custom.Result() == core.ResultJSONNBT
}

// native reports whether dt belongs to the family of the target format.
func native(dt core.DataType, desc core.FormatDescriptor) bool {
	switch desc.Type {
	case core.FormatNBT:
		return isTree(dt)
	case core.FormatSNBT:
		return isTree(dt) || dt == core.DataUTF8 || dt == core.DataASCII
	case core.FormatJSON, core.FormatASCII, core.FormatUTF8:
		return isPlainText(dt)
	case core.FormatInt:
		return dt == core.DataInt
	case core.FormatCustom:
		switch desc.Custom.Result() {
		case core.ResultJSONNBT:
			return isTree(dt)
		case core.ResultSNBT:
			return isTree(dt) || dt == core.DataUTF8 || dt == core.DataASCII
		}
		return isBytes(dt)
	}
	return isBytes(dt)
}

func bridgeNote(dt core.DataType, desc core.FormatDescriptor) string {
	switch {
	case isBytes(dt):
		return "writing the value's raw bytes"
	case isTree(dt) && desc.Type == core.FormatJSON:
		return "writing the tree as typed JSON-NBT"
	case isTree(dt) && (desc.Type == core.FormatASCII || desc.Type == core.FormatUTF8):
		return "writing the tree as SNBT text"
	case isTree(dt):
		return "writing the tree as binary NBT"
	case dt == core.DataJSON && (desc.Type == core.FormatNBT || wantsTree(desc)):
		return "parsing the text as typed JSON-NBT"
	case isPlainText(dt) && (desc.Type == core.FormatNBT || wantsTree(desc)):
		return "parsing the text as SNBT"
	case dt == core.DataInt:
		return "writing the integer in its own width"
	}
	return "writing the text bytes"
}

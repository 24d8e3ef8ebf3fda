package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/worldkit/pkg/core"
	"github.com/aretw0/worldkit/pkg/nbt"
)

// Convert returns a view of v as data type dt. The format back-reference is
// kept, so saving the view writes the entry's native format again.
func (e *Engine) Convert(v core.Value, dt core.DataType) (core.Value, error) {
	if v.Type == dt {
		return v, nil
	}
	out := core.Value{Type: dt, Format: v.Format, Layout: v.CurrentLayout()}
	unsupported := &core.ConversionError{From: v.Type, To: core.FormatType(dt)}

	switch dt {
	case core.DataNBT, core.DataNBTCompound:
		if v.Type == core.DataInt {
			return core.Value{}, unsupported
		}
		roots, err := treeOf(v)
		if err != nil {
			return core.Value{}, err
		}
		if dt == core.DataNBTCompound {
			if len(roots) != 1 {
				return core.Value{}, fmt.Errorf("%w: value holds %d root compounds", core.ErrConversionUnsupported, len(roots))
			}
			out.Compound = roots[0]
			break
		}
		out.NBT = layoutData(roots, v.Format.NBT, out.Layout)

	case core.DataJSON:
		if isTree(v.Type) {
			roots, _ := v.Tree()
			s, err := jsonText(roots, "  ")
			if err != nil {
				return core.Value{}, err
			}
			out.Text = s
			break
		}
		s, err := textOf(v, "")
		if err != nil {
			return core.Value{}, err
		}
		if !json.Valid([]byte(s)) {
			return core.Value{}, fmt.Errorf("%w: not valid JSON", core.ErrInvalidValue)
		}
		out.Text = s

	case core.DataUTF8, core.DataASCII:
		s, err := textOf(v, "  ")
		if err != nil {
			return core.Value{}, err
		}
		if dt == core.DataASCII && !isASCII(s) {
			return core.Value{}, fmt.Errorf("%w: text is not ASCII", core.ErrInvalidValue)
		}
		out.Text = s

	case core.DataHex, core.DataBinaryPlainText, core.DataBinary, core.DataUnknown:
		raw, err := bytesOf(v)
		if err != nil {
			return core.Value{}, err
		}
		switch dt {
		case core.DataHex:
			out.Text = encodeHex(raw)
		case core.DataBinaryPlainText:
			out.Text = encodeBits(raw)
		default:
			out.Bytes = raw
		}

	case core.DataInt:
		switch {
		case isPlainText(v.Type):
			n, ok := new(big.Int).SetString(strings.TrimSpace(v.Text), 0)
			if !ok {
				return core.Value{}, fmt.Errorf("%w: %q is not an integer", core.ErrInvalidValue, v.Text)
			}
			out.Int = n
		case isBytes(v.Type):
			raw, err := bytesOf(v)
			if err != nil {
				return core.Value{}, err
			}
			n, err := decodeInt(raw, core.IntOptions{BigEndian: v.Format.Int.BigEndian, Signed: v.Format.Int.Signed})
			if err != nil {
				return core.Value{}, err
			}
			out.Int = n
		default:
			return core.Value{}, unsupported
		}

	default:
		return core.Value{}, unsupported
	}
	return out, nil
}

func isTree(dt core.DataType) bool {
	return dt == core.DataNBT || dt == core.DataNBTCompound
}

func isPlainText(dt core.DataType) bool {
	return dt == core.DataJSON || dt == core.DataUTF8 || dt == core.DataASCII
}

func isBytes(dt core.DataType) bool {
	switch dt {
	case core.DataHex, core.DataBinaryPlainText, core.DataBinary, core.DataUnknown:
		return true
	}
	return false
}

// intOptions returns the width a value's integer is written with. Integers
// that did not come from an int format get the smallest signed width.
func intOptions(v core.Value) core.IntOptions {
	if v.Format.Type == core.FormatInt && v.Format.Int.Bytes > 0 {
		return v.Format.Int
	}
	return core.IntOptions{Bytes: max(1, (v.Int.BitLen()+8)/8), Signed: true}
}

// bytesOf flattens any value to raw bytes.
func bytesOf(v core.Value) ([]byte, error) {
	switch v.Type {
	case core.DataBinary, core.DataUnknown:
		return clone(v.Bytes), nil
	case core.DataHex:
		return decodeHex(v.Text)
	case core.DataBinaryPlainText:
		return decodeBits(v.Text)
	case core.DataJSON, core.DataUTF8, core.DataASCII:
		return []byte(v.Text), nil
	case core.DataInt:
		if v.Int == nil {
			return nil, fmt.Errorf("%w: nil integer", core.ErrInvalidValue)
		}
		return encodeInt(v.Int, intOptions(v))
	case core.DataNBT:
		return encodeNBT(v.NBT)
	case core.DataNBTCompound:
		return encodeNBT(layoutData([]*nbt.Compound{v.Compound}, v.Format.NBT, v.Layout))
	}
	return nil, &core.ConversionError{From: v.Type, To: core.FormatBinary}
}

// treeOf reads a value as NBT roots. Text is parsed as typed JSON-NBT when it
// is JSON and as SNBT otherwise; bytes are decoded with the value's NBT options.
func treeOf(v core.Value) ([]*nbt.Compound, error) {
	if roots, ok := v.Tree(); ok {
		return roots, nil
	}
	switch {
	case v.Type == core.DataJSON:
		c, err := nbt.UnmarshalJSON([]byte(v.Text))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidValue, err)
		}
		return []*nbt.Compound{c}, nil
	case isPlainText(v.Type):
		c, err := nbt.ParseSNBT(v.Text)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidValue, err)
		}
		return []*nbt.Compound{c}, nil
	case isBytes(v.Type):
		raw, err := bytesOf(v)
		if err != nil {
			return nil, err
		}
		d, err := decodeNBT(raw, v.Format.NBT)
		if err != nil {
			return nil, err
		}
		return d.Roots, nil
	}
	return nil, &core.ConversionError{From: v.Type, To: core.FormatNBT}
}

// textOf renders a value as text. Trees become SNBT, one root per line.
func textOf(v core.Value, indent string) (string, error) {
	switch {
	case isPlainText(v.Type):
		return v.Text, nil
	case v.Type == core.DataInt:
		if v.Int == nil {
			return "", fmt.Errorf("%w: nil integer", core.ErrInvalidValue)
		}
		return v.Int.String(), nil
	case isTree(v.Type):
		roots, _ := v.Tree()
		return snbtText(roots, indent)
	}
	raw, err := bytesOf(v)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: bytes are not valid UTF-8", core.ErrInvalidValue)
	}
	return string(raw), nil
}

func snbtText(roots []*nbt.Compound, indent string) (string, error) {
	parts := make([]string, len(roots))
	for i, r := range roots {
		s, err := nbt.MarshalSNBT(r, indent)
		if err != nil {
			return "", fmt.Errorf("%w: %v", core.ErrInvalidValue, err)
		}
		parts[i] = s
	}
	return strings.Join(parts, "\n"), nil
}

// jsonText renders roots in the typed JSON-NBT form. Several roots become a
// JSON array.
func jsonText(roots []*nbt.Compound, indent string) (string, error) {
	if len(roots) == 1 {
		b, err := nbt.MarshalJSON(roots[0], indent)
		if err != nil {
			return "", fmt.Errorf("%w: %v", core.ErrInvalidValue, err)
		}
		return string(b), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, r := range roots {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := nbt.MarshalJSON(r, "")
		if err != nil {
			return "", fmt.Errorf("%w: %v", core.ErrInvalidValue, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	if indent == "" {
		return buf.String(), nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", indent); err != nil {
		return "", err
	}
	return out.String(), nil
}

package nbt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// MarshalJSON renders a compound in the typed JSON form:
//
//	{"type":"compound","value":{"Name":{"type":"string","value":"Steve"}}}
//
// Lists carry their element type ({"type":"list","value":{"type":"int","value":[1,2]}}),
// so the form converts back to the exact same tree. Entry order is kept.
func MarshalJSON(c *Compound, indent string) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeTagJSON(&buf, c); err != nil {
		return nil, err
	}
	if indent == "" {
		return buf.Bytes(), nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", indent); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func writeTagJSON(buf *bytes.Buffer, v any) error {
	t, ok := TypeOf(v)
	if !ok {
		return fmt.Errorf("nbt: unsupported value %T", v)
	}
	buf.WriteString(`{"type":"`)
	buf.WriteString(t.String())
	buf.WriteString(`","value":`)
	if err := writeRawJSON(buf, v); err != nil {
		return err
	}
	buf.WriteByte('}')
	return nil
}

func writeRawJSON(buf *bytes.Buffer, v any) error {
	switch x := v.(type) {
	case int8:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	case int16:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	case int32:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(x, 10))
	case float32:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return fmt.Errorf("nbt: %v has no JSON form", x)
		}
		buf.WriteString(strconv.FormatFloat(float64(x), 'g', -1, 32))
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("nbt: %v has no JSON form", x)
		}
		buf.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	case string:
		b, err := json.Marshal(x)
		if err != nil {
			return err
		}
		buf.Write(b)
	case []byte:
		buf.WriteByte('[')
		for i, b := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strconv.Itoa(int(int8(b))))
		}
		buf.WriteByte(']')
	case []int32:
		buf.WriteByte('[')
		for i, n := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strconv.FormatInt(int64(n), 10))
		}
		buf.WriteByte(']')
	case []int64:
		buf.WriteByte('[')
		for i, n := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strconv.FormatInt(n, 10))
		}
		buf.WriteByte(']')
	case *List:
		buf.WriteString(`{"type":"`)
		buf.WriteString(x.Elem.String())
		buf.WriteString(`","value":[`)
		for i, it := range x.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeRawJSON(buf, it); err != nil {
				return err
			}
		}
		buf.WriteString("]}")
	case *Compound:
		buf.WriteByte('{')
		for i, e := range x.entries {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(e.Name)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := writeTagJSON(buf, e.Value); err != nil {
				return fmt.Errorf("%s: %w", e.Name, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("nbt: unsupported value %T", v)
	}
	return nil
}

type jsonTag struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// UnmarshalJSON parses the typed JSON form written by MarshalJSON.
func UnmarshalJSON(data []byte) (*Compound, error) {
	var root jsonTag
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("nbt json: %w", err)
	}
	if root.Type != TagCompound.String() {
		return nil, fmt.Errorf("nbt json: root type is %q, want compound", root.Type)
	}
	v, err := readRawJSON(TagCompound, root.Value, 0)
	if err != nil {
		return nil, fmt.Errorf("nbt json: %w", err)
	}
	return v.(*Compound), nil
}

func readRawJSON(t TagType, raw json.RawMessage, depth int) (any, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("nesting too deep")
	}
	switch t {
	case TagByte, TagShort, TagInt, TagLong:
		n, err := parseJSONInt(raw, intBits(t))
		if err != nil {
			return nil, err
		}
		switch t {
		case TagByte:
			return int8(n), nil
		case TagShort:
			return int16(n), nil
		case TagInt:
			return int32(n), nil
		}
		return n, nil
	case TagFloat, TagDouble:
		var num json.Number
		if err := json.Unmarshal(raw, &num); err != nil {
			return nil, err
		}
		bits := 64
		if t == TagFloat {
			bits = 32
		}
		f, err := strconv.ParseFloat(num.String(), bits)
		if err != nil {
			return nil, err
		}
		if t == TagFloat {
			return float32(f), nil
		}
		return f, nil
	case TagString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return s, nil
	case TagByteArray, TagIntArray, TagLongArray:
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		elem := t.ArrayElem()
		switch t {
		case TagByteArray:
			out := make([]byte, len(items))
			for i, it := range items {
				n, err := parseJSONInt(it, intBits(elem))
				if err != nil {
					return nil, fmt.Errorf("[%d]: %w", i, err)
				}
				out[i] = byte(int8(n))
			}
			return out, nil
		case TagIntArray:
			out := make([]int32, len(items))
			for i, it := range items {
				n, err := parseJSONInt(it, intBits(elem))
				if err != nil {
					return nil, fmt.Errorf("[%d]: %w", i, err)
				}
				out[i] = int32(n)
			}
			return out, nil
		}
		out := make([]int64, len(items))
		for i, it := range items {
			n, err := parseJSONInt(it, intBits(elem))
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case TagList:
		var l struct {
			Type  string            `json:"type"`
			Value []json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(raw, &l); err != nil {
			return nil, err
		}
		et, ok := ParseTagType(l.Type)
		if !ok {
			return nil, fmt.Errorf("unknown list type %q", l.Type)
		}
		out := &List{Elem: et}
		for i, it := range l.Value {
			v, err := readRawJSON(et, it, depth+1)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out.Items = append(out.Items, v)
		}
		return out, nil
	case TagCompound:
		return readCompoundJSON(raw, depth)
	}
	return nil, fmt.Errorf("unsupported tag type %s", t)
}

// readCompoundJSON walks the object token by token so entry order survives.
func readCompoundJSON(raw json.RawMessage, depth int) (*Compound, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("compound value must be an object")
	}
	c := &Compound{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("compound key must be a string")
		}
		var child jsonTag
		if err := dec.Decode(&child); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		ct, ok := ParseTagType(child.Type)
		if !ok || ct == TagEnd {
			return nil, fmt.Errorf("%s: unknown type %q", key, child.Type)
		}
		v, err := readRawJSON(ct, child.Value, depth+1)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		c.Set(key, v)
	}
	return c, nil
}

func intBits(t TagType) int {
	switch t {
	case TagByte:
		return 8
	case TagShort:
		return 16
	case TagInt:
		return 32
	}
	return 64
}

func parseJSONInt(raw json.RawMessage, bits int) (int64, error) {
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return 0, err
	}
	return strconv.ParseInt(num.String(), 10, bits)
}

package nbt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Encoding selects the byte order and integer layout of the binary form.
type Encoding int

const (
	// LittleEndian is used by Bedrock for data stored on disk.
	LittleEndian Encoding = iota
	// BigEndian is the Java Edition layout.
	BigEndian
	// NetworkLittleEndian stores ints, longs and lengths as zig-zag varints.
	NetworkLittleEndian
)

func (e Encoding) String() string {
	switch e {
	case LittleEndian:
		return "little"
	case BigEndian:
		return "big"
	case NetworkLittleEndian:
		return "network"
	}
	return fmt.Sprintf("encoding(%d)", int(e))
}

// ParseEncoding resolves an encoding from its String form.
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "little", "le", "":
		return LittleEndian, nil
	case "big", "be":
		return BigEndian, nil
	case "network", "varint":
		return NetworkLittleEndian, nil
	}
	return 0, fmt.Errorf("nbt: unknown encoding %q", s)
}

const maxDepth = 512

// ErrTruncated is returned when the input ends in the middle of a tag.
var ErrTruncated = errors.New("nbt: unexpected end of data")

// Decode reads one named root compound from data. It returns the root name,
// the compound, and the number of bytes consumed.
func Decode(data []byte, enc Encoding) (string, *Compound, int, error) {
	r := &reader{buf: data, enc: enc}
	t, err := r.u8()
	if err != nil {
		return "", nil, 0, err
	}
	if TagType(t) != TagCompound {
		return "", nil, 0, fmt.Errorf("nbt: root tag is %s, want compound", TagType(t))
	}
	name, err := r.str()
	if err != nil {
		return "", nil, 0, err
	}
	v, err := r.payload(TagCompound, 0)
	if err != nil {
		return "", nil, 0, err
	}
	return name, v.(*Compound), r.off, nil
}

// DecodeAll reads consecutive root compounds until data is exhausted.
// Bedrock stores the block entities and entities of a chunk this way.
func DecodeAll(data []byte, enc Encoding) ([]*Compound, error) {
	var roots []*Compound
	for len(data) > 0 {
		_, c, n, err := Decode(data, enc)
		if err != nil {
			return nil, fmt.Errorf("root %d: %w", len(roots), err)
		}
		roots = append(roots, c)
		data = data[n:]
	}
	return roots, nil
}

// Encode writes c as a named root compound.
func Encode(name string, c *Compound, enc Encoding) ([]byte, error) {
	w := &writer{enc: enc}
	w.u8(byte(TagCompound))
	w.str(name)
	if err := w.payload(c, 0); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}

// EncodeAll writes each compound as an unnamed root, back to back.
func EncodeAll(roots []*Compound, enc Encoding) ([]byte, error) {
	out := []byte{}
	for i, c := range roots {
		b, err := Encode("", c, enc)
		if err != nil {
			return nil, fmt.Errorf("root %d: %w", i, err)
		}
		out = append(out, b...)
	}
	return out, nil
}

type reader struct {
	buf []byte
	off int
	enc Encoding
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.buf) {
		return nil, ErrTruncated
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) u8() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) order() binary.ByteOrder {
	if r.enc == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (r *reader) i16() (int16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return int16(r.order().Uint16(b)), nil
}

func (r *reader) varuint() (uint64, error) {
	var x uint64
	for shift := uint(0); shift < 70; shift += 7 {
		b, err := r.u8()
		if err != nil {
			return 0, err
		}
		x |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return x, nil
		}
	}
	return 0, errors.New("nbt: varint overflows 64 bits")
}

func (r *reader) i32() (int32, error) {
	if r.enc == NetworkLittleEndian {
		ux, err := r.varuint()
		if err != nil {
			return 0, err
		}
		if ux > math.MaxUint32 {
			return 0, errors.New("nbt: varint overflows 32 bits")
		}
		u := uint32(ux)
		return int32(u>>1) ^ -int32(u&1), nil
	}
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return int32(r.order().Uint32(b)), nil
}

func (r *reader) i64() (int64, error) {
	if r.enc == NetworkLittleEndian {
		u, err := r.varuint()
		if err != nil {
			return 0, err
		}
		return int64(u>>1) ^ -int64(u&1), nil
	}
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return int64(r.order().Uint64(b)), nil
}

func (r *reader) length() (int, error) {
	n, err := r.i32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("nbt: negative length %d", n)
	}
	if int(n) > len(r.buf)-r.off {
		// Every element takes at least one byte.
		return 0, ErrTruncated
	}
	return int(n), nil
}

func (r *reader) str() (string, error) {
	var n int
	if r.enc == NetworkLittleEndian {
		u, err := r.varuint()
		if err != nil {
			return "", err
		}
		if u > math.MaxInt32 {
			return "", errors.New("nbt: string too long")
		}
		n = int(u)
	} else {
		b, err := r.take(2)
		if err != nil {
			return "", err
		}
		n = int(r.order().Uint16(b))
	}
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) payload(t TagType, depth int) (any, error) {
	if depth > maxDepth {
		return nil, errors.New("nbt: nesting too deep")
	}
	switch t {
	case TagByte:
		b, err := r.u8()
		return int8(b), err
	case TagShort:
		return r.i16()
	case TagInt:
		return r.i32()
	case TagLong:
		return r.i64()
	case TagFloat:
		b, err := r.take(4)
		if err != nil {
			return nil, err
		}
		return math.Float32frombits(r.order().Uint32(b)), nil
	case TagDouble:
		b, err := r.take(8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(r.order().Uint64(b)), nil
	case TagString:
		return r.str()
	case TagByteArray:
		n, err := r.length()
		if err != nil {
			return nil, err
		}
		b, err := r.take(n)
		if err != nil {
			return nil, err
		}
		return bytes.Clone(b), nil
	case TagIntArray:
		n, err := r.length()
		if err != nil {
			return nil, err
		}
		out := make([]int32, n)
		for i := range out {
			if out[i], err = r.i32(); err != nil {
				return nil, err
			}
		}
		return out, nil
	case TagLongArray:
		n, err := r.length()
		if err != nil {
			return nil, err
		}
		out := make([]int64, n)
		for i := range out {
			if out[i], err = r.i64(); err != nil {
				return nil, err
			}
		}
		return out, nil
	case TagList:
		et, err := r.u8()
		if err != nil {
			return nil, err
		}
		n, err := r.i32()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			n = 0
		}
		l := &List{Elem: TagType(et)}
		if n > 0 && TagType(et) == TagEnd {
			return nil, errors.New("nbt: non-empty list of end tags")
		}
		for i := int32(0); i < n; i++ {
			v, err := r.payload(TagType(et), depth+1)
			if err != nil {
				return nil, err
			}
			l.Items = append(l.Items, v)
		}
		return l, nil
	case TagCompound:
		c := &Compound{}
		for {
			ct, err := r.u8()
			if err != nil {
				return nil, err
			}
			if TagType(ct) == TagEnd {
				return c, nil
			}
			name, err := r.str()
			if err != nil {
				return nil, err
			}
			v, err := r.payload(TagType(ct), depth+1)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			c.entries = append(c.entries, Entry{Name: name, Value: v})
		}
	}
	return nil, fmt.Errorf("nbt: unknown tag type %d", byte(t))
}

type writer struct {
	buf bytes.Buffer
	enc Encoding
	tmp [10]byte
}

func (w *writer) order() binary.ByteOrder {
	if w.enc == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (w *writer) u8(b byte) { w.buf.WriteByte(b) }

func (w *writer) i16(v int16) {
	w.order().PutUint16(w.tmp[:2], uint16(v))
	w.buf.Write(w.tmp[:2])
}

func (w *writer) varuint(u uint64) {
	n := binary.PutUvarint(w.tmp[:], u)
	w.buf.Write(w.tmp[:n])
}

func (w *writer) i32(v int32) {
	if w.enc == NetworkLittleEndian {
		w.varuint(uint64(uint32(v<<1) ^ uint32(v>>31)))
		return
	}
	w.order().PutUint32(w.tmp[:4], uint32(v))
	w.buf.Write(w.tmp[:4])
}

func (w *writer) i64(v int64) {
	if w.enc == NetworkLittleEndian {
		w.varuint(uint64(v<<1) ^ uint64(v>>63))
		return
	}
	w.order().PutUint64(w.tmp[:8], uint64(v))
	w.buf.Write(w.tmp[:8])
}

func (w *writer) str(s string) {
	if w.enc == NetworkLittleEndian {
		w.varuint(uint64(len(s)))
	} else {
		w.order().PutUint16(w.tmp[:2], uint16(len(s)))
		w.buf.Write(w.tmp[:2])
	}
	w.buf.WriteString(s)
}

func (w *writer) payload(v any, depth int) error {
	if depth > maxDepth {
		return errors.New("nbt: nesting too deep")
	}
	switch x := v.(type) {
	case int8:
		w.u8(byte(x))
	case int16:
		w.i16(x)
	case int32:
		w.i32(x)
	case int64:
		w.i64(x)
	case float32:
		w.order().PutUint32(w.tmp[:4], math.Float32bits(x))
		w.buf.Write(w.tmp[:4])
	case float64:
		w.order().PutUint64(w.tmp[:8], math.Float64bits(x))
		w.buf.Write(w.tmp[:8])
	case string:
		if w.enc != NetworkLittleEndian && len(x) > math.MaxUint16 {
			return fmt.Errorf("nbt: string of %d bytes exceeds 65535", len(x))
		}
		w.str(x)
	case []byte:
		w.i32(int32(len(x)))
		w.buf.Write(x)
	case []int32:
		w.i32(int32(len(x)))
		for _, e := range x {
			w.i32(e)
		}
	case []int64:
		w.i32(int32(len(x)))
		for _, e := range x {
			w.i64(e)
		}
	case *List:
		w.u8(byte(x.Elem))
		w.i32(int32(len(x.Items)))
		for i, it := range x.Items {
			if t, _ := TypeOf(it); t != x.Elem {
				return fmt.Errorf("nbt: list item %d is %s, want %s", i, t, x.Elem)
			}
			if err := w.payload(it, depth+1); err != nil {
				return err
			}
		}
	case *Compound:
		for _, e := range x.entries {
			t, ok := TypeOf(e.Value)
			if !ok {
				return fmt.Errorf("nbt: %s: unsupported value %T", e.Name, e.Value)
			}
			w.u8(byte(t))
			w.str(e.Name)
			if err := w.payload(e.Value, depth+1); err != nil {
				return fmt.Errorf("%s: %w", e.Name, err)
			}
		}
		w.u8(byte(TagEnd))
	default:
		return fmt.Errorf("nbt: unsupported value %T", v)
	}
	return nil
}

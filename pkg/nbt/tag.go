// Package nbt implements the tree-structured binary tag format used by Bedrock
// worlds, its string form (SNBT) and a typed JSON form.
//
// Unlike map based decoders, compounds keep the order their entries were read
// in, and lists keep their declared element type even when empty. Both are
// needed to write an entry back byte for byte after editing a single field.
//
// Go types used for tag values:
//
//	Byte      int8
//	Short     int16
//	Int       int32
//	Long      int64
//	Float     float32
//	Double    float64
//	ByteArray []byte
//	String    string
//	List      *List
//	Compound  *Compound
//	IntArray  []int32
//	LongArray []int64
package nbt

import (
	"fmt"
	"iter"
	"math"
)

// TagType identifies the type of a tag.
type TagType byte

const (
	TagEnd TagType = iota
	TagByte
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagByteArray
	TagString
	TagList
	TagCompound
	TagIntArray
	TagLongArray
)

var tagNames = [...]string{
	TagEnd:       "end",
	TagByte:      "byte",
	TagShort:     "short",
	TagInt:       "int",
	TagLong:      "long",
	TagFloat:     "float",
	TagDouble:    "double",
	TagByteArray: "byteArray",
	TagString:    "string",
	TagList:      "list",
	TagCompound:  "compound",
	TagIntArray:  "intArray",
	TagLongArray: "longArray",
}

func (t TagType) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("tag(%d)", byte(t))
}

// ParseTagType resolves a tag type from its name as returned by String.
func ParseTagType(name string) (TagType, bool) {
	for i, n := range tagNames {
		if n == name {
			return TagType(i), true
		}
	}
	return TagEnd, false
}

// IsArray reports whether t is one of the typed array tags.
func (t TagType) IsArray() bool {
	return t == TagByteArray || t == TagIntArray || t == TagLongArray
}

// ArrayElem returns the scalar type of the elements of an array tag.
func (t TagType) ArrayElem() TagType {
	switch t {
	case TagByteArray:
		return TagByte
	case TagIntArray:
		return TagInt
	case TagLongArray:
		return TagLong
	}
	return TagEnd
}

// TypeOf returns the tag type of a Go value, or false when v is not a valid
// tag value.
func TypeOf(v any) (TagType, bool) {
	switch v.(type) {
	case int8:
		return TagByte, true
	case int16:
		return TagShort, true
	case int32:
		return TagInt, true
	case int64:
		return TagLong, true
	case float32:
		return TagFloat, true
	case float64:
		return TagDouble, true
	case []byte:
		return TagByteArray, true
	case string:
		return TagString, true
	case *List:
		return TagList, true
	case *Compound:
		return TagCompound, true
	case []int32:
		return TagIntArray, true
	case []int64:
		return TagLongArray, true
	}
	return TagEnd, false
}

// Entry is a named value inside a compound.
type Entry struct {
	Name  string
	Value any
}

// Compound is an ordered set of named tags.
type Compound struct {
	entries []Entry
}

// NewCompound returns a compound holding the given entries in order.
func NewCompound(entries ...Entry) *Compound {
	c := &Compound{}
	for _, e := range entries {
		c.Set(e.Name, e.Value)
	}
	return c
}

// Len returns the number of entries.
func (c *Compound) Len() int {
	return len(c.entries)
}

// Get returns the value stored under name.
func (c *Compound) Get(name string) (any, bool) {
	for _, e := range c.entries {
		if e.Name == name {
			return e.Value, true
		}
	}
	return nil, false
}

// Set replaces the value stored under name in place, or appends a new entry.
func (c *Compound) Set(name string, v any) {
	for i := range c.entries {
		if c.entries[i].Name == name {
			c.entries[i].Value = v
			return
		}
	}
	c.entries = append(c.entries, Entry{Name: name, Value: v})
}

// Delete removes the entry stored under name.
func (c *Compound) Delete(name string) bool {
	for i, e := range c.entries {
		if e.Name == name {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Keys returns the entry names in order.
func (c *Compound) Keys() []string {
	keys := make([]string, len(c.entries))
	for i, e := range c.entries {
		keys[i] = e.Name
	}
	return keys
}

// All iterates over the entries in order.
func (c *Compound) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, e := range c.entries {
			if !yield(e.Name, e.Value) {
				return
			}
		}
	}
}

// List is a homogeneous sequence of tags.
type List struct {
	Elem  TagType
	Items []any
}

// NewList builds a list, inferring the element type from the first item.
// An empty list gets TagEnd as element type.
func NewList(items ...any) (*List, error) {
	l := &List{Items: items}
	if len(items) == 0 {
		return l, nil
	}
	t, ok := TypeOf(items[0])
	if !ok {
		return nil, fmt.Errorf("nbt: unsupported list item %T", items[0])
	}
	for i, it := range items[1:] {
		if it2, _ := TypeOf(it); it2 != t {
			return nil, fmt.Errorf("nbt: list item %d is %s, want %s", i+1, it2, t)
		}
	}
	l.Elem = t
	return l, nil
}

// Equal reports whether two tag values are semantically equal: same types,
// same order of compound entries, and same list element types (empty lists
// compare equal regardless of a nil or empty item slice).
func Equal(a, b any) bool {
	ta, ok := TypeOf(a)
	if !ok {
		return false
	}
	if tb, _ := TypeOf(b); tb != ta {
		return false
	}
	switch av := a.(type) {
	case *Compound:
		bv := b.(*Compound)
		if av.Len() != bv.Len() {
			return false
		}
		for i, e := range av.entries {
			o := bv.entries[i]
			if e.Name != o.Name || !Equal(e.Value, o.Value) {
				return false
			}
		}
		return true
	case *List:
		bv := b.(*List)
		if av.Elem != bv.Elem || len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !Equal(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case []byte:
		return string(av) == string(b.([]byte))
	case []int32:
		bv := b.([]int32)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case []int64:
		bv := b.([]int64)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case float32:
		bv := b.(float32)
		return av == bv || (math.IsNaN(float64(av)) && math.IsNaN(float64(bv)))
	case float64:
		bv := b.(float64)
		return av == bv || (math.IsNaN(av) && math.IsNaN(bv))
	default:
		return a == b
	}
}

package core

import (
	"bytes"
	"context"
	"iter"
	"slices"
)

// Store is the embedded key-value store of a world.
type Store interface {
	Open(ctx context.Context) error
	IsOpen() bool
	// Get returns ErrEntryNotFound when the key is absent.
	Get(ctx context.Context, key []byte) ([]byte, error)
	Put(ctx context.Context, key, value []byte) error
	Delete(ctx context.Context, key []byte) error
	// Keys calls fn for every key in store order. The key slice is only valid
	// during the call.
	Keys(ctx context.Context, fn func(key []byte) error) error
	Close() error
}

// Classifier assigns content types to keys and world files.
type Classifier interface {
	Classify(key []byte) ContentType
	ClassifyFile(rel string) ContentType
	// ContentTypes lists every content type in declaration order.
	ContentTypes() []ContentType
	// DisplayKey renders a key for humans.
	DisplayKey(key []byte) string
}

// BulkClassifier classifies every key of a store.
type BulkClassifier interface {
	ClassifyAll(ctx context.Context, store Store) (*Classification, error)
}

// Classification groups raw keys by content type. Iteration follows the
// content type declaration order, then insertion order.
type Classification struct {
	order []ContentType
	keys  map[ContentType][][]byte
}

// NewClassification creates an empty classification for the given order.
func NewClassification(order []ContentType) *Classification {
	return &Classification{
		order: order,
		keys:  make(map[ContentType][][]byte),
	}
}

// Add records key under ct. The key is copied. Content types missing from
// the declared order are appended to it.
func (c *Classification) Add(ct ContentType, key []byte) {
	if _, ok := c.keys[ct]; !ok && !slices.Contains(c.order, ct) {
		c.order = append(slices.Clip(c.order), ct)
	}
	c.keys[ct] = append(c.keys[ct], bytes.Clone(key))
}

// Remove deletes key from ct. It reports whether the key was present.
func (c *Classification) Remove(ct ContentType, key []byte) bool {
	ks := c.keys[ct]
	for i, k := range ks {
		if bytes.Equal(k, key) {
			c.keys[ct] = append(ks[:i:i], ks[i+1:]...)
			return true
		}
	}
	return false
}

// Has reports whether key is recorded under ct.
func (c *Classification) Has(ct ContentType, key []byte) bool {
	for _, k := range c.keys[ct] {
		if bytes.Equal(k, key) {
			return true
		}
	}
	return false
}

// Clone returns an independent copy.
func (c *Classification) Clone() *Classification {
	out := NewClassification(c.order)
	for ct, ks := range c.keys {
		out.keys[ct] = slices.Clone(ks)
	}
	return out
}

// Keys returns the keys recorded for ct.
func (c *Classification) Keys(ct ContentType) [][]byte {
	return c.keys[ct]
}

// Len returns the total number of keys.
func (c *Classification) Len() int {
	n := 0
	for _, ks := range c.keys {
		n += len(ks)
	}
	return n
}

// Counts returns the number of keys per content type.
func (c *Classification) Counts() map[ContentType]int {
	out := make(map[ContentType]int, len(c.keys))
	for ct, ks := range c.keys {
		out[ct] = len(ks)
	}
	return out
}

// All iterates over every (content type, key) pair.
func (c *Classification) All() iter.Seq2[ContentType, []byte] {
	return func(yield func(ContentType, []byte) bool) {
		for _, ct := range c.order {
			for _, k := range c.keys[ct] {
				if !yield(ct, k) {
					return
				}
			}
		}
	}
}

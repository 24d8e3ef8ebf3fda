package search

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/aretw0/worldkit/pkg/nbt"
)

// Match reports whether s satisfies the group. An inactive group matches
// everything.
func (g StringGroup) Match(s string) bool {
	if !g.CaseSensitive {
		s = strings.ToLower(s)
	}
	return combine(g.AllOf, g.AnyOf, g.OneOf, g.NoneOf, func(needle string) bool {
		if !g.CaseSensitive {
			needle = strings.ToLower(needle)
		}
		return strings.Contains(s, needle)
	})
}

// MatchBytes is Match over raw bytes. Case folding only touches ASCII
// letters, so binary content is never rewritten.
func (g StringGroup) MatchBytes(b []byte) bool {
	if !g.CaseSensitive {
		b = asciiLower(b)
	}
	return combine(g.AllOf, g.AnyOf, g.OneOf, g.NoneOf, func(needle string) bool {
		n := []byte(needle)
		if !g.CaseSensitive {
			n = asciiLower(n)
		}
		return bytes.Contains(b, n)
	})
}

func asciiLower(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return out
}

// Node is a tag reached while walking an NBT tree.
type Node struct {
	Path  []string
	Key   string
	Type  nbt.TagType
	Value any
}

// Scalar reports whether the node holds a single number or string.
func (n Node) Scalar() bool {
	switch n.Type {
	case nbt.TagByte, nbt.TagShort, nbt.TagInt, nbt.TagLong,
		nbt.TagFloat, nbt.TagDouble, nbt.TagString:
		return true
	}
	return false
}

// Walk visits every tag below root depth first, in stored order. The root
// itself is not visited. Walking stops when fn returns false.
func Walk(root *nbt.Compound, fn func(Node) bool) bool {
	return walkCompound(root, nil, fn)
}

func walkCompound(c *nbt.Compound, path []string, fn func(Node) bool) bool {
	if c == nil {
		return true
	}
	for name, v := range c.All() {
		t, _ := nbt.TypeOf(v)
		if !walkNode(Node{Path: extend(path, name), Key: name, Type: t, Value: v}, fn) {
			return false
		}
	}
	return true
}

func walkNode(n Node, fn func(Node) bool) bool {
	if !fn(n) {
		return false
	}
	switch x := n.Value.(type) {
	case *nbt.Compound:
		return walkCompound(x, n.Path, fn)
	case *nbt.List:
		for i, it := range x.Items {
			key := strconv.Itoa(i)
			if !walkNode(Node{Path: extend(n.Path, key), Key: key, Type: x.Elem, Value: it}, fn) {
				return false
			}
		}
	case []byte:
		for i, b := range x {
			if !fn(arrayItem(n.Path, i, nbt.TagByte, int8(b))) {
				return false
			}
		}
	case []int32:
		for i, v := range x {
			if !fn(arrayItem(n.Path, i, nbt.TagInt, v)) {
				return false
			}
		}
	case []int64:
		for i, v := range x {
			if !fn(arrayItem(n.Path, i, nbt.TagLong, v)) {
				return false
			}
		}
	}
	return true
}

func arrayItem(path []string, i int, t nbt.TagType, v any) Node {
	key := strconv.Itoa(i)
	return Node{Path: extend(path, key), Key: key, Type: t, Value: v}
}

func extend(path []string, seg string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = seg
	return out
}

// Match reports whether the node satisfies every predicate set on tq.
func (tq TagQuery) Match(n Node, caseInsensitive bool) bool {
	eq := func(a, b string) bool {
		if caseInsensitive {
			return strings.EqualFold(a, b)
		}
		return a == b
	}
	if len(tq.Path) > 0 && !matchPath(tq.Path, n.Path, eq) {
		return false
	}
	if tq.Key != "" && !eq(tq.Key, n.Key) {
		return false
	}
	if tq.Type != "" && !strings.EqualFold(tq.Type, n.Type.String()) {
		return false
	}
	if tq.Value != nil {
		if !n.Scalar() {
			return false
		}
		s, ok := scalarString(n.Value)
		if !ok || !eq(*tq.Value, s) {
			return false
		}
	}
	return true
}

func matchPath(pattern, path []string, eq func(a, b string) bool) bool {
	if len(pattern) == 0 {
		return len(path) == 0
	}
	switch pattern[0] {
	case AnyRest:
		for i := 0; i <= len(path); i++ {
			if matchPath(pattern[1:], path[i:], eq) {
				return true
			}
		}
		return false
	case AnySegment:
		return len(path) > 0 && matchPath(pattern[1:], path[1:], eq)
	}
	return len(path) > 0 && eq(pattern[0], path[0]) && matchPath(pattern[1:], path[1:], eq)
}

// scalarString renders a scalar the way users type it: integers of every
// width in decimal, floats in their shortest form.
func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case int8:
		return strconv.FormatInt(int64(x), 10), true
	case int16:
		return strconv.FormatInt(int64(x), 10), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), true
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true
	case string:
		return x, true
	}
	return "", false
}

// MatchTree reports whether the roots satisfy the group. A tag query is found
// when any node of any root matches it.
func (g TagGroup) MatchTree(roots []*nbt.Compound) bool {
	found := func(tq TagQuery) bool {
		hit := false
		for _, root := range roots {
			Walk(root, func(n Node) bool {
				hit = tq.Match(n, g.CaseInsensitive)
				return !hit
			})
			if hit {
				return true
			}
		}
		return false
	}
	return combine(g.AllOf, g.AnyOf, g.OneOf, g.NoneOf, found)
}

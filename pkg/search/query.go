// Package search evaluates structured queries over the entries of a world.
//
// A Query is a conjunction of optional groups. Every group that is set must
// accept a candidate for it to match; groups left empty are ignored. String
// groups look for substrings, the NBT group looks for tag nodes inside the
// decoded value.
package search

import (
	"errors"
	"fmt"
	"slices"

	"github.com/aretw0/worldkit/pkg/core"
	"github.com/aretw0/worldkit/pkg/nbt"
)

// ErrInvalidQuery is returned for a query that cannot be evaluated.
var ErrInvalidQuery = errors.New("invalid query")

// Query selects entries. The YAML form is what the CLI reads from query files.
type Query struct {
	ContentTypes ContentTypeFilter      `yaml:"contentTypes,omitempty"`
	DisplayKey   StringGroup            `yaml:"displayKey,omitempty"`
	Contents     StringGroup            `yaml:"contents,omitempty"`
	Fields       map[string]StringGroup `yaml:"fields,omitempty"`
	NBT          TagGroup               `yaml:"nbt,omitempty"`
}

// ContentTypeFilter restricts candidates by content type. An empty Include
// allows every type.
type ContentTypeFilter struct {
	Include []core.ContentType `yaml:"include,omitempty"`
	Exclude []core.ContentType `yaml:"exclude,omitempty"`
}

// Active reports whether the filter restricts anything.
func (f ContentTypeFilter) Active() bool {
	return len(f.Include) > 0 || len(f.Exclude) > 0
}

// Allows reports whether ct passes the filter.
func (f ContentTypeFilter) Allows(ct core.ContentType) bool {
	if len(f.Include) > 0 && !slices.Contains(f.Include, ct) {
		return false
	}
	return !slices.Contains(f.Exclude, ct)
}

// StringGroup matches substrings. OneOf means exactly one: a candidate that
// contains two of its strings is rejected.
type StringGroup struct {
	AllOf         []string `yaml:"allOf,omitempty"`
	AnyOf         []string `yaml:"anyOf,omitempty"`
	OneOf         []string `yaml:"oneOf,omitempty"`
	NoneOf        []string `yaml:"noneOf,omitempty"`
	CaseSensitive bool     `yaml:"caseSensitive,omitempty"`
}

// Active reports whether any combinator is set.
func (g StringGroup) Active() bool {
	return len(g.AllOf)+len(g.AnyOf)+len(g.OneOf)+len(g.NoneOf) > 0
}

// TagGroup matches nodes of an NBT value. Matching is case sensitive unless
// CaseInsensitive is set. Candidates whose value is not NBT are rejected
// unless IncludeNonNBT is set, in which case they pass unfiltered.
type TagGroup struct {
	AllOf           []TagQuery `yaml:"allOf,omitempty"`
	AnyOf           []TagQuery `yaml:"anyOf,omitempty"`
	OneOf           []TagQuery `yaml:"oneOf,omitempty"`
	NoneOf          []TagQuery `yaml:"noneOf,omitempty"`
	CaseInsensitive bool       `yaml:"caseInsensitive,omitempty"`
	IncludeNonNBT   bool       `yaml:"includeNonNBT,omitempty"`
}

// Active reports whether any combinator is set.
func (g TagGroup) Active() bool {
	return len(g.AllOf)+len(g.AnyOf)+len(g.OneOf)+len(g.NoneOf) > 0
}

// Path segments with special meaning in TagQuery.Path.
const (
	// AnySegment matches exactly one path segment.
	AnySegment = "*"
	// AnyRest matches any number of segments, none included.
	AnyRest = "*?"
)

// TagQuery is a predicate on a single tag node. Every field that is set must
// hold. Path is the full path of the node from the root compound: compound
// children are keyed by name, list and array items by index.
type TagQuery struct {
	Path []string `yaml:"path,omitempty"`
	Key  string   `yaml:"key,omitempty"`
	// Type is a tag type name such as "int", "string" or "compound".
	Type string `yaml:"type,omitempty"`
	// Value only matches scalar tags, compared by their string form.
	Value *string `yaml:"value,omitempty"`
}

// Validate checks the query against the registered field names.
func (q Query) Validate(fields []string) error {
	for name, g := range q.Fields {
		if !slices.Contains(fields, name) {
			return fmt.Errorf("%w: unknown field %q", ErrInvalidQuery, name)
		}
		if !g.Active() {
			return fmt.Errorf("%w: field %q has no combinator", ErrInvalidQuery, name)
		}
	}
	for _, list := range [][]TagQuery{q.NBT.AllOf, q.NBT.AnyOf, q.NBT.OneOf, q.NBT.NoneOf} {
		for i, tq := range list {
			if err := tq.validate(); err != nil {
				return fmt.Errorf("%w: tag query %d: %v", ErrInvalidQuery, i, err)
			}
		}
	}
	return nil
}

func (tq TagQuery) validate() error {
	if len(tq.Path) == 0 && tq.Key == "" && tq.Type == "" && tq.Value == nil {
		return errors.New("empty predicate")
	}
	if tq.Type != "" {
		if _, ok := nbt.ParseTagType(tq.Type); !ok {
			return fmt.Errorf("unknown tag type %q", tq.Type)
		}
	}
	return nil
}

// combine applies the four combinators to a set of predicates.
func combine[T any](allOf, anyOf, oneOf, noneOf []T, found func(T) bool) bool {
	for _, x := range allOf {
		if !found(x) {
			return false
		}
	}
	if len(anyOf) > 0 && !slices.ContainsFunc(anyOf, found) {
		return false
	}
	if len(oneOf) > 0 {
		n := 0
		for _, x := range oneOf {
			if found(x) {
				n++
				if n > 1 {
					return false
				}
			}
		}
		if n != 1 {
			return false
		}
	}
	return !slices.ContainsFunc(noneOf, found)
}

package search

import (
	"context"
	"errors"

	"github.com/aretw0/worldkit/pkg/core"
)

// DefaultFields returns the standard field extractors:
//
//	contentType  the candidate's content type
//	identifier   the root "identifier" tag, as on entities
//	name         the root "CustomName", "Name" or "name" tag
func DefaultFields() map[string]FieldFunc {
	return map[string]FieldFunc{
		"contentType": func(_ context.Context, e *Entry) (string, error) {
			return string(e.ContentType), nil
		},
		"identifier": TagField("identifier"),
		"name":       TagField("CustomName", "Name", "name"),
	}
}

// TagField extracts the first of names that holds a scalar in the first root
// compound of the entry. Entries that are not NBT have no such field.
func TagField(names ...string) FieldFunc {
	return func(ctx context.Context, e *Entry) (string, error) {
		roots, err := e.Tree(ctx)
		if errors.Is(err, core.ErrEntryNotFound) {
			return "", nil
		}
		if err != nil || len(roots) == 0 {
			return "", err
		}
		for _, n := range names {
			if v, ok := roots[0].Get(n); ok {
				if s, ok := scalarString(v); ok {
					return s, nil
				}
			}
		}
		return "", nil
	}
}

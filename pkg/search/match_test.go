package search_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/worldkit/pkg/nbt"
	"github.com/aretw0/worldkit/pkg/search"
)

func sample(t *testing.T) *nbt.Compound {
	t.Helper()
	pos, err := nbt.NewList(float32(1.5), float32(64), float32(-3))
	require.NoError(t, err)
	inv, err := nbt.NewList(
		nbt.NewCompound(nbt.Entry{Name: "Name", Value: "minecraft:stone"}, nbt.Entry{Name: "Count", Value: int8(12)}),
		nbt.NewCompound(nbt.Entry{Name: "Name", Value: "minecraft:dirt"}, nbt.Entry{Name: "Count", Value: int8(1)}),
	)
	require.NoError(t, err)
	return nbt.NewCompound(
		nbt.Entry{Name: "Pos", Value: pos},
		nbt.Entry{Name: "Inventory", Value: inv},
		nbt.Entry{Name: "UniqueID", Value: int64(-4294967295)},
		nbt.Entry{Name: "Ids", Value: []int32{7, 9}},
		nbt.Entry{Name: "Abilities", Value: nbt.NewCompound(nbt.Entry{Name: "flying", Value: int8(0)})},
	)
}

func str(s string) *string { return &s }

func TestTagQueryPaths(t *testing.T) {
	root := sample(t)
	cases := []struct {
		name string
		q    search.TagQuery
		want bool
	}{
		{"any direct child of Pos", search.TagQuery{Path: []string{"Pos", "*"}}, true},
		{"Pos child by index", search.TagQuery{Path: []string{"Pos", "1"}, Value: str("64")}, true},
		{"wrong index", search.TagQuery{Path: []string{"Pos", "0"}, Value: str("64")}, false},
		{"one level wildcard does not descend", search.TagQuery{Path: []string{"*"}, Key: "flying"}, false},
		{"rest wildcard at any depth", search.TagQuery{Path: []string{"*?"}, Key: "flying"}, true},
		{"rest wildcard then literal", search.TagQuery{Path: []string{"*?", "Count"}, Value: str("12")}, true},
		{"list of compounds", search.TagQuery{Path: []string{"Inventory", "*", "Name"}, Value: str("minecraft:dirt")}, true},
		{"key alone", search.TagQuery{Key: "Count", Type: "byte", Value: str("1")}, true},
		{"type mismatch", search.TagQuery{Key: "Count", Type: "int"}, false},
		{"64-bit values compare in decimal", search.TagQuery{Key: "UniqueID", Value: str("-4294967295")}, true},
		{"containers have no value", search.TagQuery{Key: "Pos", Value: str("")}, false},
		{"container type", search.TagQuery{Key: "Abilities", Type: "compound"}, true},
		{"array items typed from the array", search.TagQuery{Path: []string{"Ids", "1"}, Type: "int", Value: str("9")}, true},
		{"array item type checked", search.TagQuery{Path: []string{"Ids", "*"}, Type: "long"}, false},
		{"float formatting", search.TagQuery{Key: "0", Value: str("1.5")}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := search.TagGroup{AllOf: []search.TagQuery{tc.q}}
			assert.Equal(t, tc.want, g.MatchTree([]*nbt.Compound{root}))
		})
	}
}

func TestTagGroupCombinators(t *testing.T) {
	roots := []*nbt.Compound{sample(t)}
	stone := search.TagQuery{Key: "Name", Value: str("minecraft:stone")}
	dirt := search.TagQuery{Key: "Name", Value: str("minecraft:dirt")}
	gold := search.TagQuery{Key: "Name", Value: str("minecraft:gold_ingot")}

	assert.True(t, search.TagGroup{AllOf: []search.TagQuery{stone, dirt}}.MatchTree(roots))
	assert.False(t, search.TagGroup{AllOf: []search.TagQuery{stone, gold}}.MatchTree(roots))
	assert.True(t, search.TagGroup{AnyOf: []search.TagQuery{gold, dirt}}.MatchTree(roots))
	assert.False(t, search.TagGroup{OneOf: []search.TagQuery{stone, dirt}}.MatchTree(roots))
	assert.True(t, search.TagGroup{OneOf: []search.TagQuery{stone, gold}}.MatchTree(roots))
	assert.False(t, search.TagGroup{NoneOf: []search.TagQuery{gold, stone}}.MatchTree(roots))
	assert.True(t, search.TagGroup{}.MatchTree(roots))
}

func TestWalkOrder(t *testing.T) {
	var keys []string
	search.Walk(sample(t), func(n search.Node) bool {
		keys = append(keys, n.Key)
		return len(keys) < 5
	})
	assert.Equal(t, []string{"Pos", "0", "1", "2", "Inventory"}, keys)
}

package search_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/worldkit/internal/testutil"
	"github.com/aretw0/worldkit/pkg/contenttype"
	"github.com/aretw0/worldkit/pkg/core"
	"github.com/aretw0/worldkit/pkg/search"
	"github.com/aretw0/worldkit/pkg/session"
)

// Three players, one named Steve: a content type plus tag query finds exactly
// that one, keyed by its raw key.
func TestSearchWorldForPlayer(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewMemStore()
	st.Seed([]byte("player_a1"), testutil.NBT(t, testutil.Player("Alex", 20)))
	st.Seed([]byte("player_b2"), testutil.NBT(t, testutil.Player("Steve", 20)))
	st.Seed([]byte("player_c3"), testutil.NBT(t, testutil.Player("Zed", 20)))
	st.Seed([]byte("~local_player"), testutil.NBT(t, testutil.Player("Steve", 20)))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CURRENT"), []byte("MANIFEST-000001\n"), 0o644))
	w, err := session.OpenWorld(ctx, dir, core.ReadonlyDirect, session.Config{
		OpenStore: func(string, bool) core.Store { return st },
	})
	require.NoError(t, err)
	defer w.Close(ctx)

	steve := "Steve"
	q := search.Query{
		ContentTypes: search.ContentTypeFilter{Include: []core.ContentType{contenttype.Player}},
		NBT:          search.TagGroup{AllOf: []search.TagQuery{{Key: "Name", Value: &steve}}},
	}
	var results []search.Result
	for r, err := range search.New(search.Config{}).Search(ctx, w, q) {
		require.NoError(t, err)
		results = append(results, r)
	}
	require.Len(t, results, 1)
	assert.Equal(t, []byte("player_b2"), results[0].Key)
	assert.Equal(t, contenttype.Player, results[0].ContentType)
	assert.True(t, results[0].Matched)
}

func TestSearchWorldWithoutStore(t *testing.T) {
	ctx := context.Background()
	w, err := session.OpenWorld(ctx, t.TempDir(), core.ReadonlyDirect, session.Config{})
	require.NoError(t, err)
	defer w.Close(ctx)

	for _, err := range search.New(search.Config{}).Search(ctx, w, search.Query{}) {
		assert.ErrorIs(t, err, core.ErrStoreClosed)
	}
}

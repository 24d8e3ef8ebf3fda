package core_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/worldkit/pkg/core"
)

func TestAccessModes(t *testing.T) {
	cases := []struct {
		mode                        core.AccessMode
		staged, readOnly, commits bool
	}{
		{core.Readonly, true, true, false},
		{core.ReadonlyDirect, false, true, false},
		{core.Direct, false, false, false},
		{core.CopyUntilSave, true, false, true},
		{core.Copy, true, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.mode.String(), func(t *testing.T) {
			assert.Equal(t, tc.staged, tc.mode.Staged())
			assert.Equal(t, tc.readOnly, tc.mode.ReadOnly())
			assert.Equal(t, tc.commits, tc.mode.CommitsOnSave())

			parsed, err := core.ParseAccessMode(tc.mode.String())
			require.NoError(t, err)
			assert.Equal(t, tc.mode, parsed)
		})
	}

	_, err := core.ParseAccessMode("sideways")
	assert.Error(t, err)
}

func TestEntryTargetIsImmutable(t *testing.T) {
	key := []byte{1, 2, 3}
	target := core.KeyTarget(key)
	key[0] = 9

	assert.Equal(t, []byte{1, 2, 3}, target.Key())
	got := target.Key()
	got[1] = 9
	assert.Equal(t, []byte{1, 2, 3}, target.Key())

	assert.True(t, target.Equal(core.KeyTarget([]byte{1, 2, 3})))
	assert.False(t, target.Equal(core.FileTarget("level.dat")))
	assert.True(t, core.FileTarget("a/b").Equal(core.FileTarget("a/b")))
}

func TestClassificationOrder(t *testing.T) {
	c := core.NewClassification([]core.ContentType{"A", "B"})
	c.Add("B", []byte("b1"))
	c.Add("A", []byte("a1"))
	c.Add("B", []byte("b2"))

	var seen []string
	for ct, k := range c.All() {
		seen = append(seen, fmt.Sprintf("%s:%s", ct, k))
	}
	assert.Equal(t, []string{"A:a1", "B:b1", "B:b2"}, seen)
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 2, c.Counts()["B"])

	cp := c.Clone()
	assert.True(t, c.Remove("B", []byte("b1")))
	assert.False(t, c.Remove("B", []byte("b1")))
	assert.False(t, c.Has("B", []byte("b1")))
	assert.True(t, cp.Has("B", []byte("b1")), "clones are independent")
	assert.Equal(t, 2, c.Len())
}

func TestErrorMatching(t *testing.T) {
	err := fmt.Errorf("save: %w", &core.StagingError{Op: "copy-out", Path: "/tmp/x", Err: errors.New("disk full")})
	assert.ErrorIs(t, err, core.ErrStagingIO)

	var se *core.StagingError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "copy-out", se.Op)

	conv := &core.ConversionError{From: core.DataUTF8, To: core.FormatInt}
	assert.ErrorIs(t, conv, core.ErrConversionUnsupported)
}

package main

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/worldkit/internal/testutil"
	"github.com/aretw0/worldkit/pkg/adapters/fs"
	"github.com/aretw0/worldkit/pkg/core"
	"github.com/aretw0/worldkit/pkg/search"
)

func TestParseTarget(t *testing.T) {
	tgt, err := parseTarget([]string{"~local_player"}, "", false)
	require.NoError(t, err)
	assert.Equal(t, []byte("~local_player"), tgt.Key())

	tgt, err = parseTarget([]string{"00ff"}, "", true)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xff}, tgt.Key())

	tgt, err = parseTarget(nil, "level.dat", false)
	require.NoError(t, err)
	assert.False(t, tgt.IsKey())
	assert.Equal(t, "level.dat", tgt.File())

	_, err = parseTarget(nil, "", false)
	assert.Error(t, err)
	_, err = parseTarget([]string{"k"}, "level.dat", false)
	assert.Error(t, err)
	_, err = parseTarget([]string{"zz"}, "", true)
	assert.Error(t, err)
}

func TestParseValue(t *testing.T) {
	v, err := parseValue([]byte("{Health:20s}\n"), core.DataUTF8, core.FormatDescriptor{})
	require.NoError(t, err)
	assert.Equal(t, "{Health:20s}", v.Text)

	v, err = parseValue([]byte(" 0x10 "), core.DataInt, core.FormatDescriptor{})
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(16), v.Int)

	v, err = parseValue([]byte{1, 2}, core.DataBinary, core.FormatDescriptor{})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, v.Bytes)

	_, err = parseValue([]byte("x"), core.DataInt, core.FormatDescriptor{})
	assert.ErrorIs(t, err, core.ErrInvalidValue)
	_, err = parseValue([]byte("x"), core.DataNBT, core.FormatDescriptor{})
	assert.ErrorIs(t, err, core.ErrInvalidValue)
}

func TestDecodeQuery(t *testing.T) {
	q, err := decodeQuery(nil)
	require.NoError(t, err)
	assert.Equal(t, search.Query{}, q)

	q, err = decodeQuery([]byte("displayKey:\n  anyOf: [steve]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"steve"}, q.DisplayKey.AnyOf)

	_, err = decodeQuery([]byte("displaykey: {}\n"))
	assert.Error(t, err)
}

func TestFailedCommandRemovesStaging(t *testing.T) {
	src := filepath.Join(t.TempDir(), "world")
	testutil.WriteWorld(t, src, nil, nil)
	staging := t.TempDir()
	cfg := filepath.Join(t.TempDir(), "worldkit.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("staging:\n  root: "+staging+"\n"), 0o644))
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		configPath, worldPath, modeName = "", "", ""
	})

	rootCmd.SetArgs([]string{"--config", cfg, "--world", src, "--mode", "copy-until-save", "read", "no_such_key"})
	err := rootCmd.Execute()
	require.ErrorIs(t, err, core.ErrEntryNotFound)

	left, err := os.ReadDir(filepath.Join(staging, fs.StagingDirName))
	require.NoError(t, err)
	assert.Empty(t, left, "the staging copy is removed when a command fails")
}

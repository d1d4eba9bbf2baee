package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arclens/glassctl/internal/glass"
)

func TestLoadMissingFileYieldsEmptySettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	s, err := Load(path)

	require.NoError(t, err)
	assert.False(t, s.HasAddresses())
	assert.False(t, s.Paired(glass.Left))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glassctl", "config.json")

	s, err := Load(path)
	require.NoError(t, err)
	s.SetAddress(glass.Left, "AA:00:00:00:00:01")
	s.SetAddress(glass.Right, "BB:00:00:00:00:02")
	s.SetName(glass.Left, "G1_L_42")
	s.SetPaired(glass.Left, true)
	require.NoError(t, s.Save())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "AA:00:00:00:00:01", loaded.Address(glass.Left))
	assert.Equal(t, "BB:00:00:00:00:02", loaded.Address(glass.Right))
	assert.Equal(t, "G1_L_42", loaded.Name(glass.Left))
	assert.True(t, loaded.Paired(glass.Left))
	assert.False(t, loaded.Paired(glass.Right))
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	s, err := Load(path)
	require.NoError(t, err)
	s.SetAddress(glass.Left, "AA:00:00:00:00:01")
	require.NoError(t, s.Save())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "config.json", entries[0].Name())
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Load(path)

	assert.Error(t, err)
}

func TestClear(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	s.SetAddress(glass.Left, "AA:00:00:00:00:01")
	s.SetAddress(glass.Right, "BB:00:00:00:00:02")
	s.SetName(glass.Right, "G1_R_42")
	s.SetPaired(glass.Left, true)
	s.SetPaired(glass.Right, true)

	s.Clear()

	assert.False(t, s.HasAddresses())
	assert.Empty(t, s.Name(glass.Right))
	assert.False(t, s.Paired(glass.Left))
	assert.False(t, s.Paired(glass.Right))
}

func TestHasAddressesNeedsBothSides(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	s.SetAddress(glass.Left, "AA:00:00:00:00:01")
	assert.False(t, s.HasAddresses())

	s.SetAddress(glass.Right, "BB:00:00:00:00:02")
	assert.True(t, s.HasAddresses())
}

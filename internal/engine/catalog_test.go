// ABOUTME: Tests for loading world descriptors from the worlds directory
// ABOUTME: Covers defaults, skipping, validation and ordering

package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWorld(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, name), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name, "world.toml"), []byte(content), 0644))
}

func TestLoadWorlds(t *testing.T) {
	dir := t.TempDir()
	writeWorld(t, dir, "vancia", `
name = "Vancia"
hostname = "vancia.fr"
port = 4000
encoding = "utf-8"

[[characters]]
name = "Kredh"
username = "kredh"
`)
	writeWorld(t, dir, "aardwolf", `
hostname = "aardmud.org"
port = 23
protocol = "telnet"
`)
	// Directory without a descriptor is ignored.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0755))

	worlds, err := LoadWorlds(dir)
	require.NoError(t, err)
	require.Len(t, worlds, 2)

	assert.Equal(t, "Vancia", worlds[0].Name)
	assert.Equal(t, "vancia.fr", worlds[0].Hostname)
	assert.Equal(t, 4000, worlds[0].Port)
	assert.Equal(t, "utf-8", worlds[0].Encoding)
	require.Len(t, worlds[0].Characters, 1)
	assert.Equal(t, "Kredh", worlds[0].Characters[0].Name)

	assert.Equal(t, "aardwolf", worlds[1].Name)
	assert.Equal(t, "telnet", worlds[1].Protocol)
	assert.Equal(t, StateUnopened, worlds[1].State())
}

func TestLoadWorlds_MissingDirectory(t *testing.T) {
	worlds, err := LoadWorlds(filepath.Join(t.TempDir(), "none"))
	require.NoError(t, err)
	assert.Empty(t, worlds)
}

func TestLoadWorlds_Invalid(t *testing.T) {
	dir := t.TempDir()
	writeWorld(t, dir, "broken", `hostname = "x"
port = 0`)

	_, err := LoadWorlds(dir)
	assert.Error(t, err)
}

// ABOUTME: Tests for the log channel registry
// ABOUTME: Covers idempotent acquisition, sink layout, formatting, propagation and concurrency

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 9, 7, 5, 0, 0, time.Local)
}

func newTestRegistry(t *testing.T) (*Registry, *bytes.Buffer) {
	t.Helper()
	var console bytes.Buffer
	reg, err := NewRegistry(filepath.Join(t.TempDir(), "logs"), WithConsole(&console), WithClock(fixedClock))
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })
	return reg, &console
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestNewRegistry_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")

	reg, err := NewRegistry(dir)
	require.NoError(t, err)
	defer reg.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewRegistry_DirectoryFailure(t *testing.T) {
	// A regular file where the directory should be.
	blocker := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := NewRegistry(filepath.Join(blocker, "sub"))
	assert.Error(t, err)
}

func TestAcquire_RootChannel(t *testing.T) {
	reg, _ := newTestRegistry(t)

	root, err := reg.Acquire("")
	require.NoError(t, err)

	assert.Equal(t, "cocomud", root.Name())
	assert.Equal(t, filepath.Join(reg.Dir(), "main.log"), root.Path())

	sinks := root.Sinks()
	require.Len(t, sinks, 2)
	assert.Equal(t, SinkConsole, sinks[0].Kind)
	assert.Equal(t, "INFO", levelName(sinks[0].Level))
	assert.Equal(t, SinkFile, sinks[1].Kind)
	assert.Equal(t, "DEBUG", levelName(sinks[1].Level))
}

func TestAcquire_ChildChannelHasOnlyFileSink(t *testing.T) {
	reg, _ := newTestRegistry(t)

	sharp, err := reg.Acquire("sharp")
	require.NoError(t, err)

	assert.Equal(t, "cocomud.sharp", sharp.Name())
	sinks := sharp.Sinks()
	require.Len(t, sinks, 1)
	assert.Equal(t, SinkFile, sinks[0].Kind)
	assert.Equal(t, filepath.Join(reg.Dir(), "sharp.log"), sinks[0].Path)

	_, err = os.Stat(filepath.Join(reg.Dir(), "sharp.log"))
	assert.NoError(t, err)
}

func TestAcquire_Idempotent(t *testing.T) {
	reg, _ := newTestRegistry(t)

	for _, name := range []string{"", "sharp", "client"} {
		first, err := reg.Acquire(name)
		require.NoError(t, err)
		second, err := reg.Acquire(name)
		require.NoError(t, err)

		assert.Same(t, first, second, "channel %q", name)
		assert.Equal(t, first.Sinks(), second.Sinks())
	}
	assert.Len(t, reg.Channels(), 3)
}

func TestAcquire_NoDuplicateOutput(t *testing.T) {
	reg, _ := newTestRegistry(t)

	ch, err := reg.Acquire("sharp")
	require.NoError(t, err)
	_, err = reg.Acquire("sharp")
	require.NoError(t, err)

	ch.Debug("only once")

	content := readFile(t, ch.Path())
	assert.Equal(t, 1, strings.Count(content, "only once"))
}

func TestAcquireFile_Override(t *testing.T) {
	reg, _ := newTestRegistry(t)
	custom := filepath.Join(t.TempDir(), "custom.log")

	ch, err := reg.AcquireFile("macros", custom)
	require.NoError(t, err)
	assert.Equal(t, custom, ch.Path())

	ch.Info("triggered")
	assert.Contains(t, readFile(t, custom), "triggered")
}

func TestChannel_Format(t *testing.T) {
	reg, console := newTestRegistry(t)

	root, err := reg.Acquire("")
	require.NoError(t, err)

	root.Info("CocoMUD engine started")
	root.Warn("careful", "port", 4000)

	content := readFile(t, root.Path())
	assert.Contains(t, content, "07:05 [INFO] CocoMUD engine started\n")
	assert.Contains(t, content, "07:05 [WARNING] careful port=4000\n")
	assert.Contains(t, console.String(), "07:05 [INFO] CocoMUD engine started\n")
}

func TestChannel_ConsoleFloorIsInfo(t *testing.T) {
	reg, console := newTestRegistry(t)

	root, err := reg.Acquire("")
	require.NoError(t, err)

	root.Debug("file only")

	assert.NotContains(t, console.String(), "file only")
	assert.Contains(t, readFile(t, root.Path()), "[DEBUG] file only")
}

func TestChannel_PropagatesToAncestors(t *testing.T) {
	reg, console := newTestRegistry(t)

	root, err := reg.Acquire("")
	require.NoError(t, err)
	parent, err := reg.Acquire("sharp")
	require.NoError(t, err)
	child, err := reg.Acquire("sharp.macros")
	require.NoError(t, err)

	child.Info("macro fired")
	child.Debug("macro detail")

	assert.Contains(t, readFile(t, child.Path()), "[INFO] macro fired")
	assert.Contains(t, readFile(t, parent.Path()), "[INFO] macro fired")
	assert.Contains(t, readFile(t, root.Path()), "[DEBUG] macro detail")
	assert.Contains(t, console.String(), "macro fired")
	assert.NotContains(t, console.String(), "macro detail")
}

func TestChannel_WithAttrsAndGroup(t *testing.T) {
	reg, _ := newTestRegistry(t)

	ch, err := reg.Acquire("client")
	require.NoError(t, err)

	ch.With("world", "w1").WithGroup("net").Info("connected", "port", 23)

	assert.Contains(t, readFile(t, ch.Path()), "[INFO] connected world=w1 net.port=23")
}

func TestAcquire_ConcurrentSameName(t *testing.T) {
	reg, _ := newTestRegistry(t)

	const workers = 32
	results := make([]*Channel, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ch, err := reg.Acquire("shared")
			assert.NoError(t, err)
			results[i] = ch
		}(i)
	}
	wg.Wait()

	for _, ch := range results {
		assert.Same(t, results[0], ch)
	}
	assert.Len(t, results[0].Sinks(), 1)
}

func TestRegistry_Close(t *testing.T) {
	reg, _ := newTestRegistry(t)

	ch, err := reg.Acquire("sharp")
	require.NoError(t, err)

	require.NoError(t, reg.Close())
	require.NoError(t, reg.Close())

	_, err = reg.Acquire("other")
	assert.ErrorIs(t, err, ErrClosed)

	// Writing after close must not panic.
	ch.Info("discarded")
}

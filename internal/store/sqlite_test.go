// ABOUTME: Tests for SQLite settings persistence
// ABOUTME: Covers schema creation, layer round trips, single-key operations and store integration

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cocomud/cocomud/internal/settings"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewSQLiteStore(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	// Verify the database file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Error("parent directory was not created")
	}
}

func TestSaveAndLoadLayer(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	values := map[string]any{
		"options.general.language": "fr",
		"options.TTS.on":           false,
		"options.input.history":    20,
	}
	require.NoError(t, store.SaveLayer(ctx, settings.World, values))

	loaded, err := store.LoadLayer(ctx, settings.World)
	require.NoError(t, err)
	assert.Equal(t, values, loaded)

	// Other layers stay empty
	engine, err := store.LoadLayer(ctx, settings.Engine)
	require.NoError(t, err)
	assert.Empty(t, engine)
}

func TestSaveLayer_ReplacesPreviousValues(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveLayer(ctx, settings.Engine, map[string]any{"a": "1", "b": "2"}))
	require.NoError(t, store.SaveLayer(ctx, settings.Engine, map[string]any{"b": "3"}))

	loaded, err := store.LoadLayer(ctx, settings.Engine)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"b": "3"}, loaded)
}

func TestLayer_InvalidLevel(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	_, err := store.LoadLayer(ctx, settings.Level(0))
	assert.ErrorIs(t, err, settings.ErrInvalidLevel)
	assert.ErrorIs(t, store.SaveLayer(ctx, settings.Level(5), nil), settings.ErrInvalidLevel)
}

func TestPutGetDeleteSetting(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutSetting(ctx, settings.Character, "options.TTS.outside", true))
	require.NoError(t, store.PutSetting(ctx, settings.Character, "options.TTS.outside", false))

	got, err := store.GetSetting(ctx, settings.Character, "options.TTS.outside")
	require.NoError(t, err)
	assert.Equal(t, false, got.Value)
	assert.Equal(t, settings.Character, got.Level)
	assert.False(t, got.UpdatedAt.IsZero())

	require.NoError(t, store.DeleteSetting(ctx, settings.Character, "options.TTS.outside"))

	_, err = store.GetSetting(ctx, settings.Character, "options.TTS.outside")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	assert.ErrorIs(t, store.DeleteSetting(ctx, settings.Character, "options.TTS.outside"), ErrNotFound)
}

func TestSQLiteStore_AsSettingsBackend(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutSetting(ctx, settings.Engine, "key", "A"))
	require.NoError(t, store.PutSetting(ctx, settings.World, "key", "B"))

	s := settings.NewStore(store, settings.Defaults())
	require.NoError(t, s.Load(ctx))

	v, err := s.Get("key")
	require.NoError(t, err)
	assert.Equal(t, "B", v)

	require.NoError(t, s.Set(settings.Character, "key", "C"))
	require.NoError(t, s.Save(ctx, settings.Character))

	reloaded := settings.NewStore(store, settings.Defaults())
	require.NoError(t, reloaded.Load(ctx))
	v, err = reloaded.Get("key")
	require.NoError(t, err)
	assert.Equal(t, "C", v)
}

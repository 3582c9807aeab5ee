// ABOUTME: Tests for the layered settings store
// ABOUTME: Covers level precedence, defaults, undeclared keys, typed getters and concurrency

package settings

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

// memBackend keeps layers in memory.
type memBackend struct {
	layers  map[Level]map[string]any
	loadErr error
	saved   map[Level]map[string]any
}

func (m *memBackend) LoadLayer(_ context.Context, level Level) (map[string]any, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.layers[level], nil
}

func (m *memBackend) SaveLayer(_ context.Context, level Level, values map[string]any) error {
	if m.saved == nil {
		m.saved = make(map[Level]map[string]any)
	}
	m.saved[level] = values
	return nil
}

func loadedStore(t *testing.T, layers map[Level]map[string]any) *Store {
	t.Helper()
	s := NewStore(&memBackend{layers: layers}, Defaults())
	require.NoError(t, s.Load(t.Context()))
	return s
}

func TestLevel_Ordering(t *testing.T) {
	assert.Less(t, Engine, World)
	assert.Less(t, World, Character)
	assert.Less(t, Character, Category)
	assert.Equal(t, []Level{Engine, World, Character, Category}, Levels())
}

func TestParseLevel(t *testing.T) {
	for _, l := range Levels() {
		parsed, err := ParseLevel(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, parsed)
	}

	parsed, err := ParseLevel("WORLD")
	require.NoError(t, err)
	assert.Equal(t, World, parsed)

	_, err = ParseLevel("galaxy")
	assert.Error(t, err)
}

func TestStore_LevelPrecedence(t *testing.T) {
	s := loadedStore(t, map[Level]map[string]any{
		Engine:    {"key": "A"},
		World:     {"key": "B"},
		Character: {"key": "C"},
	})

	v, err := s.Get("key")
	require.NoError(t, err)
	assert.Equal(t, "C", v)

	require.NoError(t, s.Unset(Character, "key"))
	v, err = s.Get("key")
	require.NoError(t, err)
	assert.Equal(t, "B", v)

	require.NoError(t, s.Unset(World, "key"))
	v, err = s.Get("key")
	require.NoError(t, err)
	assert.Equal(t, "A", v)
}

func TestStore_CategoryWins(t *testing.T) {
	s := loadedStore(t, map[Level]map[string]any{
		Engine:   {"key": "A"},
		Category: {"key": "D"},
	})

	v, level, err := s.Lookup("key")
	require.NoError(t, err)
	assert.Equal(t, "D", v)
	assert.Equal(t, Category, level)
}

func TestStore_DefaultsWhenNoLayerDefinesKey(t *testing.T) {
	s := loadedStore(t, nil)

	on, err := s.Bool(KeyTTSOn)
	require.NoError(t, err)
	assert.True(t, on)

	_, level, err := s.Lookup(KeyTTSOn)
	require.NoError(t, err)
	assert.Equal(t, Level(0), level)
}

func TestStore_UndeclaredKey(t *testing.T) {
	s := loadedStore(t, nil)

	v, err := s.Get("nonexistent.key")
	assert.ErrorIs(t, err, ErrUnknownKey)
	assert.Nil(t, v)
	assert.Contains(t, err.Error(), "nonexistent.key")
}

func TestStore_UndeclaredKeyDefinedInLayer(t *testing.T) {
	s := loadedStore(t, map[Level]map[string]any{
		World: {"options.custom": 7},
	})

	n, err := s.Int("options.custom")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.False(t, s.Declared("options.custom"))
}

func TestStore_NotLoaded(t *testing.T) {
	s := NewStore(&memBackend{}, Defaults())

	_, err := s.Get(KeyTTSOn)
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestStore_LoadFailureKeepsPreviousLayers(t *testing.T) {
	backend := &memBackend{layers: map[Level]map[string]any{Engine: {"key": "A"}}}
	s := NewStore(backend, nil)
	require.NoError(t, s.Load(t.Context()))

	backend.loadErr = errors.New("disk gone")
	err := s.Load(t.Context())
	require.Error(t, err)

	v, err := s.Get("key")
	require.NoError(t, err)
	assert.Equal(t, "A", v)
}

func TestStore_SetDoesNotTouchOtherLayers(t *testing.T) {
	s := loadedStore(t, map[Level]map[string]any{
		Engine: {"key": "A"},
	})

	require.NoError(t, s.Set(World, "key", "B"))

	assert.Equal(t, map[string]any{"key": "A"}, s.Layer(Engine))
	assert.Equal(t, map[string]any{"key": "B"}, s.Layer(World))
	assert.Empty(t, s.Layer(Character))

	assert.ErrorIs(t, s.Set(Level(9), "key", "X"), ErrInvalidLevel)
}

func TestStore_LayerIsCopy(t *testing.T) {
	s := loadedStore(t, map[Level]map[string]any{Engine: {"key": "A"}})

	layer := s.Layer(Engine)
	layer["key"] = "mutated"

	v, err := s.Get("key")
	require.NoError(t, err)
	assert.Equal(t, "A", v)
}

func TestStore_TypedGetters(t *testing.T) {
	s := loadedStore(t, map[Level]map[string]any{
		Engine: {
			"num64":   int64(3),
			"float":   float64(4),
			"half":    4.5,
			"string":  "text",
			"boolean": false,
		},
	})

	n, err := s.Int("num64")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = s.Int("float")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = s.Int("half")
	assert.ErrorIs(t, err, ErrWrongType)

	_, err = s.Bool("string")
	assert.ErrorIs(t, err, ErrWrongType)

	_, err = s.String("boolean")
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestStore_Language(t *testing.T) {
	s := loadedStore(t, nil)
	assert.Equal(t, language.English, s.Language())

	require.NoError(t, s.Set(Engine, KeyLanguage, "fr"))
	assert.Equal(t, language.French, s.Language())

	require.NoError(t, s.Set(Character, KeyLanguage, "not a tag!"))
	assert.Equal(t, language.English, s.Language())
}

func TestStore_Save(t *testing.T) {
	backend := &memBackend{}
	s := NewStore(backend, Defaults())
	require.NoError(t, s.Load(t.Context()))
	require.NoError(t, s.Set(World, KeyEncoding, "utf-8"))

	require.NoError(t, s.Save(t.Context(), World))
	assert.Equal(t, map[string]any{KeyEncoding: "utf-8"}, backend.saved[World])
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := loadedStore(t, nil)

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := s.Get(KeyTTSOutside)
			assert.NoError(t, err)
		}()
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Set(Character, KeyTTSOutside, i%2 == 0))
		}(i)
	}
	wg.Wait()

	_, err := s.Bool(KeyTTSOutside)
	assert.NoError(t, err)
}

// ABOUTME: Layered settings store resolving keys from category down to engine level
// ABOUTME: Falls back to declared defaults and reports undeclared keys as errors

package settings

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"golang.org/x/text/language"
)

var (
	// ErrUnknownKey is returned when no layer defines a key and it has no default.
	ErrUnknownKey = errors.New("unknown settings key")

	// ErrNotLoaded is returned when reading before Load has run.
	ErrNotLoaded = errors.New("settings not loaded")

	// ErrWrongType is returned by the typed getters on a type mismatch.
	ErrWrongType = errors.New("settings value has wrong type")

	// ErrInvalidLevel is returned for levels outside Engine..Category.
	ErrInvalidLevel = errors.New("invalid settings level")
)

// Backend loads and persists one layer of options.
type Backend interface {
	LoadLayer(ctx context.Context, level Level) (map[string]any, error)
	SaveLayer(ctx context.Context, level Level, values map[string]any) error
}

// Store resolves option keys across the four override layers.
type Store struct {
	backend  Backend
	defaults map[string]any

	mu     sync.RWMutex
	layers map[Level]map[string]any
	loaded bool
}

// NewStore creates a store reading from backend. defaults may be nil.
func NewStore(backend Backend, defaults map[string]any) *Store {
	s := &Store{
		backend:  backend,
		defaults: maps.Clone(defaults),
		layers:   make(map[Level]map[string]any),
	}
	if s.defaults == nil {
		s.defaults = make(map[string]any)
	}
	for _, l := range Levels() {
		s.layers[l] = make(map[string]any)
	}
	return s
}

// Load reads every layer from the backend, replacing what is in memory.
// Nothing is replaced if any layer fails to load.
func (s *Store) Load(ctx context.Context) error {
	layers := make(map[Level]map[string]any, len(Levels()))
	for _, l := range Levels() {
		values := map[string]any{}
		if s.backend != nil {
			loaded, err := s.backend.LoadLayer(ctx, l)
			if err != nil {
				return fmt.Errorf("loading %s layer: %w", l, err)
			}
			if loaded != nil {
				values = loaded
			}
		}
		layers[l] = values
	}

	s.mu.Lock()
	s.layers = layers
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Save persists the layer for level through the backend.
func (s *Store) Save(ctx context.Context, level Level) error {
	if !level.Valid() {
		return ErrInvalidLevel
	}
	if s.backend == nil {
		return nil
	}
	values := s.Layer(level)
	if err := s.backend.SaveLayer(ctx, level, values); err != nil {
		return fmt.Errorf("saving %s layer: %w", level, err)
	}
	return nil
}

// Get resolves key, most specific level first.
func (s *Store) Get(key string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		return nil, ErrNotLoaded
	}

	levels := Levels()
	for i := len(levels) - 1; i >= 0; i-- {
		if v, ok := s.layers[levels[i]][key]; ok {
			return v, nil
		}
	}
	if v, ok := s.defaults[key]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// Lookup is like Get but also reports which level supplied the value.
// The level is 0 when the value came from the defaults.
func (s *Store) Lookup(key string) (any, Level, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		return nil, 0, ErrNotLoaded
	}

	levels := Levels()
	for i := len(levels) - 1; i >= 0; i-- {
		if v, ok := s.layers[levels[i]][key]; ok {
			return v, levels[i], nil
		}
	}
	if v, ok := s.defaults[key]; ok {
		return v, 0, nil
	}
	return nil, 0, fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// Bool resolves key and asserts a boolean value.
func (s *Store) Bool(key string) (bool, error) {
	v, err := s.Get(key)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s is %T, want bool", ErrWrongType, key, v)
	}
	return b, nil
}

// String resolves key and asserts a string value.
func (s *Store) String(key string) (string, error) {
	v, err := s.Get(key)
	if err != nil {
		return "", err
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T, want string", ErrWrongType, key, v)
	}
	return str, nil
}

// Int resolves key and asserts an integral value.
// Decoders disagree on integer types, so int64 and whole float64 are accepted.
func (s *Store) Int(key string) (int, error) {
	v, err := s.Get(key)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n == float64(int(n)) {
			return int(n), nil
		}
	}
	return 0, fmt.Errorf("%w: %s is %T, want int", ErrWrongType, key, v)
}

// Language resolves the interface language. Unset or unparsable values
// resolve to English.
func (s *Store) Language() language.Tag {
	lang, err := s.String(KeyLanguage)
	if err != nil || lang == "" {
		return language.English
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return language.English
	}
	return tag
}

// Set defines key at level. Other layers are untouched.
func (s *Store) Set(level Level, key string, value any) error {
	if !level.Valid() {
		return ErrInvalidLevel
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers[level][key] = value
	return nil
}

// Unset removes key from the layer at level.
func (s *Store) Unset(level Level, key string) error {
	if !level.Valid() {
		return ErrInvalidLevel
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.layers[level], key)
	return nil
}

// Layer returns a copy of the values defined at level.
func (s *Store) Layer(level Level) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.layers[level])
}

// Declared reports whether key has a built-in default.
func (s *Store) Declared(key string) bool {
	_, ok := s.defaults[key]
	return ok
}

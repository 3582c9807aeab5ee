// ABOUTME: File-based settings backend with one YAML or TOML document per level
// ABOUTME: Nested documents are flattened to dotted keys on load and rebuilt on save

package settings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FileBackend stores each level in its own file under a directory.
type FileBackend struct {
	files map[Level]string
}

// NewFileBackend creates a backend using the default file names inside dir:
// options.yaml, world.yaml, character.yaml and category.yaml.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{
		files: map[Level]string{
			Engine:    filepath.Join(dir, "options.yaml"),
			World:     filepath.Join(dir, "world.yaml"),
			Character: filepath.Join(dir, "character.yaml"),
			Category:  filepath.Join(dir, "category.yaml"),
		},
	}
}

// SetFile overrides the file used for level. A .toml extension selects TOML.
func (b *FileBackend) SetFile(level Level, path string) {
	b.files[level] = path
}

// File returns the file used for level.
func (b *FileBackend) File(level Level) string {
	return b.files[level]
}

// LoadLayer reads the file for level. A missing file is an empty layer.
func (b *FileBackend) LoadLayer(_ context.Context, level Level) (map[string]any, error) {
	path, ok := b.files[level]
	if !ok {
		return nil, ErrInvalidLevel
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings file: %w", err)
	}

	doc := map[string]any{}
	if isTOML(path) {
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	flat := make(map[string]any)
	flatten("", doc, flat)
	return flat, nil
}

// SaveLayer writes values to the file for level, creating parent directories.
func (b *FileBackend) SaveLayer(_ context.Context, level Level, values map[string]any) error {
	path, ok := b.files[level]
	if !ok {
		return ErrInvalidLevel
	}

	doc, err := unflatten(values)
	if err != nil {
		return err
	}

	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
			return fmt.Errorf("encoding %s: %w", path, err)
		}
		data = buf.Bytes()
	} else {
		data, err = yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", path, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}
	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// flatten turns nested maps into dotted keys.
func flatten(prefix string, doc map[string]any, out map[string]any) {
	for k, v := range doc {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}

// unflatten rebuilds nested maps from dotted keys. A key that is both a
// value and a prefix of another key cannot be represented and is an error.
func unflatten(values map[string]any) (map[string]any, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	root := make(map[string]any)
	for _, key := range keys {
		parts := strings.Split(key, ".")
		node := root
		for _, part := range parts[:len(parts)-1] {
			next, exists := node[part]
			if !exists {
				child := make(map[string]any)
				node[part] = child
				node = child
				continue
			}
			child, ok := next.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("settings key %q conflicts with a value at %q", key, part)
			}
			node = child
		}
		leaf := parts[len(parts)-1]
		if _, exists := node[leaf]; exists {
			return nil, fmt.Errorf("settings key %q conflicts with a nested section", key)
		}
		node[leaf] = values[key]
	}
	return root, nil
}

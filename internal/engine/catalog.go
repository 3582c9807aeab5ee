// ABOUTME: Loads the world catalog from per-world TOML descriptors
// ABOUTME: Each worlds/<name>/world.toml describes one endpoint and its characters

package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// worldFile is the descriptor read from each world directory.
const worldFile = "world.toml"

type worldDescriptor struct {
	Name       string      `toml:"name"`
	Hostname   string      `toml:"hostname"`
	Port       int         `toml:"port"`
	Protocol   string      `toml:"protocol"`
	Encoding   string      `toml:"encoding"`
	Characters []Character `toml:"characters"`
}

// LoadWorlds reads every dir/<name>/world.toml. Directories without a
// descriptor are skipped; a missing dir yields no worlds.
func LoadWorlds(dir string) ([]*World, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading worlds directory: %w", err)
	}

	var worlds []*World
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name(), worldFile)
		w, err := loadWorld(path, entry.Name())
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		worlds = append(worlds, w)
	}

	sort.Slice(worlds, func(i, j int) bool { return worlds[i].Name < worlds[j].Name })
	return worlds, nil
}

func loadWorld(path, dirName string) (*World, error) {
	var desc worldDescriptor
	if _, err := toml.DecodeFile(path, &desc); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if desc.Name == "" {
		desc.Name = dirName
	}
	if desc.Hostname == "" {
		return nil, fmt.Errorf("%s: hostname is required", path)
	}
	if desc.Port <= 0 || desc.Port > 65535 {
		return nil, fmt.Errorf("%s: invalid port %d", path, desc.Port)
	}

	w := NewWorld(desc.Name, desc.Hostname, desc.Port)
	w.Protocol = desc.Protocol
	w.Encoding = desc.Encoding
	w.Characters = desc.Characters
	return w, nil
}

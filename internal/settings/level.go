// ABOUTME: Feature levels used as override priorities when resolving settings
// ABOUTME: Ranks are explicit so resolution never depends on declaration order

package settings

import (
	"fmt"
	"strings"
)

// Level is an override priority. Higher ranks are more specific.
type Level int

const (
	// Engine options are common across all worlds and characters.
	Engine Level = 1
	// World options are common across the characters of a world.
	World Level = 2
	// Character options are specific to one character.
	Character Level = 3
	// Category options are the most specific.
	Category Level = 4
)

// Levels returns every level, most general first.
func Levels() []Level {
	return []Level{Engine, World, Character, Category}
}

// Valid reports whether l is one of the defined levels.
func (l Level) Valid() bool {
	return l >= Engine && l <= Category
}

// String returns the lower-case level name.
func (l Level) String() string {
	switch l {
	case Engine:
		return "engine"
	case World:
		return "world"
	case Character:
		return "character"
	case Category:
		return "category"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel parses a level name as returned by String.
func ParseLevel(s string) (Level, error) {
	for _, l := range Levels() {
		if strings.EqualFold(s, l.String()) {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown level %q", s)
}

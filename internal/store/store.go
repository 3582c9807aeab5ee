// ABOUTME: Shared errors and record types for settings persistence
// ABOUTME: Setting is one stored override with its level and timestamp

package store

import (
	"errors"
	"time"

	"github.com/cocomud/cocomud/internal/settings"
)

// ErrNotFound is returned when a requested setting does not exist
var ErrNotFound = errors.New("not found")

// Setting is one persisted override.
type Setting struct {
	Level     settings.Level
	Key       string
	Value     any
	UpdatedAt time.Time
}

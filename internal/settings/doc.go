// Package settings resolves configuration options across feature levels.
//
// # Levels
//
// Options can be defined at four levels, from the most general to the most
// specific:
//
//	Engine < World < Character < Category
//
// Engine options are common to every world and character. World options are
// shared by the characters of one world, character options belong to a single
// character and category options narrow a single feature group further.
//
// # Resolution
//
// Get walks the layers from the most specific level down to Engine and
// returns the first value it finds. Keys defined in no layer fall back to
// the declared defaults; a key without a default is an ErrUnknownKey.
//
//	store := settings.NewStore(backend, settings.Defaults())
//	if err := store.Load(ctx); err != nil { ... }
//	on, err := store.Bool("options.TTS.on")
//
// # Backends
//
// A Backend loads and saves one layer at a time. FileBackend keeps one YAML
// or TOML document per level; the SQLite backend lives in internal/store.
//
// # Thread Safety
//
// Store is safe for concurrent use. Reads share a lock; Set, Unset and Load
// take it exclusively.
package settings

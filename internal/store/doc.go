// Package store persists settings layers in SQLite.
//
// # Schema
//
// A single table holds every override, keyed by level and dotted option key:
//
//	CREATE TABLE settings (
//	    level      INTEGER NOT NULL,
//	    key        TEXT NOT NULL,
//	    value      TEXT NOT NULL,  -- JSON encoded
//	    updated_at TEXT NOT NULL,
//	    PRIMARY KEY (level, key)
//	);
//
// # SQLite Configuration
//
// The store uses modernc.org/sqlite with WAL mode:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// SQLiteStore implements settings.Backend, so it can replace the file
// backend without changes to the engine:
//
//	db, err := store.NewSQLiteStore("~/.local/share/cocomud/settings.db")
//	s := settings.NewStore(db, settings.Defaults())
package store

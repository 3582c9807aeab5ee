// Package config handles bootstrap configuration loading for cocomud.
//
// # Overview
//
// Configuration is loaded from a YAML file with environment variable
// expansion. Missing values keep the defaults from [Default].
//
// # Configuration File
//
// The CLI reads cocomud.yaml from the working directory, or the path in
// the COCOMUD_CONFIG environment variable. A missing file is not an error.
//
//	paths:
//	  logs: logs
//	  docs: doc
//	  settings: settings
//	  worlds: worlds
//	  database: settings/cocomud.db
//	settings:
//	  backend: file   # or sqlite
//	logging:
//	  color: true
//	update:
//	  build: 42
//	  url: https://cocomud.example.org/builds
//	  dir: updates
//
// # Environment Variables
//
// Values can reference environment variables with ${VAR_NAME}. A .env
// file is loaded first with [LoadDotEnv]. After the file is decoded,
// COCOMUD_* variables override individual fields:
//
//	COCOMUD_LOG_DIR, COCOMUD_DOC_DIR, COCOMUD_SETTINGS_DIR,
//	COCOMUD_WORLDS_DIR, COCOMUD_DATABASE, COCOMUD_SETTINGS_BACKEND,
//	COCOMUD_LOG_COLOR, COCOMUD_BUILD, COCOMUD_UPDATE_URL,
//	COCOMUD_UPDATE_DIR
package config

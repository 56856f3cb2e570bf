// Package config loads the remoshock configuration file.
//
// A configuration is assembled in layers: built-in defaults, then the file
// (TOML or YAML, chosen by extension), then REMOSHOCK_* environment
// overrides. The result is validated before it is handed to the rest of
// the program. Receivers and randomizer profiles are plain data here; the
// receiver and randomizer packages turn them into live objects.
package config

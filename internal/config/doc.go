// Package config loads, normalizes, and validates mediaconv configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the MEDIACONV_ENV environment
// fallback for the logging environment. Empty root and log directories are
// resolved relative to the running executable: the conversion root is the
// parent of the program directory and logs live in a "logs" subdirectory
// beside the binary.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, dotted extensions, and clear validation errors.
package config

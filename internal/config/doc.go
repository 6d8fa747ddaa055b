// Package config loads, normalizes, and validates chime configuration.
//
// Configuration lives in a single TOML file (default
// ~/.config/chime/config.toml). Load applies defaults, expands paths,
// overlays credentials from the environment, and validates the result so the
// rest of the program never reads ambient environment variables directly.
package config

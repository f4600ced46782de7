// Package config loads, normalizes and validates omeforge run configuration.
//
// A configuration describes one export: the plate grid and its fields of view,
// the synthetic planes, where and how to write them, and logging. Files may be
// YAML or TOML; the format is chosen from the extension.
package config

// Package config loads, normalizes, and validates personid configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file next to the config
// file, and expands ${VAR} references in source URLs and headers. The Config
// type centralizes every knob the resolver, the library scanner, and the CLI
// need, including the trust-ordered list of sources.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

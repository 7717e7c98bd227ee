// Package config loads, normalizes, and validates bilidl configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// BILIDL_FFMPEG and BILIDL_PROXY. The Config type centralizes every knob the
// CLI and pipeline need so output directories, request headers, and external
// tool locations are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

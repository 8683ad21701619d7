// Package config loads, normalizes, and validates voicetrans configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// VOICETRANS_API_TOKEN. The Config type centralizes every knob the CLI needs:
// which storage substrate backs the history, how many items it keeps, how the
// quota prober steps through payload sizes, and where the translation API
// lives.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config

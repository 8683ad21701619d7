// Package logging assembles structured slog loggers and formatting helpers used
// across voicetrans packages.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes attribute helpers so components emit the same field
// names. The history, quota, and usage packages never return errors to their
// callers; the warnings they log here are the only record of absorbed
// failures, so prefer WarnWithContext for those paths. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging

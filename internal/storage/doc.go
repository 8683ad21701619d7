// Package storage provides the capacity-limited key/value substrate that
// backs the translation history.
//
// A Substrate stores string values under string keys and refuses any write
// that would push the total stored bytes (len(key)+len(value), summed over
// all entries) beyond its capacity, returning an error wrapping
// ErrQuotaExceeded. The capacity is deliberately not exposed: callers that
// need it discover it by probing (see package quota), the same way a browser
// page has to discover its localStorage limit.
//
// Three backends are available:
//
//   - memory: process-local map, mostly for tests and throwaway sessions
//   - file:   one JSON object on disk, rewritten atomically under a flock
//   - sqlite: a key/value table in a modernc.org/sqlite database
//
// Open selects a backend from configuration.
package storage

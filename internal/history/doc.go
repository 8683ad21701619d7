// Package history keeps a bounded, newest-first record of past transcription
// results on a storage substrate.
//
// The whole collection lives under one substrate key as a JSON array. Store
// operations are best-effort: they never return errors, reporting an Outcome
// instead and logging whatever went wrong. Reads self-heal, so a corrupt
// payload is wiped and malformed items are dropped and written back. Text
// fields are NFC-normalized on the way in and again on the way out.
package history

// Package main hosts the voicetrans CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into translation
// requests, history maintenance, storage usage reports, and configuration
// scaffolding. It centralizes configuration resolution, logger setup, and
// session lifetime so subcommands only render results.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main

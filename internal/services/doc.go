// Package services defines shared utilities consumed by the external service
// clients.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper, so callers can classify
//     failures with errors.Is and map them to CLI exit codes.
//   - Context helpers that carry a correlation identifier into outgoing
//     requests and log lines.
package services

// Package services defines shared utilities consumed by the HTTP handlers and
// the external integrations (chat completion and transcription).
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent HTTP status codes.
//
// Integration clients live in subpackages and report failures through these
// markers so handlers never inspect upstream-specific error types.
package services

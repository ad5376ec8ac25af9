// Package daemon coordinates the long-running ticketdesk server process.
//
// It wires configuration, the document stores, and the chat and
// transcription proxies into a single lifecycle with flock-based locking so
// only one process owns the data directory. The HTTP surface is:
//
//	GET|POST /api/tickets             tickets document
//	GET|POST /api/incidents           legacy incidents document
//	GET      /api/health              liveness and document paths
//	POST     /api/chat                streamed chat completion
//	POST     /api/transcribe-assembly multipart audio transcription
//	GET      /                        static UI bundle, when configured
//
// Keep request handling here; persistence rules live in internal/store and
// upstream protocols in internal/services.
package daemon

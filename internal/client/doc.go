// Package client holds one in-memory state document and keeps a server copy
// of it up to date.
//
// Container is a write-behind cache. Mutations apply synchronously to an
// immutable snapshot, and once the initial Load has completed each mutation
// re-arms a debounce timer. When the timer fires the latest snapshot is sent
// to the Backend with a full-document Replace. A burst of edits inside the
// debounce window therefore produces a single Replace.
//
// Saves are serialized so they reach the backend in the order they fired.
// Close cancels a pending save; Flush performs it immediately.
//
// HTTPBackend talks to the ticketdesk server's /api/<document> endpoint.
package client

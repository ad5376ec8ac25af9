// Package main hosts the ticketdesk CLI entrypoint and command graph.
//
// `ticketdesk serve` runs the HTTP server. Every other data command talks to
// that server over HTTP through the same debounced client container the web
// UI mirrors, so the server stays the only process that writes tickets.json
// and incidents.json. Status, config, backup and logs commands work without a
// running server.
package main

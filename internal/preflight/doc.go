// Package preflight provides readiness checks for the filesystem paths and
// upstream services ticketdesk depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at start and logs failures as warnings. Only
//     the data directory check is fatal, since nothing can be persisted
//     without it.
//   - The CLI "ticketdesk status" command renders every result as a table.
//
// Upstream checks never retry; they report what a single attempt saw.
package preflight

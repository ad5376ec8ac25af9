// Package desk defines the ticket tracker's document model and the pure
// operations over it.
//
// A Document is the single aggregate persisted per layout: students,
// tickets, categories, and UI settings. The package owns the hardcoded
// default document, the layout-aware JSON codec (tickets vs. the legacy
// incidents key), the shallow merge used when loading persisted or template
// data, referential cleanup on student and category deletion, and the
// read-only derived views (filters, sorts, counts, joins).
//
// Nothing here performs I/O. The store and client packages build on these
// functions so both sides of the wire apply the same merge and cleanup
// rules.
package desk

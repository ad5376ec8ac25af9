// Package store persists one state document (tickets or the legacy incidents
// document) as an indented JSON file inside the data directory.
//
// Load reads <dir>/<name>.json and lays it over the default document. When
// the file is missing, empty or unparsable, or the result has no categories,
// the store seeds it from <dir>/<name>.json.template (comments and trailing
// commas allowed) or the default document, and writes the seeded state back
// before returning it. An unparsable file is copied aside first.
// Every write goes through a shared fileutil.AtomicWriter so concurrent
// saves land one at a time and readers never see a torn file.
package store

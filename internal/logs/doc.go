// Package logs reads the server log file for `ticketdesk logs`.
//
// Tail returns the last N lines plus the byte offset where reading stopped;
// Follow polls from that offset and hands new lines to a callback until the
// context ends. A file that shrinks (the log was recreated) is read again from
// the start.
package logs

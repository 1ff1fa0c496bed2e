// Package logs reads narrator's log file for the "narrator logs" command.
//
// Reads are line oriented with bounded memory. Offsets returned by one call
// feed the next so callers can follow a growing file; a file that shrank
// (truncated or replaced) is read again from the start.
package logs

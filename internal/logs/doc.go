// Package logs reads the cifinalize log file for the `logs` command.
//
// Tail returns the last lines with bounded memory and the offset the file
// ended at; Follow polls from that offset and emits new lines until the
// context ends.
package logs

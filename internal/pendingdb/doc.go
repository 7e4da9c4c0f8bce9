// Package pendingdb decodes the pending-install database (cifinish.bin).
//
// The file starts with a 16-byte header (the "CIFINISH" magic, a
// little-endian schema version and a little-endian record count) followed by
// count fixed-size records. Three record layouts have shipped over time; each
// has its own decode routine and all of them produce the canonical Entry.
// Loading is all-or-nothing: any header, version or record problem rejects the
// whole file and no entries are returned.
//
// Encode writes the same layouts and exists for fixtures and host tooling.
package pendingdb

// Package ticket builds ticket blobs from the base template and installs them
// through the console's ticket transaction service.
//
// The template is a fixed 0x350-byte ticket. Only two fields are rewritten per
// title: the big-endian title id at 0x1DC and, for entries decoded from a
// version 1 pending database, the common key index at 0x1F1. Everything else
// is submitted unmodified.
//
// Install drives Begin, Write and Finish for a single title. Any failure after
// a handle was issued aborts the transaction before Install returns, so no
// transaction outlives one call. There are no retries.
package ticket

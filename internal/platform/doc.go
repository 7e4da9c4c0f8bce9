// Package platform defines the console service boundary the finalize engine
// drives.
//
// Every call maps to one console service request (ticket install transaction,
// seed store, title/ticket listing, SD file deletion). Calls report failure as
// a *ResultError carrying the raw 32-bit result code so diagnostics can print
// it in the console's hexadecimal form. Implementations must allow at most one
// open ticket transaction at a time.
package platform

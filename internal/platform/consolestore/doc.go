// Package consolestore emulates the console's ticket, title and seed
// databases in SQLite so finalize runs can target emulator SD images,
// dumped cards and tests.
//
// A Store implements platform.Service. Failures surface as
// *platform.ResultError values carrying the result code the real console
// would report, so the finalize engine cannot tell the two apart.
package consolestore

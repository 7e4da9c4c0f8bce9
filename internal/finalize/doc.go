// Package finalize runs one finalize pass over the pending database.
//
// The pass is strictly sequential: load the pending database, snapshot the
// installed tickets and titles, then for every entry either skip it (already
// satisfied), or install its ticket and, when the entry carries one, its seed.
// After every entry has been handled the pending file is removed unless
// cleanup is disabled.
//
// Failure handling is deliberately asymmetric. A ticket transaction failure
// halts the run immediately: the failing transaction is aborted, no further
// entries are processed and the pending file is kept for a retry. A seed
// failure is logged and the run moves on to the next entry. Load failures
// never touch the console or the pending file.
package finalize

// Package journal persists poll history to a local SQLite database.
//
// The journal is optional bookkeeping: every pass a worker completes is
// recorded with its per-sensor outcome and, for successful acquisitions,
// the reading snapshot as JSON. The history survives restarts and gives
// flaky sensors a paper trail beyond the in-memory counters.
//
// The database runs in WAL mode with a busy timeout so the polling
// workers never block each other on writes.
package journal

// Package store provides the SQLite-backed presence journal.
//
// The journal is append-only:
//   - Events: every event a reader drained from the snapshot's queue
//   - Submissions: every attempt the sync engine made to set the presence,
//     with its outcome
//
// Reads return newest entries first. Timestamps are stored as unix
// milliseconds and returned in UTC.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store

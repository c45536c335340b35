// Package sync moves the learning-tracker document between the local store
// and a remote profile backend.
//
// The engine implements optimistic last-writer-wins synchronization: a push
// reads the remote version counter, increments it, and overwrites the whole
// record; a pull overwrites the whole local document. The version counter
// exists for staleness detection (the scheduler pulls when the remote
// version is ahead of the last known local one), NOT for conflict
// rejection. Two devices pushing concurrently race, and the loser's
// increment is silently discarded on its next read.
//
// That is a deliberate tradeoff for a single-user, low-concurrency personal
// tool: a compare-and-swap scheme would detect multi-device conflicts but
// would also need a resolution UI the application does not have. If true
// concurrent multi-device editing ever matters, revisit Push to reject on a
// changed version instead of overwriting.
//
// Status machine: idle, pulling, pushing, synced, offline, error. Failures
// move to error (or offline when connectivity is known lost) and leave the
// local document in its last-known-good state; nothing retries
// automatically until the scheduler's next attempt.
package sync

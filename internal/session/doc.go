// Package session owns the reconciled page collection for one reading
// session and arbitrates writes to it with a monotonically increasing
// generation token.
//
// Starting a new load increments the generation; any in-flight continuation
// (feed message, fetch resolution, cache write-back) that captured an older
// generation is discarded without mutating shared state. This guards
// against duplicate-start races, such as a UI lifecycle that initializes a
// load twice in quick succession for the same input: only the newest
// generation's pages are ever applied, and a stale load can neither corrupt
// nor close a load a newer generation now owns.
package session

// Package stream ingests the incremental, line-delimited JSON analysis feed
// for one session and reconciles incoming page records into an ordered,
// duplicate-free page collection.
//
// The ingestor runs an explicit state machine
// (idle -> connecting -> streaming -> done|failed) with discriminated frame
// types, rather than a pile of independent flags, so impossible combinations
// are unrepresentable. Transport failures before the first page are retried
// with capped exponential backoff; a feed that dies after at least one page
// has arrived is finalized as-is ("soft success") and never surfaced as an
// error. Malformed frames are dropped and logged without touching session
// state.
package stream

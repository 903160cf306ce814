// Package loader arbitrates, per document, between the local cache, a
// one-shot full fetch, and the incremental analysis stream, deciding what
// backs the reader and when.
//
// Load order: a servable cache record renders immediately with zero network
// calls before first paint; otherwise a full fetch of already-completed
// analysis; otherwise the stream. Successful fetch or stream loads are
// written back to the cache for future fast loads. Every load runs under a
// session generation token, so a duplicate start supersedes the previous
// load instead of racing it.
package loader

// Package api is the HTTP client for the analysis backend: starting an
// analysis session, fetching already-completed layout data in one shot, and
// creating, deleting, and listing stamps.
//
// The incremental feed itself is consumed by the stream package; this
// package only resolves the feed URL handed back by StartAnalysis.
package api

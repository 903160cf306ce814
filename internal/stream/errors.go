package stream

import "errors"

// Ingest errors. Only these two conditions ever reach the caller as errors;
// everything else degrades to the best available data.
var (
	// ErrRetriesExhausted is returned when the feed could not be reached
	// before any page arrived and the retry ceiling was hit. This is the
	// only user-visible blocking failure of the ingest path.
	ErrRetriesExhausted = errors.New("stream: connection retries exhausted before any page arrived")

	// ErrAnalysisFailed is returned when the backend reported an analysis
	// error before any page was produced. With at least one page received
	// the same signal is a soft success instead.
	ErrAnalysisFailed = errors.New("stream: analysis failed before any page arrived")
)

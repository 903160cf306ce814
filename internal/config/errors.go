package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoDocument is returned when no document ID is specified.
	// This error occurs when neither --list nor a positional argument
	// provides a document.
	ErrNoDocument = errors.New("no document specified: provide a document ID or use --list")

	// ErrNoBaseURL is returned when the backend base URL is empty.
	// Every load path except a pure cache hit needs the backend.
	ErrNoBaseURL = errors.New("no backend base URL configured")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	// A timeout of zero or negative would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	// A batch size of zero would mean no concurrent loads, effectively
	// stopping batch processing.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingExportFormats is returned when more than one of --json,
	// --markdown, and --text is specified. Only one output format can be
	// used at a time.
	ErrConflictingExportFormats = errors.New("conflicting export formats: --json, --markdown, and --text cannot be combined")

	// ErrInvalidRetryAttempts is returned when the stream retry attempt
	// count is not positive. At least one connection attempt is required.
	ErrInvalidRetryAttempts = errors.New("invalid retry attempts: must be positive")
)

// Package log provides logging for document loading, built on top of the
// standard slog package.
//
// This package extends slog to provide:
//   - Automatic truncation of oversized attribute values (serialized
//     layouts, flat document text, raw stream frames)
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Truncation
//
// Document loading routinely handles multi-megabyte payloads: a full-fetch
// layout for a long paper can exceed the size of every other log line the
// process will ever emit, combined. The CompactHandler caps every string
// attribute at a fixed length so a debug log of a malformed frame or a
// cache record never floods the terminal or a log aggregator.
//
// # Usage
//
//	// Create a compact logger
//	logger := log.NewCompactLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Debug("dropping malformed frame",
//	    "frame", rawLine, // Truncated if oversized
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log

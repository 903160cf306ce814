package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"unicode/utf8"
)

// DefaultMaxValueLen is the length at which string attribute values are
// truncated. 2KB keeps whole error messages and URLs intact while cutting
// serialized layouts and raw stream frames down to a useful prefix.
const DefaultMaxValueLen = 2048

// CompactHandler wraps an slog.Handler to truncate oversized attribute
// values. It intercepts log records and caps string attributes at a fixed
// length before passing them to the underlying handler.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Call sites stay free of truncation logic; they log the value they
//     have and the handler enforces the cap
type CompactHandler struct {
	// handler is the underlying slog handler that receives capped records.
	handler slog.Handler

	// maxValueLen is the maximum string attribute length in bytes.
	maxValueLen int
}

// CompactHandlerOption configures a CompactHandler.
type CompactHandlerOption func(*CompactHandler)

// WithMaxValueLen overrides the truncation length. Values below 16 bytes
// are ignored to keep the truncation marker itself representable.
func WithMaxValueLen(n int) CompactHandlerOption {
	return func(h *CompactHandler) {
		if n >= 16 {
			h.maxValueLen = n
		}
	}
}

// NewCompactHandler creates a new CompactHandler wrapping the given handler.
// If handler is nil, the returned CompactHandler uses slog.Default().Handler().
func NewCompactHandler(handler slog.Handler, opts ...CompactHandlerOption) *CompactHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	h := &CompactHandler{
		handler:     handler,
		maxValueLen: DefaultMaxValueLen,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *CompactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle caps the record's attributes and passes it to the underlying handler.
func (h *CompactHandler) Handle(ctx context.Context, r slog.Record) error {
	capped := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		capped.AddAttrs(h.capAttr(a))
		return true
	})

	return h.handler.Handle(ctx, capped)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are capped before being added.
func (h *CompactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cappedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		cappedAttrs[i] = h.capAttr(a)
	}
	return &CompactHandler{handler: h.handler.WithAttrs(cappedAttrs), maxValueLen: h.maxValueLen}
}

// WithGroup returns a new handler with the given group name.
func (h *CompactHandler) WithGroup(name string) slog.Handler {
	return &CompactHandler{handler: h.handler.WithGroup(name), maxValueLen: h.maxValueLen}
}

// capAttr caps a single attribute, recursively handling groups.
func (h *CompactHandler) capAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		cappedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			cappedAttrs[i] = h.capAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(cappedAttrs...)}
	}

	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		if len(strVal) > h.maxValueLen {
			return slog.String(a.Key, truncate(strVal, h.maxValueLen))
		}
	}

	return a
}

// truncate cuts s to at most maxLen bytes on a rune boundary and appends a
// marker noting how much was dropped.
func truncate(s string, maxLen int) string {
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return fmt.Sprintf("%s...(%d bytes truncated)", s[:cut], len(s)-cut)
}

// NewCompactLogger creates a new slog.Logger with value truncation.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
//
// Returns a *slog.Logger that can be used with slog.SetDefault() or passed
// to components that accept *slog.Logger.
func NewCompactLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)
	return slog.New(NewCompactHandler(textHandler))
}

// NewCompactJSONLogger creates a new slog.Logger with value truncation
// that outputs JSON format. Useful for structured log aggregation.
//
// Parameters:
//   - w: The io.Writer to write log output to
//   - verbose: If true, sets log level to Debug; otherwise Warn
//
// Returns a *slog.Logger configured for JSON output with truncation.
func NewCompactJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	jsonHandler := slog.NewJSONHandler(w, opts)
	return slog.New(NewCompactHandler(jsonHandler))
}

// Package layout converts a page's flat bag of word bounding boxes into
// column-aware, reading-order lines.
//
// The grouping is a heuristic, not a guarantee of visual correctness for
// exotic layouts such as rotated text or dense multi-column academic pages.
// Callers must treat the result as best-effort.
package layout

package export

import (
	"io"
	"time"

	"github.com/hayathine/paperterrace/internal/model"
)

// Document is everything a writer needs to export one loaded document.
//
// Design decision: We assemble an export-specific struct rather than
// passing the loader result directly because this keeps the export
// package free of load-path concerns and lets callers export documents
// assembled from any source.
type Document struct {
	// DocumentID identifies the document.
	DocumentID string `json:"document_id"`

	// Title is the document title, if known.
	Title string `json:"title,omitempty"`

	// ContentHash locates the rendered page images.
	ContentHash string `json:"content_hash"`

	// Source names the load path that produced the pages
	// (cache, fetch, or stream).
	Source string `json:"source"`

	// Partial marks a soft-success load: usable but incomplete.
	Partial bool `json:"partial"`

	// ExportedAt is when the export was produced.
	ExportedAt time.Time `json:"exported_at"`

	// Pages is the reconciled page collection, page_num ascending.
	Pages []*model.Page `json:"pages"`

	// Stamps are the document's stamps, if any were loaded.
	Stamps []model.Stamp `json:"stamps,omitempty"`
}

// DisplayTitle returns the title, or the document ID when no title is known.
func (d *Document) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return d.DocumentID
}

// WordCount returns the total recognized word count across all pages.
func (d *Document) WordCount() int {
	var n int
	for _, p := range d.Pages {
		n += len(p.Words)
	}
	return n
}

// Writer defines the interface for export output.
// Implementations write documents in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the document to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(doc *Document) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write documents, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the document to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(doc *Document) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(doc)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for export writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

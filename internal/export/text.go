package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/hayathine/paperterrace/internal/layout"
	"github.com/hayathine/paperterrace/internal/model"
)

// TextWriter outputs documents as reading-order plain text.
// This format is designed for terminal display and piping to other tools.
//
// Design decision: We reconstruct text from word layout via line grouping
// rather than dumping the raw word stream because the word stream
// interleaves columns on multi-column pages. The backend's flat content
// string is the fallback for pages without word geometry.
type TextWriter struct {
	baseWriter

	// withHeader prepends a document header before the page text.
	withHeader bool

	// pageBreaks separates pages with a marker line.
	pageBreaks bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithHeader prepends a document summary header to the output.
func WithHeader(show bool) TextWriterOption {
	return func(w *TextWriter) {
		w.withHeader = show
	}
}

// WithPageBreaks separates pages with a numbered marker line.
func WithPageBreaks(show bool) TextWriterOption {
	return func(w *TextWriter) {
		w.pageBreaks = show
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the document as plain text.
func (w *TextWriter) Write(doc *Document) (int, error) {
	var sb strings.Builder

	if w.withHeader {
		w.writeHeader(&sb, doc)
	}

	for i, page := range doc.Pages {
		if w.pageBreaks && i > 0 {
			sb.WriteString("\n")
		}
		if w.pageBreaks {
			sb.WriteString(fmt.Sprintf("--- page %d ---\n", page.PageNum))
		}
		w.writePage(&sb, page)
	}

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the document summary header.
func (w *TextWriter) writeHeader(sb *strings.Builder, doc *Document) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(doc.DisplayTitle())
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Document ID: %s\n", doc.DocumentID))
	sb.WriteString(fmt.Sprintf("Pages:       %d\n", len(doc.Pages)))
	sb.WriteString(fmt.Sprintf("Words:       %d\n", doc.WordCount()))
	if doc.Partial {
		sb.WriteString("Status:      PARTIAL (analysis did not complete)\n")
	}
	sb.WriteString("\n")
}

// writePage writes one page in reading order.
func (w *TextWriter) writePage(sb *strings.Builder, page *model.Page) {
	lines := layout.GroupPage(page)
	if len(lines) == 0 {
		// No word geometry; fall back to the backend's flat content.
		if page.Content != "" {
			sb.WriteString(page.Content)
			sb.WriteString("\n")
		}
		return
	}

	for _, line := range lines {
		sb.WriteString(line.Text())
		sb.WriteString("\n")
	}
}

package export

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/hayathine/paperterrace/internal/layout"
	"github.com/hayathine/paperterrace/internal/model"
)

// MarkdownWriter outputs documents in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the document in Markdown format.
func (w *MarkdownWriter) Write(doc *Document) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, doc)
	w.writeStamps(md, doc)
	w.writePages(md, doc)

	return len(md.String()), md.Build()
}

// writeHeader writes the document header with load information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, doc *Document) {
	md.H1(doc.DisplayTitle())
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Document ID", "`" + doc.DocumentID + "`"},
			{"Content Hash", "`" + doc.ContentHash + "`"},
			{"Source", doc.Source},
			{"Exported", doc.ExportedAt.Format("2006-01-02 15:04:05 MST")},
			{"Pages", strconv.Itoa(len(doc.Pages))},
			{"Words", strconv.Itoa(doc.WordCount())},
		},
	})
	md.PlainText("")

	if doc.Partial {
		md.Warningf("Analysis did not complete; this export covers the %d page(s) received before the failure.", len(doc.Pages))
		md.PlainText("")
	}
}

// writeStamps writes the stamp table, if the document has stamps.
func (w *MarkdownWriter) writeStamps(md *markdown.Markdown, doc *Document) {
	if len(doc.Stamps) == 0 {
		return
	}

	md.H2("Stamps")
	md.PlainText("")

	rows := make([][]string, len(doc.Stamps))
	for i, s := range doc.Stamps {
		rows[i] = []string{
			strconv.Itoa(s.PageNum),
			s.Type,
			formatCoord(s.X) + ", " + formatCoord(s.Y),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Page", "Type", "Position"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writePages writes every page's text in reading order.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, doc *Document) {
	for _, page := range doc.Pages {
		md.H2("Page " + strconv.Itoa(page.PageNum))
		md.PlainText("")

		lines := layout.GroupPage(page)
		if len(lines) == 0 {
			if page.Content != "" {
				md.PlainText(page.Content)
			}
			md.PlainText("")
			w.writeFigures(md, page)
			continue
		}

		for _, line := range lines {
			md.PlainText(line.Text())
		}
		md.PlainText("")
		w.writeFigures(md, page)
	}
}

// writeFigures lists a page's figures, if any.
func (w *MarkdownWriter) writeFigures(md *markdown.Markdown, page *model.Page) {
	if len(page.Figures) == 0 {
		return
	}

	captions := make([]string, 0, len(page.Figures))
	for i, f := range page.Figures {
		caption := f.Caption
		if caption == "" {
			caption = "Figure " + strconv.Itoa(i+1)
		}
		captions = append(captions, caption)
	}
	md.PlainText("### Figures")
	md.PlainText("")
	md.BulletList(captions...)
	md.PlainText("")
}

// formatCoord renders a normalized coordinate with fixed precision.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// Package export writes loaded documents to external formats.
//
// This package contains writers for different output formats:
//   - TextWriter: Reading-order plain text for terminal display and piping
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown for documentation and sharing
//
// Design decision: We separate export writing from the document data
// structures (which are in the model package) to follow the single
// responsibility principle. This allows adding new output formats without
// modifying the core data structures.
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package export

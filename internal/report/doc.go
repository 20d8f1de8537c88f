// Package report renders the state store and run summaries.
//
// This package contains writers for different output formats:
//   - TextWriter: human-readable text output for terminal display
//   - MarkdownWriter: Markdown for sharing, with a file-state chart
//   - JSONWriter: structured JSON output for tool integration
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report

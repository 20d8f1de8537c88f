// Package model defines the data structures shared across pdfharvest.
//
// This package contains the following main types:
//   - DocumentRecord: a listing entry discovered by the crawler
//   - Document, File, ExtractedTable: rows of the state store
//   - Table: a ragged row-major grid of cells
//   - RunReport: the result of one pipeline invocation
//   - Status: a snapshot of the state store for reporting
//
// Optional fields are pointers; nil means the value is absent. Cross-entity
// navigation (file to document) goes through identifiers, never through
// in-memory references.
package model

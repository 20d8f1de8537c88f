// Package main provides the entry point for the pdfharvest CLI.
//
// pdfharvest crawls press-release listing pages, downloads the linked PDFs
// into a content-addressed store, extracts their text and first table, and
// records progress in SQLite so an interrupted run resumes where it stopped.
//
// Usage:
//
//	pdfharvest run [seed-url...]
//	pdfharvest status
//	pdfharvest ask "what was the CPI inflation in May?"
//
// See --help for all available options.
package main

func main() {
	Execute()
}

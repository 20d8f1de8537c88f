// Package pipeline drives a harvest run as a sequence of steps.
//
// The standard run creates the schema, crawls the listing seeds and
// persists the documents and file links found, then processes pending files
// one by one: download, text and table extraction, text mirroring, and
// indexing. A file is marked processed only after all of that succeeded, so
// an interrupted run leaves unfinished files for the next one.
//
// Seeds may be crawled concurrently using errgroup; everything that writes
// to the state store runs sequentially.
package pipeline

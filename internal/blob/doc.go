// Package blob handles content addressing and the on-disk layout of
// downloaded files.
//
// File names are derived from download URLs with Sanitize, and file
// identity is the SHA-256 of the bytes (HashFile). Store places raw PDFs
// and their mirrored plain text in two sibling directories and writes raw
// files atomically.
package blob

package model

import "time"

// FileTypePDF is the only file type the pipeline produces.
const FileTypePDF = "pdf"

// File is a stored PDF artifact with its processing state.
//
// The state only moves forward: (downloaded=false, processed=false) →
// (true, false) → (true, true). Path and Hash are set together with
// Downloaded.
type File struct {
	ID         int64     `json:"id"`
	URL        string    `json:"file_url"`
	Path       *string   `json:"file_path,omitempty"`
	Hash       *string   `json:"file_hash,omitempty"`
	DocumentID *int64    `json:"document_id,omitempty"`
	Downloaded bool      `json:"downloaded"`
	Processed  bool      `json:"processed"`
	FileType   *string   `json:"file_type,omitempty"`
	Pages      *int      `json:"pages,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// State returns the processing state as a short label.
func (f File) State() string {
	switch {
	case f.Processed:
		return "processed"
	case f.Downloaded:
		return "downloaded"
	default:
		return "pending"
	}
}

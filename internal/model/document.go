package model

import "time"

// Ptr returns a pointer to v. Optional record fields are pointers, and nil
// means "absent".
func Ptr[T any](v T) *T {
	return &v
}

// Deref returns the pointed-to value or the zero value when p is nil.
func Deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// DocumentRecord is a listing entry as discovered by the crawler.
// It is a transient value; the persisted form is Document.
type DocumentRecord struct {
	// URL is the unique key of the document.
	URL string `json:"url"`

	// ListingURL is the listing page the entry was found on.
	ListingURL string `json:"listing_url,omitempty"`

	// Title is the anchor text, or the PDF file name when the anchor is empty.
	Title *string `json:"title,omitempty"`

	// DatePublished is an ISO-8601 date (YYYY-MM-DD) or absent.
	DatePublished *string `json:"date_published,omitempty"`

	// Summary is never populated by the listing crawler.
	Summary *string `json:"summary,omitempty"`

	// Category is the fixed category tag.
	Category *string `json:"category,omitempty"`

	// FileLinks are the absolute URLs of the PDFs of this entry.
	FileLinks []string `json:"file_links"`
}

// FirstFileLink returns the first file link or an empty string.
func (d DocumentRecord) FirstFileLink() string {
	if len(d.FileLinks) == 0 {
		return ""
	}
	return d.FileLinks[0]
}

// Document is a stored listing entry.
type Document struct {
	ID            int64     `json:"id"`
	URL           string    `json:"url"`
	Title         *string   `json:"title,omitempty"`
	DatePublished *string   `json:"date_published,omitempty"`
	Summary       *string   `json:"summary,omitempty"`
	Category      *string   `json:"category,omitempty"`
	DocHash       *string   `json:"doc_hash,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

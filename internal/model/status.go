package model

import "time"

// StoreStats holds row counts of the state store.
type StoreStats struct {
	Documents  int `json:"documents"`
	Files      int `json:"files"`
	Downloaded int `json:"downloaded"`
	Processed  int `json:"processed"`
	Tables     int `json:"tables"`
}

// Pending returns the number of files not yet processed.
func (s StoreStats) Pending() int {
	return s.Files - s.Processed
}

// Status is a snapshot of the state store used for the status report.
type Status struct {
	GeneratedAt     time.Time  `json:"generated_at"`
	DataDir         string     `json:"data_dir"`
	Stats           StoreStats `json:"stats"`
	PendingFiles    []File     `json:"pending_files"`
	RecentDocuments []Document `json:"recent_documents"`
}

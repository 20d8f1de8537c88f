package model

import "time"

// Outcome labels for a processed file.
const (
	OutcomeProcessed = "processed"
	OutcomeFailed    = "failed"
)

// FileOutcome records what happened to one file during a run.
type FileOutcome struct {
	FileID   int64  `json:"file_id"`
	FileURL  string `json:"file_url"`
	FilePath string `json:"file_path,omitempty"`
	Status   string `json:"status"`
	Pages    *int   `json:"pages,omitempty"`
	// TableRows is the row count of the stored table, zero when none was found.
	TableRows int    `json:"table_rows,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RunReport is the result of one pipeline invocation.
// Steps append to it as they run.
type RunReport struct {
	// RunID identifies the invocation in log lines.
	RunID string `json:"run_id"`

	// Seeds are the listing pages crawled in this run.
	Seeds []string `json:"seeds"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Documents are the deduplicated records discovered by the crawl.
	Documents []DocumentRecord `json:"documents"`

	// DocumentsStored counts successful document upserts.
	DocumentsStored int `json:"documents_stored"`

	// FilesRegistered counts successful file registrations.
	FilesRegistered int `json:"files_registered"`

	// ListingPages and ListingPagesFailed count the listing pages fetched
	// and failed during discovery. Both stay zero when the crawler keeps
	// no statistics.
	ListingPages       int `json:"listing_pages"`
	ListingPagesFailed int `json:"listing_pages_failed"`

	// Outcomes lists every file handled by the processing step, in order.
	Outcomes []FileOutcome `json:"outcomes"`

	// PerformedSteps lists the names of the steps that ran.
	PerformedSteps []string `json:"performed_steps"`

	// Cancelled is true when the run stopped because its context ended.
	Cancelled bool `json:"cancelled"`

	// Error is the error that stopped the run, if any.
	Error        error  `json:"-"`
	ErrorMessage string `json:"error,omitempty"`
}

// NewRunReport creates a RunReport for the given seeds.
func NewRunReport(runID string, seeds []string) *RunReport {
	return &RunReport{
		RunID:          runID,
		Seeds:          append([]string(nil), seeds...),
		StartedAt:      time.Now(),
		Documents:      make([]DocumentRecord, 0),
		Outcomes:       make([]FileOutcome, 0),
		PerformedSteps: make([]string, 0),
	}
}

// AddOutcome appends a file outcome.
func (r *RunReport) AddOutcome(o FileOutcome) {
	r.Outcomes = append(r.Outcomes, o)
}

// ProcessedCount returns the number of files processed successfully.
func (r *RunReport) ProcessedCount() int {
	return r.countStatus(OutcomeProcessed)
}

// FailedCount returns the number of files that failed.
func (r *RunReport) FailedCount() int {
	return r.countStatus(OutcomeFailed)
}

func (r *RunReport) countStatus(status string) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

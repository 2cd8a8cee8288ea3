package models

import "time"

// Run kinds recorded in the journal.
const (
	RunKindArchive = "archive"
	RunKindUpload  = "upload"
	RunKindClean   = "clean"
)

// RunSummary describes one completed engine run. Processed counts the
// messages downloaded, files uploaded or messages deleted, depending on Kind.
type RunSummary struct {
	ID          string    `db:"id"`
	Kind        string    `db:"kind"`
	Folder      string    `db:"folder"`
	Total       int       `db:"total"`
	Processed   int       `db:"processed"`
	Skipped     int       `db:"skipped"`
	Errors      int       `db:"errors"`
	Attachments int       `db:"attachments"`
	Bytes       int64     `db:"bytes"`
	DryRun      bool      `db:"dry_run"`
	StartedAt   time.Time `db:"started_at"`
	FinishedAt  time.Time `db:"finished_at"`
}

// Duration returns how long the run took.
func (r RunSummary) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

package models

import "time"

// Import job statuses. Transitions form the DAG
// PENDING -> PROCESSING -> {COMPLETED, FAILED}; nothing else is legal.
const (
	JobStatusPending    = "PENDING"
	JobStatusProcessing = "PROCESSING"
	JobStatusCompleted  = "COMPLETED"
	JobStatusFailed     = "FAILED"
)

// ImportError is one entry of a job's error report. Row errors carry Row and
// Error; the single global error appended on FAILED carries GlobalError and
// Trace instead.
type ImportError struct {
	Row         int    `json:"row,omitempty"`
	Error       string `json:"error,omitempty"`
	GlobalError string `json:"global_error,omitempty"`
	Trace       string `json:"trace,omitempty"`
}

// ImportJob tracks one background CSV import.
type ImportJob struct {
	ID            int64         `json:"id"`
	Status        string        `json:"status"`
	TotalRows     int           `json:"total_rows"`
	ProcessedRows int           `json:"processed_rows"`
	SuccessRows   int           `json:"success_rows"`
	FailedRows    int           `json:"failed_rows"`
	ErrorReport   []ImportError `json:"error_report"`
	CreatedAt     time.Time     `json:"created_at"`
	StartedAt     *time.Time    `json:"started_at,omitempty"`
	FinishedAt    *time.Time    `json:"finished_at,omitempty"`
}

// IsTerminal reports whether the job has reached a final state.
func (j *ImportJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

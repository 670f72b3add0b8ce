package models

import "time"

// Scan kinds. The kind decides which external tool runs and which result
// table the job's rows land in.
const (
	KindSubdomain = "SUBDOMAIN"
	KindPort      = "PORT"
	KindPath      = "PATH"
)

// Job statuses. Transitions are monotone: Pending -> Running -> Completed or
// Error. A terminal job never changes status again.
const (
	StatusPending   = "Pending"
	StatusRunning   = "Running"
	StatusCompleted = "Completed"
	StatusError     = "Error"
)

func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusError
}

func IsValidKind(kind string) bool {
	return kind == KindSubdomain || kind == KindPort || kind == KindPath
}

// ScanJob is one unit of asynchronous scan work. TaskID doubles as the
// dispatch queue job id so callers can correlate status by the id they got
// at submission time.
type ScanJob struct {
	TaskID       string     `gorm:"primaryKey;type:varchar(36)" json:"task_id"`
	Target       string     `json:"target"`
	Kind         string     `gorm:"index;type:varchar(10)" json:"kind"`
	Status       string     `gorm:"type:varchar(10)" json:"status"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	FromJobID    string     `gorm:"index;type:varchar(36)" json:"from_job_id,omitempty"`
	IsRead       bool       `json:"is_read"`
}

// JobSummary is the shape returned by the all_tasks listing.
type JobSummary struct {
	TaskID      string `json:"task_id"`
	Target      string `json:"target"`
	Status      string `json:"status"`
	ResultCount int64  `json:"result_count"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time,omitempty"`
	From        string `json:"from,omitempty"`
	IsRead      bool   `json:"is_read"`
}

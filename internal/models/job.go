package models

import "time"

// JobStatus is the lifecycle state of a diagnostic job as reported by the engine.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// statusRank orders statuses along the pending -> processing -> terminal path.
// Unknown statuses rank below pending so they never overwrite known progress.
var statusRank = map[JobStatus]int{
	JobPending:    1,
	JobProcessing: 2,
	JobCompleted:  3,
	JobFailed:     3,
}

// Terminal reports whether the status can no longer change.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Regresses reports whether moving from s to next would walk the lifecycle
// backwards. Equal-rank transitions are not regressions.
func (s JobStatus) Regresses(next JobStatus) bool {
	return statusRank[next] < statusRank[s]
}

// Job is one tracked unit of asynchronous diagnostic work.
type Job struct {
	ID          string            `json:"job_id"`
	Status      JobStatus         `json:"status"`
	SubmittedAt *time.Time        `json:"submitted_at,omitempty"`
	Result      *DiagnosticResult `json:"result,omitempty"`
}

// JobResponse is the engine's reply to both job submission and job status
// requests. It carries the same shape either way.
type JobResponse struct {
	JobID       string            `json:"job_id"`
	Status      JobStatus         `json:"status"`
	SubmittedAt *time.Time        `json:"submitted_at,omitempty"`
	Result      *DiagnosticResult `json:"result,omitempty"`
}

// Job converts the wire response into the tracked job value.
func (r *JobResponse) Job() *Job {
	return &Job{
		ID:          r.JobID,
		Status:      r.Status,
		SubmittedAt: r.SubmittedAt,
		Result:      r.Result,
	}
}

package models

// JobStatus is the state of an asynchronous batch job on the jobs service.
type JobStatus string

// Job status values reported by the jobs service.
const (
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusActive    JobStatus = "active"
)

// Terminal reports whether the status ends the job's lifecycle.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// JobStatusResponse is the jobs-service status lookup payload.
type JobStatusResponse struct {
	Status JobStatus `json:"status"`
}

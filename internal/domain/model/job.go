package model

import "time"

type JobState string

const (
	JobStopped  JobState = "stopped"
	JobRunning  JobState = "running"
	JobDegraded JobState = "degraded"
)

// JobStatus is a read-only view of the periodic aggregation job.
type JobStatus struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Trigger   string     `json:"trigger"`
	State     JobState   `json:"scheduler_state"`
	Running   bool       `json:"running"`
	InFlight  bool       `json:"in_flight"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	Skipped   int64      `json:"skipped_fires"`
}

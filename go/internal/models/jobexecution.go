package models

import (
	"encoding/json"
	"time"
)

// JobExecution records one run of a scheduled or manually triggered job.
// Immutable once written; lives only in the monitor's in-memory ring buffer.
type JobExecution struct {
	JobName    string        `json:"job_name"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"-"`
	Success    bool          `json:"success"`
	Error      string        `json:"error,omitempty"`
	Result     any           `json:"result,omitempty"`
}

// MarshalJSON reports the duration in milliseconds. time.Duration's native
// integer form is nanoseconds, which would be misleading under a _ms key in
// history and alert payloads.
func (e JobExecution) MarshalJSON() ([]byte, error) {
	type plain JobExecution
	return json.Marshal(struct {
		plain
		DurationMs float64 `json:"duration_ms"`
	}{plain(e), float64(e.Duration.Microseconds()) / 1e3})
}

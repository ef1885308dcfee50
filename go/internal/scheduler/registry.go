package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/penelopespawprint/reality-games-survivor/go/internal/models"
)

// JobKind distinguishes recurring cron triggers from one-time deadline
// triggers.
type JobKind string

const (
	JobKindRecurring JobKind = "RECURRING"
	JobKindOneTime   JobKind = "ONE_TIME"
)

// DeadlineFunc derives a one-time job's fire instant from the active season.
type DeadlineFunc func(season models.Season) time.Time

// Job describes one schedulable action. One-time jobs are recomputed, never
// mutated in place: when the source deadline moves, the scheduler cancels the
// armed timer and arms a fresh one.
type Job struct {
	Name     string
	Kind     JobKind
	Spec     string       // cron expression, recurring jobs only
	Deadline DeadlineFunc // one-time jobs only
	Action   JobFunc
	Enabled  bool
}

type jobState struct {
	job       Job
	lastRun   time.Time
	lastError string
	lastOK    *bool
}

// JobStatus is the externally visible snapshot of one registered job.
type JobStatus struct {
	Name      string     `json:"name"`
	Kind      JobKind    `json:"kind"`
	Spec      string     `json:"spec,omitempty"`
	Enabled   bool       `json:"enabled"`
	ArmedFor  *time.Time `json:"armed_for,omitempty"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	LastOK    *bool      `json:"last_ok,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// Registry holds the job dispatch table, built once at startup from a static
// list of name→handler entries.
type Registry struct {
	mu    sync.RWMutex
	jobs  map[string]*jobState
	order []string
}

// NewRegistry creates an empty job registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*jobState)}
}

// Add registers a job. Duplicate names are a wiring bug.
func (r *Registry) Add(job Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.Name]; exists {
		return fmt.Errorf("job %q already registered", job.Name)
	}
	r.jobs[job.Name] = &jobState{job: job}
	r.order = append(r.order, job.Name)
	return nil
}

// Get returns the job by name.
func (r *Registry) Get(name string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.jobs[name]
	if !ok {
		return Job{}, false
	}
	return st.job, true
}

// OneTimeJobs returns the registered one-time jobs in registration order.
func (r *Registry) OneTimeJobs() []Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Job
	for _, name := range r.order {
		if st := r.jobs[name]; st.job.Kind == JobKindOneTime {
			out = append(out, st.job)
		}
	}
	return out
}

// RecordRun stores a job's last outcome for status reporting.
func (r *Registry) RecordRun(name string, at time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.jobs[name]
	if !ok {
		return
	}
	st.lastRun = at
	ok2 := err == nil
	st.lastOK = &ok2
	if err != nil {
		st.lastError = err.Error()
	} else {
		st.lastError = ""
	}
}

// Snapshot returns the status of every registered job in registration order.
// armedFor supplies each one-time job's armed fire time, if any.
func (r *Registry) Snapshot(armedFor map[string]time.Time) []JobStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]JobStatus, 0, len(r.order))
	for _, name := range r.order {
		st := r.jobs[name]
		js := JobStatus{
			Name:      name,
			Kind:      st.job.Kind,
			Spec:      st.job.Spec,
			Enabled:   st.job.Enabled,
			LastOK:    st.lastOK,
			LastError: st.lastError,
		}
		if !st.lastRun.IsZero() {
			lr := st.lastRun
			js.LastRun = &lr
		}
		if at, ok := armedFor[name]; ok {
			at := at
			js.ArmedFor = &at
		}
		out = append(out, js)
	}
	return out
}

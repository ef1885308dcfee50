package scheduler

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/penelopespawprint/reality-games-survivor/go/internal/models"
)

const (
	// historyCapacity bounds the execution ring buffer; oldest entries are
	// evicted first. History is an observability aid, not a source of truth,
	// so it is process-local and unpersisted.
	historyCapacity = 100

	// recentFailuresCap bounds the failure list returned by Stats.
	recentFailuresCap = 10
)

// JobFunc is a monitored action. The result payload lands in the execution
// record; the error marks the run failed.
type JobFunc func(ctx context.Context) (any, error)

// AlertFunc is the best-effort failure hook. It is invoked asynchronously and
// its errors are swallowed so a broken alert channel cannot compound a job
// failure.
type AlertFunc func(exec models.JobExecution) error

// Monitor wraps job executions with start/end/outcome recording without
// altering their success or failure semantics.
type Monitor struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	alert   AlertFunc
	history []models.JobExecution
}

// NewMonitor creates a job monitor. alert may be nil.
func NewMonitor(clock clockwork.Clock, alert AlertFunc) *Monitor {
	return &Monitor{
		clock: clock,
		alert: alert,
	}
}

// Run invokes action and records the execution. It returns exactly what the
// action returned; monitoring is transparent to the caller's control flow.
func (m *Monitor) Run(ctx context.Context, jobName string, action JobFunc) (any, error) {
	start := m.clock.Now()
	result, err := action(ctx)
	end := m.clock.Now()

	exec := models.JobExecution{
		JobName:    jobName,
		StartedAt:  start,
		FinishedAt: end,
		Duration:   end.Sub(start),
		Success:    err == nil,
		Result:     result,
	}
	if err != nil {
		exec.Error = err.Error()
	}

	m.mu.Lock()
	m.history = append(m.history, exec)
	if len(m.history) > historyCapacity {
		m.history = m.history[len(m.history)-historyCapacity:]
	}
	m.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Str("job", jobName).Dur("duration", exec.Duration).Msg("job failed")
		m.dispatchAlert(exec)
	} else {
		log.Info().Str("job", jobName).Dur("duration", exec.Duration).Msg("job completed")
	}

	return result, err
}

// dispatchAlert notifies the failure hook in the background. Alert errors are
// logged and dropped.
func (m *Monitor) dispatchAlert(exec models.JobExecution) {
	if m.alert == nil {
		return
	}
	go func() {
		if err := m.alert(exec); err != nil {
			log.Warn().Err(err).Str("job", exec.JobName).Msg("job failure alert could not be delivered")
		}
	}()
}

// Stats summarizes executions from the ring buffer. An empty jobName covers
// every job.
type Stats struct {
	TotalExecutions int                  `json:"total_executions"`
	Successes       int                  `json:"successes"`
	Failures        int                  `json:"failures"`
	SuccessRate     float64              `json:"success_rate"`
	AvgDurationMs   float64              `json:"avg_duration_ms"`
	LastExecution   *models.JobExecution `json:"last_execution,omitempty"`
	RecentFailures  []models.JobExecution `json:"recent_failures,omitempty"`
}

// GetJobStats computes statistics over the retained executions.
func (m *Monitor) GetJobStats(jobName string) Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stats Stats
	var totalDuration float64
	for i := range m.history {
		exec := m.history[i]
		if jobName != "" && exec.JobName != jobName {
			continue
		}
		stats.TotalExecutions++
		totalDuration += float64(exec.Duration.Milliseconds())
		if exec.Success {
			stats.Successes++
		} else {
			stats.Failures++
		}
		execCopy := exec
		stats.LastExecution = &execCopy
	}
	if stats.TotalExecutions > 0 {
		stats.SuccessRate = float64(stats.Successes) / float64(stats.TotalExecutions) * 100
		stats.AvgDurationMs = totalDuration / float64(stats.TotalExecutions)
	}

	// Newest-first failures, capped.
	for i := len(m.history) - 1; i >= 0 && len(stats.RecentFailures) < recentFailuresCap; i-- {
		exec := m.history[i]
		if exec.Success || (jobName != "" && exec.JobName != jobName) {
			continue
		}
		stats.RecentFailures = append(stats.RecentFailures, exec)
	}
	return stats
}

// GetJobHistory returns retained executions newest-first, optionally filtered
// by job name and capped at limit.
func (m *Monitor) GetJobHistory(limit int, jobName string) []models.JobExecution {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		return nil
	}
	out := make([]models.JobExecution, 0, min(limit, len(m.history)))
	for i := len(m.history) - 1; i >= 0 && len(out) < limit; i-- {
		exec := m.history[i]
		if jobName != "" && exec.JobName != jobName {
			continue
		}
		out = append(out, exec)
	}
	return out
}

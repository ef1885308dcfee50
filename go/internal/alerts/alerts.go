package alerts

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/penelopespawprint/reality-games-survivor/go/internal/models"
)

// Publisher delivers job-failure alerts to the ops channel over NATS. It is
// best effort: the job monitor calls it asynchronously and swallows errors.
type Publisher struct {
	conn          *nats.Conn
	subjectPrefix string
}

// NewPublisher creates an alert publisher on an established NATS connection.
func NewPublisher(conn *nats.Conn, subjectPrefix string) *Publisher {
	return &Publisher{
		conn:          conn,
		subjectPrefix: subjectPrefix,
	}
}

// AlertJobFailure publishes the failed execution record. Its signature
// matches the monitor's alert hook.
func (p *Publisher) AlertJobFailure(exec models.JobExecution) error {
	subject := fmt.Sprintf("%s.alerts.job_failure", p.subjectPrefix)

	envelope := map[string]any{
		"eventType": "job_failure",
		"timestamp": time.Now().UTC(),
		"payload":   exec,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal job failure alert: %w", err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish job failure alert: %w", err)
	}
	return nil
}

// LogAlert is the fallback alert hook when no broker is configured.
func LogAlert(exec models.JobExecution) error {
	log.Error().
		Str("job", exec.JobName).
		Str("error", exec.Error).
		Time("started_at", exec.StartedAt).
		Msg("ALERT: job failed")
	return nil
}

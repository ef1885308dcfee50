package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/penelopespawprint/reality-games-survivor/go/internal/draft/pick"
)

// NATSDispatcher publishes notification events to NATS subjects. The
// notification service subscribes and does the rendering and provider calls.
type NATSDispatcher struct {
	conn          *nats.Conn
	subjectPrefix string
}

// NewNATSDispatcher creates a dispatcher on an established NATS connection.
func NewNATSDispatcher(conn *nats.Conn, subjectPrefix string) *NATSDispatcher {
	return &NATSDispatcher{
		conn:          conn,
		subjectPrefix: subjectPrefix,
	}
}

func (d *NATSDispatcher) PickConfirmed(ctx context.Context, c pick.PickConfirmation) error {
	return d.publish("pick_confirmed", c)
}

func (d *NATSDispatcher) DraftCompleted(ctx context.Context, c pick.DraftCompletion) error {
	return d.publish("draft_completed", c)
}

func (d *NATSDispatcher) publish(eventType string, payload any) error {
	subject := fmt.Sprintf("%s.notify.%s", d.subjectPrefix, eventType)

	envelope := map[string]any{
		"eventType": eventType,
		"timestamp": time.Now().UTC(),
		"payload":   payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	if err := d.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", eventType, subject, err)
	}
	return nil
}

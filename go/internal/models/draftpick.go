package models

import (
	"time"

	"github.com/google/uuid"
)

// AcquiredVia records how a pick entered a roster.
type AcquiredVia string

const (
	AcquiredViaDraft     AcquiredVia = "DRAFT"
	AcquiredViaAutoDraft AcquiredVia = "AUTO_DRAFT"
)

// DraftPick represents a single committed pick in a league's draft.
// PickNumber is 0-based and globally monotonic within the league; Round and
// the picker are always derivable from PickNumber and the draft order, Round
// is stored for display only.
type DraftPick struct {
	ID             uuid.UUID   `json:"id"`
	LeagueID       uuid.UUID   `json:"league_id"`
	UserID         uuid.UUID   `json:"user_id"`
	CastawayID     uuid.UUID   `json:"castaway_id"`
	Round          int         `json:"round"`
	PickNumber     int         `json:"pick_number"`
	AcquiredVia    AcquiredVia `json:"acquired_via"`
	IdempotencyKey string      `json:"idempotency_key,omitempty"`
	PickedAt       time.Time   `json:"picked_at"`
}

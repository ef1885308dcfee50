package pick

import (
	"github.com/google/uuid"

	"github.com/penelopespawprint/reality-games-survivor/go/internal/models"
)

// SubmitPickRequest represents one logical pick submission.
// IdempotencyKey is optional; a resubmission with the same key replays the
// original result instead of committing a second pick.
type SubmitPickRequest struct {
	LeagueID       uuid.UUID          `json:"league_id"`
	UserID         uuid.UUID          `json:"user_id"`
	CastawayID     uuid.UUID          `json:"castaway_id"`
	IdempotencyKey string             `json:"idempotency_key,omitempty"`
	AcquiredVia    models.AcquiredVia `json:"acquired_via,omitempty"`
}

// PickResult is what a successful (or replayed) submission returns.
type PickResult struct {
	Round            int        `json:"round"`
	PickNumber       int        `json:"pick_number"`
	DraftComplete    bool       `json:"draft_complete"`
	NextPickerUserID *uuid.UUID `json:"next_picker_user_id,omitempty"`
	Replayed         bool       `json:"replayed,omitempty"`
}

// PickConfirmation is the payload handed to notification dispatch after a
// pick commits.
type PickConfirmation struct {
	LeagueID   uuid.UUID `json:"league_id"`
	UserID     uuid.UUID `json:"user_id"`
	CastawayID uuid.UUID `json:"castaway_id"`
	Round      int       `json:"round"`
	PickNumber int       `json:"pick_number"`
}

// DraftCompletion is the payload handed to notification dispatch when the
// final pick lands.
type DraftCompletion struct {
	LeagueID   uuid.UUID `json:"league_id"`
	TotalPicks int       `json:"total_picks"`
}

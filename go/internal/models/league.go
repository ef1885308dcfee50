package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftStatus defines the draft lifecycle of a league.
type DraftStatus string

const (
	DraftStatusPending    DraftStatus = "PENDING"
	DraftStatusInProgress DraftStatus = "IN_PROGRESS"
	DraftStatusCompleted  DraftStatus = "COMPLETED"
)

// LeagueStatus defines whether a league is live for weekly play.
type LeagueStatus string

const (
	LeagueStatusPending LeagueStatus = "PENDING"
	LeagueStatusActive  LeagueStatus = "ACTIVE"
)

// League represents a fantasy league drafting within one season.
// DraftOrder is set once before drafting starts and is immutable afterward.
type League struct {
	ID             uuid.UUID    `json:"id"`
	SeasonID       uuid.UUID    `json:"season_id"`
	Name           string       `json:"name"`
	CommissionerID uuid.UUID    `json:"commissioner_id"`
	DraftStatus    DraftStatus  `json:"draft_status"`
	Status         LeagueStatus `json:"status"`
	DraftOrder     []uuid.UUID  `json:"draft_order,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// LeagueMember is a (league, user) pair. DraftPosition is the 1-based index
// into the league's draft order.
type LeagueMember struct {
	LeagueID      uuid.UUID `json:"league_id"`
	UserID        uuid.UUID `json:"user_id"`
	DraftPosition int       `json:"draft_position"`
	JoinedAt      time.Time `json:"joined_at"`
}

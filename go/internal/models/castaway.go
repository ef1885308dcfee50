package models

import (
	"time"

	"github.com/google/uuid"
)

// CastawayStatus defines the lifecycle of a castaway within a season.
type CastawayStatus string

const (
	CastawayStatusActive     CastawayStatus = "ACTIVE"
	CastawayStatusEliminated CastawayStatus = "ELIMINATED"
)

// Castaway is the draftable unit: one contestant of a season. Once drafted in
// a league it leaves that league's available pool for the rest of the draft.
type Castaway struct {
	ID        uuid.UUID      `json:"id"`
	SeasonID  uuid.UUID      `json:"season_id"`
	Name      string         `json:"name"`
	Status    CastawayStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

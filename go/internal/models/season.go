package models

import (
	"time"

	"github.com/google/uuid"
)

// Season represents one show season. Exactly one season is active at a time;
// its three deadlines are the mutable source of truth for the scheduler.
type Season struct {
	ID                 uuid.UUID `json:"id"`
	Number             int       `json:"number"`
	RegistrationClose  time.Time `json:"registration_close"`
	DraftOrderDeadline time.Time `json:"draft_order_deadline"`
	DraftDeadline      time.Time `json:"draft_deadline"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

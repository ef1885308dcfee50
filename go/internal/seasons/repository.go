package seasons

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/penelopespawprint/reality-games-survivor/go/internal/models"
)

// Repository reads season rows. Seasons and their deadlines are mutated by
// administrators outside the core; this side only reads.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new seasons repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetActiveSeason returns the single active season, or nil when none is
// active (between seasons).
func (r *Repository) GetActiveSeason(ctx context.Context) (*models.Season, error) {
	var s models.Season
	err := r.db.QueryRowContext(ctx,
		`SELECT id, number, registration_close, draft_order_deadline, draft_deadline, is_active, created_at, updated_at
		 FROM seasons
		 WHERE is_active
		 LIMIT 1`,
	).Scan(&s.ID, &s.Number, &s.RegistrationClose, &s.DraftOrderDeadline, &s.DraftDeadline,
		&s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active season: %w", err)
	}
	return &s, nil
}

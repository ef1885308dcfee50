package leagues

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/penelopespawprint/reality-games-survivor/go/internal/models"
	"github.com/penelopespawprint/reality-games-survivor/go/internal/sqlutil"
)

// ErrLeagueNotFound is returned when a league id matches no row.
var ErrLeagueNotFound = errors.New("league not found")

// Repository implements league and member data access.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new leagues repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const leagueColumns = `id, season_id, name, commissioner_id, draft_status, status, draft_order, created_at, updated_at`

// GetLeague retrieves a league by ID.
func (r *Repository) GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+leagueColumns+` FROM leagues WHERE id = $1`, id)
	lg, err := scanLeague(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLeagueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}
	return lg, nil
}

// ListBySeasonAndDraftStatus returns the season's leagues in a draft state.
func (r *Repository) ListBySeasonAndDraftStatus(ctx context.Context, seasonID uuid.UUID, status models.DraftStatus) ([]models.League, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+leagueColumns+` FROM leagues WHERE season_id = $1 AND draft_status = $2 ORDER BY created_at`,
		seasonID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list leagues by draft status: %w", err)
	}
	defer rows.Close()
	return collectLeagues(rows)
}

// ListPendingWithoutOrder returns the season's leagues that still have no
// draft order as the order-submission deadline approaches.
func (r *Repository) ListPendingWithoutOrder(ctx context.Context, seasonID uuid.UUID) ([]models.League, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+leagueColumns+`
		 FROM leagues
		 WHERE season_id = $1
		   AND draft_status = $2
		   AND (draft_order IS NULL OR cardinality(draft_order) = 0)
		 ORDER BY created_at`,
		seasonID, models.DraftStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list leagues without order: %w", err)
	}
	defer rows.Close()
	return collectLeagues(rows)
}

// ListMembers returns a league's members ordered by draft position.
func (r *Repository) ListMembers(ctx context.Context, leagueID uuid.UUID) ([]models.LeagueMember, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT league_id, user_id, draft_position, joined_at
		 FROM league_members
		 WHERE league_id = $1
		 ORDER BY draft_position, joined_at`,
		leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list league members: %w", err)
	}
	defer rows.Close()

	var members []models.LeagueMember
	for rows.Next() {
		var m models.LeagueMember
		var pos sql.NullInt32
		if err := rows.Scan(&m.LeagueID, &m.UserID, &pos, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan league member: %w", err)
		}
		m.DraftPosition = sqlutil.IntOrZero(pos)
		members = append(members, m)
	}
	return members, rows.Err()
}

// SetDraftOrder persists a league's draft order and each member's draft
// position in one transaction. It only applies to a pending league whose
// order is still unset; it reports whether the order was written.
func (r *Repository) SetDraftOrder(ctx context.Context, leagueID uuid.UUID, order []uuid.UUID) (bool, error) {
	applied := false
	err := sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE leagues
			 SET draft_order = $2, updated_at = now()
			 WHERE id = $1
			   AND draft_status = $3
			   AND (draft_order IS NULL OR cardinality(draft_order) = 0)`,
			leagueID, pq.Array(order), models.DraftStatusPending)
		if err != nil {
			return fmt.Errorf("failed to set draft order: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		applied = true

		for pos, userID := range order {
			if _, err := tx.ExecContext(ctx,
				`UPDATE league_members SET draft_position = $3 WHERE league_id = $1 AND user_id = $2`,
				leagueID, userID, pos+1); err != nil {
				return fmt.Errorf("failed to set draft position: %w", err)
			}
		}
		return nil
	})
	return applied, err
}

func collectLeagues(rows *sql.Rows) ([]models.League, error) {
	var leagues []models.League
	for rows.Next() {
		lg, err := scanLeague(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan league: %w", err)
		}
		leagues = append(leagues, *lg)
	}
	return leagues, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLeague(row rowScanner) (*models.League, error) {
	var lg models.League
	var order []uuid.UUID
	err := row.Scan(&lg.ID, &lg.SeasonID, &lg.Name, &lg.CommissionerID,
		&lg.DraftStatus, &lg.Status, pq.Array(&order), &lg.CreatedAt, &lg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	lg.DraftOrder = order
	return &lg, nil
}

package pick

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/penelopespawprint/reality-games-survivor/go/internal/draft"
	"github.com/penelopespawprint/reality-games-survivor/go/internal/models"
	"github.com/penelopespawprint/reality-games-survivor/go/internal/sqlutil"
)

// Repository is the only path allowed to create pick records. Every
// precondition is checked inside one serializable transaction with the league
// row locked, so two concurrent submissions for the same league serialize and
// exactly one can claim a given pick number.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new pick repository on a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SubmitPickAtomic validates and commits one pick. Violations come back as
// *draft.PickError; anything else is an infrastructure failure.
func (r *Repository) SubmitPickAtomic(ctx context.Context, req SubmitPickRequest) (*PickResult, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, fmt.Errorf("begin pick transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		seasonID uuid.UUID
		status   models.DraftStatus
		order    []uuid.UUID
	)
	err = tx.QueryRow(ctx,
		`SELECT season_id, draft_status, draft_order FROM leagues WHERE id = $1 FOR UPDATE`,
		req.LeagueID,
	).Scan(&seasonID, &status, &order)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, draft.NewPickError(draft.FailureLeagueNotFound, "league %s does not exist", req.LeagueID)
	}
	if err != nil {
		return nil, fmt.Errorf("lock league row: %w", err)
	}

	if status == models.DraftStatusCompleted {
		return nil, draft.NewPickError(draft.FailureDraftComplete, "draft for league %s is already complete", req.LeagueID)
	}
	if len(order) == 0 {
		return nil, draft.NewPickError(draft.FailureNotYourTurn, "draft order for league %s is not set", req.LeagueID)
	}
	total := draft.TotalPicks(len(order))

	// Replay a duplicate submission before any turn checks: the original
	// result is fully determined by the stored pick number.
	if req.IdempotencyKey != "" {
		var prior int
		err = tx.QueryRow(ctx,
			`SELECT pick_number FROM draft_picks WHERE league_id = $1 AND idempotency_key = $2`,
			req.LeagueID, req.IdempotencyKey,
		).Scan(&prior)
		if err == nil {
			res := resultForPick(prior, order)
			res.Replayed = true
			return res, tx.Commit(ctx)
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("check idempotency key: %w", err)
		}
	}

	var count int
	err = tx.QueryRow(ctx,
		`SELECT count(*) FROM draft_picks WHERE league_id = $1`,
		req.LeagueID,
	).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("count picks: %w", err)
	}
	if count >= total {
		return nil, draft.NewPickError(draft.FailureDraftComplete, "league %s already has %d picks", req.LeagueID, count)
	}

	round, idx := draft.ComputeTurn(count, len(order))
	if order[idx] != req.UserID {
		return nil, draft.NewPickError(draft.FailureNotYourTurn, "pick %d belongs to %s", count, order[idx])
	}

	var available bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (
		    SELECT 1 FROM castaways c
		    WHERE c.id = $1 AND c.season_id = $2
		 ) AND NOT EXISTS (
		    SELECT 1 FROM draft_picks p
		    WHERE p.league_id = $3 AND p.castaway_id = $1
		 )`,
		req.CastawayID, seasonID, req.LeagueID,
	).Scan(&available)
	if err != nil {
		return nil, fmt.Errorf("check castaway availability: %w", err)
	}
	if !available {
		return nil, draft.NewPickError(draft.FailureCastawayUnavailable, "castaway %s is not available", req.CastawayID)
	}

	acquiredVia := req.AcquiredVia
	if acquiredVia == "" {
		acquiredVia = models.AcquiredViaDraft
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO draft_picks
		    (id, league_id, user_id, castaway_id, round, pick_number, acquired_via, idempotency_key, picked_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.New(), req.LeagueID, req.UserID, req.CastawayID,
		round, count, acquiredVia, sqlutil.NullString(req.IdempotencyKey), time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert pick: %w", err)
	}

	res := resultForPick(count, order)
	switch {
	case res.DraftComplete:
		_, err = tx.Exec(ctx,
			`UPDATE leagues
			 SET draft_status = $1, status = $2, updated_at = now()
			 WHERE id = $3`,
			models.DraftStatusCompleted, models.LeagueStatusActive, req.LeagueID,
		)
		if err != nil {
			return nil, fmt.Errorf("mark league completed: %w", err)
		}
	case count == 0:
		// The first committed pick starts the draft; selection of drafting
		// leagues (reminders, auto-finalize) keys off this status.
		_, err = tx.Exec(ctx,
			`UPDATE leagues SET draft_status = $1, updated_at = now() WHERE id = $2`,
			models.DraftStatusInProgress, req.LeagueID,
		)
		if err != nil {
			return nil, fmt.Errorf("mark draft started: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit pick: %w", err)
	}
	return res, nil
}

// ListPicksByLeague returns a league's picks ordered by pick number.
func (r *Repository) ListPicksByLeague(ctx context.Context, leagueID uuid.UUID) ([]models.DraftPick, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, league_id, user_id, castaway_id, round, pick_number, acquired_via, idempotency_key, picked_at
		 FROM draft_picks
		 WHERE league_id = $1
		 ORDER BY pick_number`,
		leagueID,
	)
	if err != nil {
		return nil, fmt.Errorf("list picks by league: %w", err)
	}
	defer rows.Close()

	var picks []models.DraftPick
	for rows.Next() {
		var p models.DraftPick
		var key sql.NullString
		if err := rows.Scan(&p.ID, &p.LeagueID, &p.UserID, &p.CastawayID,
			&p.Round, &p.PickNumber, &p.AcquiredVia, &key, &p.PickedAt); err != nil {
			return nil, fmt.Errorf("scan pick: %w", err)
		}
		p.IdempotencyKey = sqlutil.StringOrEmpty(key)
		picks = append(picks, p)
	}
	return picks, rows.Err()
}

// ListSeasonCastaways returns every castaway of a season; the caller applies
// the per-league availability filter via draft.State.
func (r *Repository) ListSeasonCastaways(ctx context.Context, seasonID uuid.UUID) ([]models.Castaway, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, season_id, name, status, created_at
		 FROM castaways
		 WHERE season_id = $1
		 ORDER BY name, id`,
		seasonID,
	)
	if err != nil {
		return nil, fmt.Errorf("list season castaways: %w", err)
	}
	defer rows.Close()

	var castaways []models.Castaway
	for rows.Next() {
		var c models.Castaway
		if err := rows.Scan(&c.ID, &c.SeasonID, &c.Name, &c.Status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan castaway: %w", err)
		}
		castaways = append(castaways, c)
	}
	return castaways, rows.Err()
}

// resultForPick derives the committed pick's result from its pick number and
// the draft order, so a replay reproduces the original response exactly.
func resultForPick(pickNumber int, order []uuid.UUID) *PickResult {
	round, _ := draft.ComputeTurn(pickNumber, len(order))
	res := &PickResult{
		Round:      round,
		PickNumber: pickNumber,
	}
	if pickNumber+1 >= draft.TotalPicks(len(order)) {
		res.DraftComplete = true
		return res
	}
	_, nextIdx := draft.ComputeTurn(pickNumber+1, len(order))
	next := order[nextIdx]
	res.NextPickerUserID = &next
	return res
}

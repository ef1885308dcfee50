package pick

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/penelopespawprint/reality-games-survivor/go/internal/models"
)

// PickRepository defines what the app layer needs from the repository.
type PickRepository interface {
	SubmitPickAtomic(ctx context.Context, req SubmitPickRequest) (*PickResult, error)
	ListPicksByLeague(ctx context.Context, leagueID uuid.UUID) ([]models.DraftPick, error)
	ListSeasonCastaways(ctx context.Context, seasonID uuid.UUID) ([]models.Castaway, error)
}

// Notifier defines the fire-and-forget notification dispatch the app calls
// after a commit. Failures there never roll back or fail the pick.
type Notifier interface {
	PickConfirmed(ctx context.Context, c PickConfirmation) error
	DraftCompleted(ctx context.Context, c DraftCompletion) error
}

// App handles pick submission business logic.
type App struct {
	repo     PickRepository
	notifier Notifier
}

// NewApp creates a new pick App.
func NewApp(repo PickRepository, notifier Notifier) *App {
	return &App{
		repo:     repo,
		notifier: notifier,
	}
}

// SubmitPick validates the request, commits the pick atomically and fans out
// notifications. Turn and availability violations surface as *draft.PickError.
func (a *App) SubmitPick(ctx context.Context, req SubmitPickRequest) (*PickResult, error) {
	if err := a.validateSubmitPickRequest(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	res, err := a.repo.SubmitPickAtomic(ctx, req)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("league_id", req.LeagueID.String()).
		Str("user_id", req.UserID.String()).
		Str("castaway_id", req.CastawayID.String()).
		Int("pick_number", res.PickNumber).
		Int("round", res.Round).
		Bool("draft_complete", res.DraftComplete).
		Bool("replayed", res.Replayed).
		Msg("pick submitted")

	if !res.Replayed {
		a.dispatchNotifications(req, res)
	}
	return res, nil
}

// ListCastaways returns every castaway of a season.
func (a *App) ListCastaways(ctx context.Context, seasonID uuid.UUID) ([]models.Castaway, error) {
	if seasonID == uuid.Nil {
		return nil, fmt.Errorf("season id is required")
	}
	castaways, err := a.repo.ListSeasonCastaways(ctx, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list castaways: %w", err)
	}
	return castaways, nil
}

// ListPicks returns a league's picks ordered by pick number.
func (a *App) ListPicks(ctx context.Context, leagueID uuid.UUID) ([]models.DraftPick, error) {
	if leagueID == uuid.Nil {
		return nil, fmt.Errorf("league id is required")
	}
	picks, err := a.repo.ListPicksByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	return picks, nil
}

func (a *App) validateSubmitPickRequest(req SubmitPickRequest) error {
	if req.LeagueID == uuid.Nil {
		return fmt.Errorf("league id is required")
	}
	if req.UserID == uuid.Nil {
		return fmt.Errorf("user id is required")
	}
	if req.CastawayID == uuid.Nil {
		return fmt.Errorf("castaway id is required")
	}
	return nil
}

// dispatchNotifications fires pick confirmation (and completion) events in
// the background. Errors are logged and dropped.
func (a *App) dispatchNotifications(req SubmitPickRequest, res *PickResult) {
	if a.notifier == nil {
		return
	}
	confirmation := PickConfirmation{
		LeagueID:   req.LeagueID,
		UserID:     req.UserID,
		CastawayID: req.CastawayID,
		Round:      res.Round,
		PickNumber: res.PickNumber,
	}
	complete := res.DraftComplete
	totalPicks := res.PickNumber + 1

	go func() {
		ctx := context.Background()
		if err := a.notifier.PickConfirmed(ctx, confirmation); err != nil {
			log.Warn().Err(err).
				Str("league_id", confirmation.LeagueID.String()).
				Msg("pick confirmation notification failed")
		}
		if complete {
			if err := a.notifier.DraftCompleted(ctx, DraftCompletion{
				LeagueID:   confirmation.LeagueID,
				TotalPicks: totalPicks,
			}); err != nil {
				log.Warn().Err(err).
					Str("league_id", confirmation.LeagueID.String()).
					Msg("draft completion notification failed")
			}
		}
	}()
}

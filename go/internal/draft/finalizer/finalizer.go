package finalizer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/penelopespawprint/reality-games-survivor/go/internal/draft"
	"github.com/penelopespawprint/reality-games-survivor/go/internal/draft/pick"
	"github.com/penelopespawprint/reality-games-survivor/go/internal/models"
)

// SeasonSource defines what the finalizer needs from the season cache.
type SeasonSource interface {
	ActiveSeason(ctx context.Context) (*models.Season, error)
}

// LeagueSource defines what the finalizer needs from the leagues app.
type LeagueSource interface {
	ListDrafting(ctx context.Context, seasonID uuid.UUID) ([]models.League, error)
}

// PickCommitter defines what the finalizer needs from the pick app. Every
// auto-pick goes through the same atomic committer as a live pick.
type PickCommitter interface {
	SubmitPick(ctx context.Context, req pick.SubmitPickRequest) (*pick.PickResult, error)
	ListPicks(ctx context.Context, leagueID uuid.UUID) ([]models.DraftPick, error)
	ListCastaways(ctx context.Context, seasonID uuid.UUID) ([]models.Castaway, error)
}

// Result is the payload an auto-finalize run reports to the job monitor.
type Result struct {
	LeaguesScanned   int `json:"leagues_scanned"`
	LeaguesCompleted int `json:"leagues_completed"`
	PicksFilled      int `json:"picks_filled"`
}

// App fills every unfinished draft once the season's draft deadline has
// passed, so no league is left half-drafted when play begins.
type App struct {
	seasons SeasonSource
	leagues LeagueSource
	picks   PickCommitter
	clock   clockwork.Clock
}

// NewApp creates the auto-finalizer.
func NewApp(seasons SeasonSource, leagues LeagueSource, picks PickCommitter, clock clockwork.Clock) *App {
	return &App{
		seasons: seasons,
		leagues: leagues,
		picks:   picks,
		clock:   clock,
	}
}

// FinalizeOverdueDrafts fills all remaining picks of every in-progress league
// whose season draft deadline has passed. Castaways are taken in stable
// name-then-id order, never randomly, so a support engineer can reproduce any
// auto-drafted roster. Completed leagues are excluded from selection, which
// makes re-running this a no-op.
func (a *App) FinalizeOverdueDrafts(ctx context.Context) (*Result, error) {
	season, err := a.seasons.ActiveSeason(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active season: %w", err)
	}
	res := &Result{}
	if season == nil {
		return res, nil
	}
	if season.DraftDeadline.After(a.clock.Now()) {
		log.Debug().Time("deadline", season.DraftDeadline).Msg("draft deadline not reached, nothing to finalize")
		return res, nil
	}

	leagues, err := a.leagues.ListDrafting(ctx, season.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafting leagues: %w", err)
	}
	if len(leagues) == 0 {
		return res, nil
	}

	castaways, err := a.picks.ListCastaways(ctx, season.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list season castaways: %w", err)
	}

	var firstErr error
	for _, lg := range leagues {
		res.LeaguesScanned++
		filled, completed, err := a.finalizeLeague(ctx, lg, castaways)
		res.PicksFilled += filled
		if completed {
			res.LeaguesCompleted++
		}
		if err != nil {
			log.Error().Err(err).Str("league_id", lg.ID.String()).Msg("failed to finalize league draft")
			if firstErr == nil {
				firstErr = fmt.Errorf("finalize league %s: %w", lg.ID, err)
			}
		}
	}

	log.Info().
		Int("scanned", res.LeaguesScanned).
		Int("completed", res.LeaguesCompleted).
		Int("picks_filled", res.PicksFilled).
		Msg("auto-finalize run finished")
	return res, firstErr
}

// finalizeLeague fills one league until its roster target is met or the pool
// is exhausted. A typed violation from the committer means a live pick raced
// us; the pick log is refreshed and the loop continues as long as it makes
// progress.
func (a *App) finalizeLeague(ctx context.Context, lg models.League, castaways []models.Castaway) (filled int, completed bool, err error) {
	picks, err := a.picks.ListPicks(ctx, lg.ID)
	if err != nil {
		return 0, false, err
	}

	for {
		st := draft.BuildState(lg.DraftOrder, picks)
		if st.Complete() {
			return filled, true, nil
		}
		pool := st.AvailablePool(castaways)
		if len(pool) == 0 {
			log.Warn().
				Str("league_id", lg.ID.String()).
				Int("picks", st.PickCount).
				Int("target", st.TotalPicks).
				Msg("available pool exhausted before roster target")
			return filled, false, nil
		}

		res, err := a.picks.SubmitPick(ctx, pick.SubmitPickRequest{
			LeagueID:    lg.ID,
			UserID:      st.CurrentPicker,
			CastawayID:  pool[0].ID,
			AcquiredVia: models.AcquiredViaAutoDraft,
		})
		if err != nil {
			pe, typed := draft.AsPickError(err)
			if typed && pe.Code == draft.FailureDraftComplete {
				return filled, true, nil
			}
			if typed {
				refreshed, lerr := a.picks.ListPicks(ctx, lg.ID)
				if lerr != nil {
					return filled, false, lerr
				}
				if len(refreshed) <= len(picks) {
					return filled, false, err
				}
				picks = refreshed
				continue
			}
			return filled, false, err
		}

		filled++
		picks = append(picks, models.DraftPick{
			LeagueID:    lg.ID,
			UserID:      st.CurrentPicker,
			CastawayID:  pool[0].ID,
			Round:       res.Round,
			PickNumber:  res.PickNumber,
			AcquiredVia: models.AcquiredViaAutoDraft,
		})
		if res.DraftComplete {
			return filled, true, nil
		}
	}
}

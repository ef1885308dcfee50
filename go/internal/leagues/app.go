package leagues

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/penelopespawprint/reality-games-survivor/go/internal/models"
)

// LeaguesRepository defines what the app layer needs from the repository.
type LeaguesRepository interface {
	GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error)
	ListBySeasonAndDraftStatus(ctx context.Context, seasonID uuid.UUID, status models.DraftStatus) ([]models.League, error)
	ListPendingWithoutOrder(ctx context.Context, seasonID uuid.UUID) ([]models.League, error)
	ListMembers(ctx context.Context, leagueID uuid.UUID) ([]models.LeagueMember, error)
	SetDraftOrder(ctx context.Context, leagueID uuid.UUID, order []uuid.UUID) (bool, error)
}

// App handles league business logic.
type App struct {
	repo LeaguesRepository
	rng  *rand.Rand
}

// NewApp creates a new leagues App with its own seeded randomness for draft
// order assignment.
func NewApp(repo LeaguesRepository) *App {
	return &App{
		repo: repo,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GetLeague retrieves a league by ID.
func (a *App) GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error) {
	return a.repo.GetLeague(ctx, id)
}

// ListDrafting returns the season's leagues currently mid-draft.
func (a *App) ListDrafting(ctx context.Context, seasonID uuid.UUID) ([]models.League, error) {
	return a.repo.ListBySeasonAndDraftStatus(ctx, seasonID, models.DraftStatusInProgress)
}

// RandomizeUnsetOrders assigns a random draft order to every pending league
// of the season that has none. Commissioners had until the order deadline to
// submit one; past it the platform decides. Returns how many leagues were
// randomized. Safe to re-run: leagues with an order are never reshuffled.
func (a *App) RandomizeUnsetOrders(ctx context.Context, seasonID uuid.UUID) (int, error) {
	pending, err := a.repo.ListPendingWithoutOrder(ctx, seasonID)
	if err != nil {
		return 0, fmt.Errorf("failed to list leagues without draft order: %w", err)
	}

	randomized := 0
	for _, lg := range pending {
		members, err := a.repo.ListMembers(ctx, lg.ID)
		if err != nil {
			return randomized, fmt.Errorf("failed to list members of league %s: %w", lg.ID, err)
		}
		if len(members) == 0 {
			log.Warn().Str("league_id", lg.ID.String()).Msg("skipping empty league during order randomization")
			continue
		}

		order := make([]uuid.UUID, len(members))
		for i, m := range members {
			order[i] = m.UserID
		}
		a.rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		applied, err := a.repo.SetDraftOrder(ctx, lg.ID, order)
		if err != nil {
			return randomized, fmt.Errorf("failed to set draft order for league %s: %w", lg.ID, err)
		}
		if applied {
			randomized++
			log.Info().
				Str("league_id", lg.ID.String()).
				Int("members", len(order)).
				Msg("randomized draft order")
		}
	}
	return randomized, nil
}

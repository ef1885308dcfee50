package notify

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/penelopespawprint/reality-games-survivor/go/internal/draft/pick"
)

// Dispatcher sends user-facing notification events. Rendering and delivery
// (email, SMS) happen in a separate service; the core only emits events, fire
// and forget.
type Dispatcher interface {
	PickConfirmed(ctx context.Context, c pick.PickConfirmation) error
	DraftCompleted(ctx context.Context, c pick.DraftCompletion) error
}

// LogDispatcher logs events instead of publishing them. Used in development
// and whenever the message bus is unavailable.
type LogDispatcher struct{}

// NewLogDispatcher creates a log-only dispatcher.
func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{}
}

func (d *LogDispatcher) PickConfirmed(_ context.Context, c pick.PickConfirmation) error {
	log.Info().
		Str("league_id", c.LeagueID.String()).
		Str("user_id", c.UserID.String()).
		Int("pick_number", c.PickNumber).
		Msg("notification: pick confirmed")
	return nil
}

func (d *LogDispatcher) DraftCompleted(_ context.Context, c pick.DraftCompletion) error {
	log.Info().
		Str("league_id", c.LeagueID.String()).
		Int("total_picks", c.TotalPicks).
		Msg("notification: draft completed")
	return nil
}

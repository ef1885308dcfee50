package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/penelopespawprint/reality-games-survivor/go/internal/admin"
	"github.com/penelopespawprint/reality-games-survivor/go/internal/alerts"
	"github.com/penelopespawprint/reality-games-survivor/go/internal/draft/finalizer"
	"github.com/penelopespawprint/reality-games-survivor/go/internal/draft/pick"
	"github.com/penelopespawprint/reality-games-survivor/go/internal/leagues"
	"github.com/penelopespawprint/reality-games-survivor/go/internal/models"
	"github.com/penelopespawprint/reality-games-survivor/go/internal/notify"
	"github.com/penelopespawprint/reality-games-survivor/go/internal/scheduler"
	"github.com/penelopespawprint/reality-games-survivor/go/internal/seasons"
)

type Services struct {
	SeasonCache *seasons.Cache
	Leagues     *leagues.App
	Picks       *pick.App
	Finalizer   *finalizer.App
	Scheduler   *scheduler.Scheduler
	Admin       *admin.Server
}

// setupServices wires the dependency chain: repositories over the database
// handles, apps over repositories, scheduler over apps. natsConn may be nil,
// in which case notifications and alerts fall back to log-only dispatch.
func setupServices(cfg *Config, db *sql.DB, pool *pgxpool.Pool, natsConn *nats.Conn, clock clockwork.Clock) (*Services, error) {
	seasonRepo := seasons.NewRepository(db)
	seasonCache := seasons.NewCache(seasonRepo, clock, cfg.Seasons.CacheTTL)

	leagueRepo := leagues.NewRepository(db)
	leaguesApp := leagues.NewApp(leagueRepo)

	var dispatcher pick.Notifier
	var alertFn scheduler.AlertFunc
	if natsConn != nil {
		dispatcher = notify.NewNATSDispatcher(natsConn, cfg.NATS.SubjectPrefix)
		alertFn = alerts.NewPublisher(natsConn, cfg.NATS.SubjectPrefix).AlertJobFailure
	} else {
		dispatcher = notify.NewLogDispatcher()
		alertFn = alerts.LogAlert
	}

	pickRepo := pick.NewRepository(pool)
	pickApp := pick.NewApp(pickRepo, dispatcher)

	finalizerApp := finalizer.NewApp(seasonCache, leaguesApp, pickApp, clock)

	monitor := scheduler.NewMonitor(clock, alertFn)
	sched, err := scheduler.New(cfg.Scheduler, clock, scheduler.NewRegistry(), monitor, seasonCache)
	if err != nil {
		return nil, err
	}
	if err := registerJobs(cfg, sched, seasonCache, leaguesApp, finalizerApp); err != nil {
		return nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	return &Services{
		SeasonCache: seasonCache,
		Leagues:     leaguesApp,
		Picks:       pickApp,
		Finalizer:   finalizerApp,
		Scheduler:   sched,
		Admin:       admin.NewServer(sched, seasonCache),
	}, nil
}

func registerJobs(cfg *Config, sched *scheduler.Scheduler, cache *seasons.Cache, leaguesApp *leagues.App, finalizerApp *finalizer.App) error {
	// Fires at the season's draft deadline and fills every unfinished draft.
	err := sched.RegisterOneTime("finalize-drafts",
		func(season models.Season) time.Time { return season.DraftDeadline },
		func(ctx context.Context) (any, error) {
			return finalizerApp.FinalizeOverdueDrafts(ctx)
		})
	if err != nil {
		return err
	}

	// Fires at the draft-order deadline and shuffles an order for every
	// league whose commissioner never set one.
	err = sched.RegisterOneTime("randomize-draft-orders",
		func(season models.Season) time.Time { return season.DraftOrderDeadline },
		func(ctx context.Context) (any, error) {
			season, err := cache.ActiveSeason(ctx)
			if err != nil {
				return nil, err
			}
			if season == nil {
				return map[string]any{"leagues_randomized": 0}, nil
			}
			n, err := leaguesApp.RandomizeUnsetOrders(ctx, season.ID)
			if err != nil {
				return nil, err
			}
			return map[string]any{"leagues_randomized": n}, nil
		})
	if err != nil {
		return err
	}

	// Sweeps deadline edits that landed without a cache invalidation call.
	err = sched.RegisterRecurring("deadline-sync", cfg.Jobs.DeadlineSyncSpec,
		func(ctx context.Context) (any, error) {
			return nil, sched.SyncDeadlines(ctx)
		})
	if err != nil {
		return err
	}

	// Daily nudge while drafts are open; the count feeds the ops dashboard.
	return sched.RegisterRecurring("draft-reminder", cfg.Jobs.DraftReminderSpec,
		func(ctx context.Context) (any, error) {
			season, err := cache.ActiveSeason(ctx)
			if err != nil {
				return nil, err
			}
			if season == nil {
				return map[string]any{"leagues_drafting": 0}, nil
			}
			drafting, err := leaguesApp.ListDrafting(ctx, season.ID)
			if err != nil {
				return nil, err
			}
			if len(drafting) > 0 {
				log.Info().
					Int("leagues_drafting", len(drafting)).
					Time("draft_deadline", season.DraftDeadline).
					Msg("drafts still open")
			}
			return map[string]any{"leagues_drafting": len(drafting)}, nil
		})
}

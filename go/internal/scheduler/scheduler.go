package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/penelopespawprint/reality-games-survivor/go/internal/models"
)

// SeasonSource defines what the scheduler needs from the season cache.
type SeasonSource interface {
	ActiveSeason(ctx context.Context) (*models.Season, error)
}

// Config controls the scheduler.
type Config struct {
	// Timezone is the canonical IANA zone every cron expression is evaluated
	// in; DST shifts are handled by the zone, never by ambient system time.
	Timezone string `yaml:"timezone"`
}

// Scheduler fires registered actions at the right time: recurring jobs on
// cron expressions, one-time jobs on deadline instants read from the season
// cache. One-time timers are keyed by job name and always cancelled before a
// new one is armed, so a moved deadline can never double-fire.
type Scheduler struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	loc      *time.Location
	cron     *cron.Cron
	registry *Registry
	monitor  *Monitor
	seasons  SeasonSource

	timers  map[string]clockwork.Timer
	armed   map[string]time.Time // deadline value currently handled, per job
	gen     map[string]uint64    // stale-timer guard
	started bool
}

// New creates a scheduler. The clock is injected so tests can drive timers
// with a fake.
func New(cfg Config, clock clockwork.Clock, registry *Registry, monitor *Monitor, seasons SeasonSource) (*Scheduler, error) {
	loc := time.UTC
	if cfg.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.Timezone, err)
		}
	}
	return &Scheduler{
		clock:    clock,
		loc:      loc,
		cron:     cron.New(cron.WithLocation(loc)),
		registry: registry,
		monitor:  monitor,
		seasons:  seasons,
		timers:   make(map[string]clockwork.Timer),
		armed:    make(map[string]time.Time),
		gen:      make(map[string]uint64),
	}, nil
}

// RegisterRecurring adds a cron-triggered job. The spec is validated before
// the registry entry exists, so a rejected registration leaves no job behind.
func (s *Scheduler) RegisterRecurring(name, spec string, action JobFunc) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron spec %q for job %q: %w", spec, name, err)
	}
	if err := s.registry.Add(Job{
		Name:    name,
		Kind:    JobKindRecurring,
		Spec:    spec,
		Action:  action,
		Enabled: true,
	}); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(spec, func() { s.runScheduled(name) }); err != nil {
		return fmt.Errorf("invalid cron spec %q for job %q: %w", spec, name, err)
	}
	return nil
}

// RegisterOneTime adds a deadline-triggered job. The timer is armed by
// SyncDeadlines, not at registration.
func (s *Scheduler) RegisterOneTime(name string, deadline DeadlineFunc, action JobFunc) error {
	return s.registry.Add(Job{
		Name:     name,
		Kind:     JobKindOneTime,
		Deadline: deadline,
		Action:   action,
		Enabled:  true,
	})
}

// Start launches recurring triggers and arms one-time timers from the current
// deadlines. Timers do not survive a restart; startup always re-arms.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	s.cron.Start()
	log.Info().Str("tz", s.loc.String()).Msg("scheduler started")
	return s.SyncDeadlines(ctx)
}

// Stop halts recurring triggers and cancels every armed one-time timer.
func (s *Scheduler) Stop() {
	s.cron.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.timers {
		s.cancelLocked(name)
	}
	s.armed = make(map[string]time.Time)
	s.started = false
	log.Info().Msg("scheduler stopped")
}

// SyncDeadlines reads the cached active season and reconciles every one-time
// timer against it. A changed deadline cancels the old timer before arming
// the new one; an unchanged deadline leaves the armed timer alone; a deadline
// already in the past fires the action immediately, at most once per value
// (the actions themselves are idempotent, which covers process restarts).
func (s *Scheduler) SyncDeadlines(ctx context.Context) error {
	season, err := s.seasons.ActiveSeason(ctx)
	if err != nil {
		return fmt.Errorf("failed to read active season: %w", err)
	}

	var fireNow []string
	s.mu.Lock()
	for _, job := range s.registry.OneTimeJobs() {
		name := job.Name
		if season == nil || !job.Enabled {
			s.cancelLocked(name)
			delete(s.armed, name)
			continue
		}

		at := job.Deadline(*season)
		if prev, handled := s.armed[name]; handled && prev.Equal(at) {
			continue
		}

		s.cancelLocked(name)
		s.armed[name] = at

		now := s.clock.Now()
		if !at.After(now) {
			log.Info().Str("job", name).Time("deadline", at).Msg("deadline already passed, firing now")
			fireNow = append(fireNow, name)
			continue
		}

		s.gen[name]++
		g := s.gen[name]
		s.timers[name] = s.clock.AfterFunc(at.Sub(now), func() {
			s.timerFired(name, g)
		})
		log.Info().Str("job", name).Time("fire_at", at.In(s.loc)).Msg("armed one-time timer")
	}
	s.mu.Unlock()

	for _, name := range fireNow {
		s.runScheduled(name)
	}
	return nil
}

// RunJob invokes a job by name out-of-band. It goes through the same
// monitored path as scheduled invocation so history stays consistent.
func (s *Scheduler) RunJob(ctx context.Context, name string) (any, error) {
	job, ok := s.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown job %q", name)
	}
	return s.execute(ctx, job)
}

// Status reports every registered job plus its armed fire time, if any.
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	armedFor := make(map[string]time.Time, len(s.timers))
	for name := range s.timers {
		armedFor[name] = s.armed[name]
	}
	s.mu.Unlock()
	return s.registry.Snapshot(armedFor)
}

// Monitor exposes execution statistics and history for the trigger surface.
func (s *Scheduler) Monitor() *Monitor {
	return s.monitor
}

func (s *Scheduler) timerFired(name string, g uint64) {
	s.mu.Lock()
	if s.gen[name] != g {
		// A newer arm superseded this timer between firing and handling.
		s.mu.Unlock()
		return
	}
	delete(s.timers, name)
	s.mu.Unlock()
	s.runScheduled(name)
}

func (s *Scheduler) runScheduled(name string) {
	job, ok := s.registry.Get(name)
	if !ok {
		log.Error().Str("job", name).Msg("scheduled job missing from registry")
		return
	}
	if !job.Enabled {
		log.Debug().Str("job", name).Msg("skipping disabled job")
		return
	}
	_, _ = s.execute(context.Background(), job)
}

func (s *Scheduler) execute(ctx context.Context, job Job) (any, error) {
	start := s.clock.Now()
	result, err := s.monitor.Run(ctx, job.Name, job.Action)
	s.registry.RecordRun(job.Name, start, err)
	return result, err
}

func (s *Scheduler) cancelLocked(name string) {
	if t, ok := s.timers[name]; ok {
		t.Stop()
		delete(s.timers, name)
	}
	s.gen[name]++
}

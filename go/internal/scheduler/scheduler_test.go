package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penelopespawprint/reality-games-survivor/go/internal/models"
)

type fakeSeasons struct {
	mu     sync.Mutex
	season *models.Season
}

func (f *fakeSeasons) ActiveSeason(context.Context) (*models.Season, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.season == nil {
		return nil, nil
	}
	cp := *f.season
	return &cp, nil
}

func (f *fakeSeasons) setDraftDeadline(at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.season.DraftDeadline = at
}

func newTestScheduler(t *testing.T, clock clockwork.Clock, seasons SeasonSource) (*Scheduler, *atomic.Int64) {
	t.Helper()
	sched, err := New(Config{Timezone: "America/New_York"}, clock, NewRegistry(), NewMonitor(clock, nil), seasons)
	require.NoError(t, err)

	var fired atomic.Int64
	err = sched.RegisterOneTime("finalize-drafts",
		func(season models.Season) time.Time { return season.DraftDeadline },
		func(context.Context) (any, error) {
			fired.Add(1)
			return nil, nil
		})
	require.NoError(t, err)
	return sched, &fired
}

func TestOneTimeJobFiresOnceAtDeadline(t *testing.T) {
	clock := clockwork.NewFakeClock()
	seasons := &fakeSeasons{season: &models.Season{
		ID:            uuid.New(),
		DraftDeadline: clock.Now().Add(time.Hour),
	}}
	sched, fired := newTestScheduler(t, clock, seasons)
	defer sched.Stop()

	require.NoError(t, sched.Start(context.Background()))
	assert.Equal(t, int64(0), fired.Load())

	clock.Advance(time.Hour)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	clock.Advance(time.Hour)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(1), fired.Load(), "a one-time job fires exactly once")
}

func TestDeadlineChangeRearmsWithoutDuplicateFiring(t *testing.T) {
	clock := clockwork.NewFakeClock()
	oldDeadline := clock.Now().Add(time.Hour)
	seasons := &fakeSeasons{season: &models.Season{ID: uuid.New(), DraftDeadline: oldDeadline}}
	sched, fired := newTestScheduler(t, clock, seasons)
	defer sched.Stop()

	ctx := context.Background()
	require.NoError(t, sched.Start(ctx))

	// Administrator pushes the deadline out before the old timer fires.
	seasons.setDraftDeadline(oldDeadline.Add(time.Hour))
	require.NoError(t, sched.SyncDeadlines(ctx))

	// The stale timer's instant passes without firing.
	clock.Advance(time.Hour)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(0), fired.Load(), "cancelled timer must not fire at the old deadline")

	clock.Advance(time.Hour)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(1), fired.Load(), "no duplicate firing across the change")
}

func TestPastDeadlineFiresImmediatelyAtMostOnce(t *testing.T) {
	clock := clockwork.NewFakeClock()
	seasons := &fakeSeasons{season: &models.Season{
		ID:            uuid.New(),
		DraftDeadline: clock.Now().Add(-time.Hour),
	}}
	sched, fired := newTestScheduler(t, clock, seasons)
	defer sched.Stop()

	ctx := context.Background()
	require.NoError(t, sched.Start(ctx))
	require.Eventually(t, func() bool { return fired.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	// Re-syncing the same past deadline must not fire again.
	require.NoError(t, sched.SyncDeadlines(ctx))
	require.NoError(t, sched.SyncDeadlines(ctx))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(1), fired.Load())
}

func TestNoActiveSeasonDisarmsTimers(t *testing.T) {
	clock := clockwork.NewFakeClock()
	seasons := &fakeSeasons{season: &models.Season{
		ID:            uuid.New(),
		DraftDeadline: clock.Now().Add(time.Hour),
	}}
	sched, fired := newTestScheduler(t, clock, seasons)
	defer sched.Stop()

	ctx := context.Background()
	require.NoError(t, sched.Start(ctx))

	seasons.mu.Lock()
	seasons.season = nil
	seasons.mu.Unlock()
	require.NoError(t, sched.SyncDeadlines(ctx))

	clock.Advance(2 * time.Hour)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(0), fired.Load())
}

func TestStopCancelsArmedTimers(t *testing.T) {
	clock := clockwork.NewFakeClock()
	seasons := &fakeSeasons{season: &models.Season{
		ID:            uuid.New(),
		DraftDeadline: clock.Now().Add(time.Hour),
	}}
	sched, fired := newTestScheduler(t, clock, seasons)

	require.NoError(t, sched.Start(context.Background()))
	sched.Stop()

	clock.Advance(2 * time.Hour)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(0), fired.Load())
}

func TestManualRunSharesMonitoredPath(t *testing.T) {
	clock := clockwork.NewFakeClock()
	seasons := &fakeSeasons{season: &models.Season{
		ID:            uuid.New(),
		DraftDeadline: clock.Now().Add(time.Hour),
	}}
	sched, fired := newTestScheduler(t, clock, seasons)
	defer sched.Stop()

	_, err := sched.RunJob(context.Background(), "finalize-drafts")
	require.NoError(t, err)
	assert.Equal(t, int64(1), fired.Load())

	history := sched.Monitor().GetJobHistory(10, "finalize-drafts")
	require.Len(t, history, 1, "manual invocation lands in the same history")
	assert.True(t, history[0].Success)

	statuses := sched.Status()
	require.Len(t, statuses, 1)
	assert.NotNil(t, statuses[0].LastRun)

	_, err = sched.RunJob(context.Background(), "no-such-job")
	require.Error(t, err)
}

func TestRegisterRejectsDuplicatesAndBadSpecs(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sched, err := New(Config{}, clock, NewRegistry(), NewMonitor(clock, nil), &fakeSeasons{})
	require.NoError(t, err)

	noop := func(context.Context) (any, error) { return nil, nil }
	require.NoError(t, sched.RegisterRecurring("weekly-reminder", "0 9 * * MON", noop))
	assert.Error(t, sched.RegisterRecurring("weekly-reminder", "0 9 * * MON", noop))
	assert.Error(t, sched.RegisterRecurring("broken", "not a cron spec", noop))

	// A rejected spec must not leave a half-registered job behind.
	statuses := sched.Status()
	require.Len(t, statuses, 1)
	assert.Equal(t, "weekly-reminder", statuses[0].Name)
	_, err = sched.RunJob(context.Background(), "broken")
	require.Error(t, err)
}

func TestInvalidTimezoneRejected(t *testing.T) {
	clock := clockwork.NewFakeClock()
	_, err := New(Config{Timezone: "Mars/Olympus_Mons"}, clock, NewRegistry(), NewMonitor(clock, nil), &fakeSeasons{})
	require.Error(t, err)
}

package pick

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penelopespawprint/reality-games-survivor/go/internal/draft"
	"github.com/penelopespawprint/reality-games-survivor/go/internal/models"
)

// fakeRepo mirrors the repository's transactional semantics in memory: one
// mutex serializes submissions the way the serializable transaction and the
// league row lock do in Postgres.
type fakeRepo struct {
	mu        sync.Mutex
	leagues   map[uuid.UUID]*fakeLeague
	castaways map[uuid.UUID][]models.Castaway // by season
}

type fakeLeague struct {
	seasonID uuid.UUID
	status   models.DraftStatus
	order    []uuid.UUID
	picks    []models.DraftPick
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		leagues:   make(map[uuid.UUID]*fakeLeague),
		castaways: make(map[uuid.UUID][]models.Castaway),
	}
}

func (f *fakeRepo) addLeague(members int) (uuid.UUID, *fakeLeague) {
	seasonID := uuid.New()
	leagueID := uuid.New()
	order := make([]uuid.UUID, members)
	for i := range order {
		order[i] = uuid.New()
	}
	var castaways []models.Castaway
	for i := 0; i < members*draft.RosterSize+2; i++ {
		castaways = append(castaways, models.Castaway{
			ID:       uuid.New(),
			SeasonID: seasonID,
			Name:     "Castaway",
			Status:   models.CastawayStatusActive,
		})
	}
	lg := &fakeLeague{seasonID: seasonID, status: models.DraftStatusPending, order: order}
	f.leagues[leagueID] = lg
	f.castaways[seasonID] = castaways
	return leagueID, lg
}

func (f *fakeRepo) SubmitPickAtomic(_ context.Context, req SubmitPickRequest) (*PickResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	lg, ok := f.leagues[req.LeagueID]
	if !ok {
		return nil, draft.NewPickError(draft.FailureLeagueNotFound, "league %s does not exist", req.LeagueID)
	}
	if lg.status == models.DraftStatusCompleted {
		return nil, draft.NewPickError(draft.FailureDraftComplete, "draft already complete")
	}
	total := draft.TotalPicks(len(lg.order))

	if req.IdempotencyKey != "" {
		for _, p := range lg.picks {
			if p.IdempotencyKey == req.IdempotencyKey {
				res := f.resultFor(p.PickNumber, lg.order)
				res.Replayed = true
				return res, nil
			}
		}
	}

	count := len(lg.picks)
	if count >= total {
		return nil, draft.NewPickError(draft.FailureDraftComplete, "all slots filled")
	}
	round, idx := draft.ComputeTurn(count, len(lg.order))
	if lg.order[idx] != req.UserID {
		return nil, draft.NewPickError(draft.FailureNotYourTurn, "pick %d belongs to %s", count, lg.order[idx])
	}

	st := draft.BuildState(lg.order, lg.picks)
	inSeason := false
	for _, c := range f.castaways[lg.seasonID] {
		if c.ID == req.CastawayID {
			inSeason = true
		}
	}
	if !inSeason || st.Picked(req.CastawayID) {
		return nil, draft.NewPickError(draft.FailureCastawayUnavailable, "castaway %s is not available", req.CastawayID)
	}

	lg.picks = append(lg.picks, models.DraftPick{
		ID:             uuid.New(),
		LeagueID:       req.LeagueID,
		UserID:         req.UserID,
		CastawayID:     req.CastawayID,
		Round:          round,
		PickNumber:     count,
		IdempotencyKey: req.IdempotencyKey,
		PickedAt:       time.Now(),
	})
	res := f.resultFor(count, lg.order)
	switch {
	case res.DraftComplete:
		lg.status = models.DraftStatusCompleted
	case count == 0:
		lg.status = models.DraftStatusInProgress
	}
	return res, nil
}

func (f *fakeRepo) resultFor(pickNumber int, order []uuid.UUID) *PickResult {
	round, _ := draft.ComputeTurn(pickNumber, len(order))
	res := &PickResult{Round: round, PickNumber: pickNumber}
	if pickNumber+1 >= draft.TotalPicks(len(order)) {
		res.DraftComplete = true
		return res
	}
	_, nextIdx := draft.ComputeTurn(pickNumber+1, len(order))
	next := order[nextIdx]
	res.NextPickerUserID = &next
	return res
}

func (f *fakeRepo) ListPicksByLeague(_ context.Context, leagueID uuid.UUID) ([]models.DraftPick, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lg, ok := f.leagues[leagueID]
	if !ok {
		return nil, draft.NewPickError(draft.FailureLeagueNotFound, "league %s does not exist", leagueID)
	}
	return append([]models.DraftPick(nil), lg.picks...), nil
}

func (f *fakeRepo) ListSeasonCastaways(_ context.Context, seasonID uuid.UUID) ([]models.Castaway, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Castaway(nil), f.castaways[seasonID]...), nil
}

type recordingNotifier struct {
	mu          sync.Mutex
	confirmed   []PickConfirmation
	completions []DraftCompletion
}

func (n *recordingNotifier) PickConfirmed(_ context.Context, c PickConfirmation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, c)
	return nil
}

func (n *recordingNotifier) DraftCompleted(_ context.Context, c DraftCompletion) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completions = append(n.completions, c)
	return nil
}

func (n *recordingNotifier) counts() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.confirmed), len(n.completions)
}

func TestSubmitPickWrongTurn(t *testing.T) {
	repo := newFakeRepo()
	leagueID, lg := repo.addLeague(4)
	app := NewApp(repo, nil)

	// order[1] tries to jump order[0]'s turn.
	_, err := app.SubmitPick(context.Background(), SubmitPickRequest{
		LeagueID:   leagueID,
		UserID:     lg.order[1],
		CastawayID: repo.castaways[lg.seasonID][0].ID,
	})
	pe, ok := draft.AsPickError(err)
	require.True(t, ok)
	assert.Equal(t, draft.FailureNotYourTurn, pe.Code)
	assert.Empty(t, lg.picks, "a rejected pick must not create a record")
}

func TestSubmitPickUnknownLeague(t *testing.T) {
	app := NewApp(newFakeRepo(), nil)
	_, err := app.SubmitPick(context.Background(), SubmitPickRequest{
		LeagueID:   uuid.New(),
		UserID:     uuid.New(),
		CastawayID: uuid.New(),
	})
	pe, ok := draft.AsPickError(err)
	require.True(t, ok)
	assert.Equal(t, draft.FailureLeagueNotFound, pe.Code)
}

func TestSubmitPickValidation(t *testing.T) {
	app := NewApp(newFakeRepo(), nil)
	_, err := app.SubmitPick(context.Background(), SubmitPickRequest{UserID: uuid.New(), CastawayID: uuid.New()})
	require.Error(t, err)
	_, ok := draft.AsPickError(err)
	assert.False(t, ok, "bad input is a validation error, not a typed violation")
}

func TestSubmitPickDraftedCastawayUnavailable(t *testing.T) {
	repo := newFakeRepo()
	leagueID, lg := repo.addLeague(2)
	app := NewApp(repo, nil)
	ctx := context.Background()
	target := repo.castaways[lg.seasonID][0]

	_, err := app.SubmitPick(ctx, SubmitPickRequest{
		LeagueID: leagueID, UserID: lg.order[0], CastawayID: target.ID,
	})
	require.NoError(t, err)

	_, err = app.SubmitPick(ctx, SubmitPickRequest{
		LeagueID: leagueID, UserID: lg.order[1], CastawayID: target.ID,
	})
	pe, ok := draft.AsPickError(err)
	require.True(t, ok)
	assert.Equal(t, draft.FailureCastawayUnavailable, pe.Code)
}

func TestSubmitPickIdempotentReplay(t *testing.T) {
	repo := newFakeRepo()
	leagueID, lg := repo.addLeague(3)
	app := NewApp(repo, nil)
	ctx := context.Background()

	req := SubmitPickRequest{
		LeagueID:       leagueID,
		UserID:         lg.order[0],
		CastawayID:     repo.castaways[lg.seasonID][0].ID,
		IdempotencyKey: "client-retry-1",
	}
	first, err := app.SubmitPick(ctx, req)
	require.NoError(t, err)
	require.False(t, first.Replayed)

	second, err := app.SubmitPick(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.PickNumber, second.PickNumber)
	assert.Equal(t, first.Round, second.Round)
	assert.Len(t, lg.picks, 1, "a replay must not create a second record")
}

func TestSubmitPickConcurrentSameTurn(t *testing.T) {
	repo := newFakeRepo()
	leagueID, lg := repo.addLeague(6)
	app := NewApp(repo, nil)
	ctx := context.Background()

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(castaway uuid.UUID) {
			defer wg.Done()
			_, err := app.SubmitPick(ctx, SubmitPickRequest{
				LeagueID:   leagueID,
				UserID:     lg.order[0],
				CastawayID: castaway,
			})
			errs <- err
		}(repo.castaways[lg.seasonID][i].ID)
	}
	wg.Wait()
	close(errs)

	var failures, successes int
	for err := range errs {
		if err == nil {
			successes++
			continue
		}
		failures++
		_, ok := draft.AsPickError(err)
		assert.True(t, ok, "loser must observe a typed violation, got %v", err)
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, failures)
	require.Len(t, lg.picks, 1)
	assert.Equal(t, 0, lg.picks[0].PickNumber)
}

func TestFirstPickStartsDraft(t *testing.T) {
	repo := newFakeRepo()
	leagueID, lg := repo.addLeague(3)
	app := NewApp(repo, nil)
	ctx := context.Background()

	require.Equal(t, models.DraftStatusPending, lg.status)

	// The first commit moves the league into drafting; a league that was
	// never flipped by hand must still be selectable for auto-finalize.
	_, err := app.SubmitPick(ctx, SubmitPickRequest{
		LeagueID:   leagueID,
		UserID:     lg.order[0],
		CastawayID: repo.castaways[lg.seasonID][0].ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusInProgress, lg.status)

	_, err = app.SubmitPick(ctx, SubmitPickRequest{
		LeagueID:   leagueID,
		UserID:     lg.order[1],
		CastawayID: repo.castaways[lg.seasonID][1].ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusInProgress, lg.status, "mid-draft picks leave the status alone")
}

func TestDraftCompletesAtExactlyTotalPicks(t *testing.T) {
	repo := newFakeRepo()
	leagueID, lg := repo.addLeague(12)
	notifier := &recordingNotifier{}
	app := NewApp(repo, notifier)
	ctx := context.Background()

	var last *PickResult
	for i := 0; i < draft.TotalPicks(12); i++ {
		_, idx := draft.ComputeTurn(i, 12)
		res, err := app.SubmitPick(ctx, SubmitPickRequest{
			LeagueID:   leagueID,
			UserID:     lg.order[idx],
			CastawayID: repo.castaways[lg.seasonID][i].ID,
		})
		require.NoError(t, err, "pick %d", i)
		last = res
	}

	require.NotNil(t, last)
	assert.True(t, last.DraftComplete)
	assert.Nil(t, last.NextPickerUserID)
	assert.Equal(t, models.DraftStatusCompleted, lg.status)

	// No 25th pick for a 12-member, 2-per-roster league.
	_, err := app.SubmitPick(ctx, SubmitPickRequest{
		LeagueID:   leagueID,
		UserID:     lg.order[0],
		CastawayID: repo.castaways[lg.seasonID][24].ID,
	})
	pe, ok := draft.AsPickError(err)
	require.True(t, ok)
	assert.Equal(t, draft.FailureDraftComplete, pe.Code)
	assert.Len(t, lg.picks, 24)

	require.Eventually(t, func() bool {
		confirmed, completed := notifier.counts()
		return confirmed == 24 && completed == 1
	}, 2*time.Second, 10*time.Millisecond, "notifications are fired once per commit")
}

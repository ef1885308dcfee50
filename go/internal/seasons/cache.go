package seasons

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/penelopespawprint/reality-games-survivor/go/internal/models"
)

// Store defines what the cache needs from the repository.
type Store interface {
	GetActiveSeason(ctx context.Context) (*models.Season, error)
}

// Cache is the scheduler's read-cached view of the active season. Deadlines
// are edited by administrators; an explicit Invalidate forces the next read
// to hit the store so the scheduler re-arms against fresh values.
type Cache struct {
	mu    sync.Mutex
	store Store
	clock clockwork.Clock
	ttl   time.Duration

	season    *models.Season
	fetchedAt time.Time
	loaded    bool
}

// NewCache creates a season cache with the given refresh interval.
func NewCache(store Store, clock clockwork.Clock, ttl time.Duration) *Cache {
	return &Cache{
		store: store,
		clock: clock,
		ttl:   ttl,
	}
}

// ActiveSeason returns the cached active season, loading it from the store
// when the cache is cold, invalidated, or older than the ttl. A nil season
// with nil error means no season is currently active.
func (c *Cache) ActiveSeason(ctx context.Context) (*models.Season, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded && c.clock.Since(c.fetchedAt) < c.ttl {
		return c.season, nil
	}

	season, err := c.store.GetActiveSeason(ctx)
	if err != nil {
		// Serve the stale view if we have one; the next read retries.
		if c.loaded {
			log.Warn().Err(err).Msg("season refresh failed, serving cached view")
			return c.season, nil
		}
		return nil, err
	}

	c.season = season
	c.fetchedAt = c.clock.Now()
	c.loaded = true
	return c.season, nil
}

// Invalidate drops the cached view. Called after an administrator edits a
// deadline; the scheduler observes the new values on its next read.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.season = nil
}

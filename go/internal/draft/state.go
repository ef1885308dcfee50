package draft

import (
	"sort"

	"github.com/google/uuid"

	"github.com/penelopespawprint/reality-games-survivor/go/internal/models"
)

// State is the authoritative draft view derived from the ordered pick log.
// It is recomputed from committed picks rather than kept as a mutable cursor,
// so it cannot drift from the log.
type State struct {
	Status        models.DraftStatus
	PickCount     int
	TotalPicks    int
	Round         int
	PickerIndex   int
	CurrentPicker uuid.UUID
	picked        map[uuid.UUID]bool
}

// BuildState derives the draft state for a league from its draft order and
// committed picks. A league with no order, or an order but zero picks, is
// still pending; picks are expected to be ordered by pick number.
func BuildState(order []uuid.UUID, picks []models.DraftPick) State {
	st := State{
		PickCount:  len(picks),
		TotalPicks: TotalPicks(len(order)),
		picked:     make(map[uuid.UUID]bool, len(picks)),
	}
	for _, p := range picks {
		st.picked[p.CastawayID] = true
	}

	switch {
	case len(order) == 0 || len(picks) == 0:
		st.Status = models.DraftStatusPending
	case len(picks) >= st.TotalPicks:
		st.Status = models.DraftStatusCompleted
	default:
		st.Status = models.DraftStatusInProgress
	}

	if len(order) > 0 && len(picks) < st.TotalPicks {
		st.Round, st.PickerIndex = ComputeTurn(len(picks), len(order))
		st.CurrentPicker = order[st.PickerIndex]
	}
	return st
}

// Complete reports whether every roster slot has been filled.
func (s State) Complete() bool {
	return s.TotalPicks > 0 && s.PickCount >= s.TotalPicks
}

// Picked reports whether the castaway has already been drafted in this league.
func (s State) Picked(castawayID uuid.UUID) bool {
	return s.picked[castawayID]
}

// AvailablePool returns the season castaways not yet drafted in this league,
// in a stable order (name, then id) so auto-draft selection is reproducible.
func (s State) AvailablePool(castaways []models.Castaway) []models.Castaway {
	pool := make([]models.Castaway, 0, len(castaways))
	for _, c := range castaways {
		if !s.picked[c.ID] {
			pool = append(pool, c)
		}
	}
	sort.Slice(pool, func(i, j int) bool {
		if pool[i].Name != pool[j].Name {
			return pool[i].Name < pool[j].Name
		}
		return pool[i].ID.String() < pool[j].ID.String()
	})
	return pool
}

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kalleeh/monarchygame-sub001/internal/model"
	"github.com/kalleeh/monarchygame-sub001/internal/repository"
)

// WarRepo is an in-memory repository.WarRepository. A single mutex
// serializes score updates, giving the same no-lost-increment guarantee
// the Postgres store gets from atomic SQL updates.
type WarRepo struct {
	mu   sync.Mutex
	wars map[string]*model.GuildWar
}

// NewWarRepo creates an empty war store.
func NewWarRepo() *WarRepo {
	return &WarRepo{wars: make(map[string]*model.GuildWar)}
}

func cloneWar(w *model.GuildWar) *model.GuildWar {
	cp := *w
	cp.Contributions = make([]model.WarContribution, len(w.Contributions))
	copy(cp.Contributions, w.Contributions)
	if w.EndedAt != nil {
		t := *w.EndedAt
		cp.EndedAt = &t
	}
	return &cp
}

func pairMatches(w *model.GuildWar, guildA, guildB string) bool {
	return (w.AttackingGuildID == guildA && w.DefendingGuildID == guildB) ||
		(w.AttackingGuildID == guildB && w.DefendingGuildID == guildA)
}

// Create persists a new ACTIVE war, enforcing pair exclusivity under the
// store lock (the analogue of the Postgres partial unique index).
func (r *WarRepo) Create(_ context.Context, w *model.GuildWar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.wars {
		if existing.Status == model.WarStatusActive && pairMatches(existing, w.AttackingGuildID, w.DefendingGuildID) {
			return repository.ErrDuplicateWar
		}
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	r.wars[w.ID] = cloneWar(w)
	return nil
}

// FindByID returns a copy of the war, or (nil, nil) if absent.
func (r *WarRepo) FindByID(_ context.Context, id string) (*model.GuildWar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wars[id]
	if !ok {
		return nil, nil
	}
	return cloneWar(w), nil
}

// FindActiveBetween returns the ACTIVE war linking the pair in either
// direction, or (nil, nil).
func (r *WarRepo) FindActiveBetween(_ context.Context, guildA, guildB string) (*model.GuildWar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.wars {
		if w.Status == model.WarStatusActive && pairMatches(w, guildA, guildB) {
			return cloneWar(w), nil
		}
	}
	return nil, nil
}

// ListActive returns all wars still marked ACTIVE.
func (r *WarRepo) ListActive(_ context.Context) ([]model.GuildWar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.GuildWar
	for _, w := range r.wars {
		if w.Status == model.WarStatusActive {
			out = append(out, *cloneWar(w))
		}
	}
	return out, nil
}

// List returns every war.
func (r *WarRepo) List(_ context.Context) ([]model.GuildWar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.GuildWar, 0, len(r.wars))
	for _, w := range r.wars {
		out = append(out, *cloneWar(w))
	}
	return out, nil
}

// AddContribution adds points to the contributing guild's side and
// upserts the kingdom's contribution entry. No-op when the war is not
// ACTIVE or the guild is not a belligerent.
func (r *WarRepo) AddContribution(_ context.Context, warID, kingdomID, guildID string, points int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wars[warID]
	if !ok || w.Status != model.WarStatusActive {
		return nil
	}
	switch guildID {
	case w.AttackingGuildID:
		w.AttackingScore += points
	case w.DefendingGuildID:
		w.DefendingScore += points
	default:
		return nil
	}
	for i := range w.Contributions {
		if w.Contributions[i].KingdomID == kingdomID {
			w.Contributions[i].Score += points
			w.Contributions[i].AttackCount++
			return nil
		}
	}
	w.Contributions = append(w.Contributions, model.WarContribution{
		KingdomID:   kingdomID,
		GuildID:     guildID,
		Score:       points,
		AttackCount: 1,
	})
	return nil
}

// End transitions the war to ENDED, failing with ErrStatusConflict when
// it already ended. Once ENDED the record is immutable.
func (r *WarRepo) End(_ context.Context, warID, winnerGuildID string, endedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wars[warID]
	if !ok || w.Status != model.WarStatusActive {
		return repository.ErrStatusConflict
	}
	w.Status = model.WarStatusEnded
	w.WinnerGuildID = winnerGuildID
	t := endedAt.UTC()
	w.EndedAt = &t
	return nil
}

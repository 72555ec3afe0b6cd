// Package memory provides in-memory repository implementations for
// demo/local mode and unit tests. Semantics mirror the Postgres
// implementations: optimistic version checks, atomic score increments,
// conditional status transitions.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kalleeh/monarchygame-sub001/internal/model"
	"github.com/kalleeh/monarchygame-sub001/internal/repository"
)

// KingdomRepo is an in-memory repository.KingdomRepository.
type KingdomRepo struct {
	mu       sync.RWMutex
	kingdoms map[string]*model.Kingdom
}

// NewKingdomRepo creates an empty kingdom store.
func NewKingdomRepo() *KingdomRepo {
	return &KingdomRepo{kingdoms: make(map[string]*model.Kingdom)}
}

func cloneKingdom(k *model.Kingdom) *model.Kingdom {
	cp := *k
	cp.Units = make(map[string]int, len(k.Units))
	for t, n := range k.Units {
		cp.Units[t] = n
	}
	cp.Buildings = make(map[string]int, len(k.Buildings))
	for t, n := range k.Buildings {
		cp.Buildings[t] = n
	}
	return &cp
}

// Create stores a new kingdom, assigning an ID if absent.
func (r *KingdomRepo) Create(_ context.Context, k *model.Kingdom) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	k.CreatedAt = now
	k.UpdatedAt = now
	k.Version = 1
	r.kingdoms[k.ID] = cloneKingdom(k)
	return nil
}

// FindByID returns a copy of the kingdom, or (nil, nil) if absent.
func (r *KingdomRepo) FindByID(_ context.Context, id string) (*model.Kingdom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kingdoms[id]
	if !ok {
		return nil, nil
	}
	return cloneKingdom(k), nil
}

// FindByOwner returns all kingdoms owned by the given identity.
func (r *KingdomRepo) FindByOwner(_ context.Context, ownerID string) ([]model.Kingdom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Kingdom
	for _, k := range r.kingdoms {
		if k.OwnerID == ownerID {
			out = append(out, *cloneKingdom(k))
		}
	}
	return out, nil
}

// ListActive returns all kingdoms flagged active.
func (r *KingdomRepo) ListActive(_ context.Context) ([]model.Kingdom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Kingdom
	for _, k := range r.kingdoms {
		if k.Active {
			out = append(out, *cloneKingdom(k))
		}
	}
	return out, nil
}

// Update writes the kingdom back conditionally on its Version and bumps
// the version on success.
func (r *KingdomRepo) Update(_ context.Context, k *model.Kingdom) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.kingdoms[k.ID]
	if !ok || cur.Version != k.Version {
		return repository.ErrVersionConflict
	}
	k.Version++
	k.UpdatedAt = time.Now().UTC()
	r.kingdoms[k.ID] = cloneKingdom(k)
	return nil
}

// GuildRepo is an in-memory repository.GuildRepository.
type GuildRepo struct {
	mu     sync.Mutex
	guilds map[string]*model.Guild
}

// NewGuildRepo creates an empty guild store.
func NewGuildRepo() *GuildRepo {
	return &GuildRepo{guilds: make(map[string]*model.Guild)}
}

// Create stores a new guild, assigning an ID if absent.
func (r *GuildRepo) Create(_ context.Context, g *model.Guild) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.CreatedAt = time.Now().UTC()
	g.Version = 1
	cp := *g
	r.guilds[g.ID] = &cp
	return nil
}

// FindByID returns a copy of the guild, or (nil, nil) if absent.
func (r *GuildRepo) FindByID(_ context.Context, id string) (*model.Guild, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.guilds[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

// AdjustTreasury applies an atomic delta, refusing to overdraw.
func (r *GuildRepo) AdjustTreasury(_ context.Context, guildID string, delta int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.guilds[guildID]
	if !ok {
		return 0, repository.ErrStatusConflict
	}
	if g.Treasury+delta < 0 {
		return g.Treasury, repository.ErrInsufficientTreasury
	}
	g.Treasury += delta
	g.Version++
	return g.Treasury, nil
}

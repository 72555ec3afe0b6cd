package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kalleeh/monarchygame-sub001/internal/model"
	"github.com/kalleeh/monarchygame-sub001/internal/repository"
)

// ReportRepo is an in-memory repository.ReportRepository.
type ReportRepo struct {
	mu      sync.Mutex
	reports []model.BattleReport
}

// NewReportRepo creates an empty report store.
func NewReportRepo() *ReportRepo {
	return &ReportRepo{}
}

// Create appends an immutable battle report.
func (r *ReportRepo) Create(_ context.Context, rep *model.BattleReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rep.ID == "" {
		rep.ID = uuid.NewString()
	}
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = time.Now().UTC()
	}
	r.reports = append(r.reports, *rep)
	return nil
}

// ListByKingdom returns reports involving the kingdom, newest first.
func (r *ReportRepo) ListByKingdom(_ context.Context, kingdomID string, limit int) ([]model.BattleReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.BattleReport
	for _, rep := range r.reports {
		if rep.AttackerID == kingdomID || rep.DefenderID == kingdomID {
			out = append(out, rep)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// TerritoryRepo is an in-memory repository.TerritoryRepository.
type TerritoryRepo struct {
	mu          sync.Mutex
	territories map[string]*model.Territory
}

// NewTerritoryRepo creates an empty territory store.
func NewTerritoryRepo() *TerritoryRepo {
	return &TerritoryRepo{territories: make(map[string]*model.Territory)}
}

// Create stores a new territory claim.
func (r *TerritoryRepo) Create(_ context.Context, t *model.Territory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now().UTC()
	cp := *t
	r.territories[t.ID] = &cp
	return nil
}

// ExistsAt reports whether any kingdom has claimed the coordinates.
func (r *TerritoryRepo) ExistsAt(_ context.Context, x, y int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.territories {
		if t.X == x && t.Y == y {
			return true, nil
		}
	}
	return false, nil
}

// CountByRegion counts the kingdom's claims in a region.
func (r *TerritoryRepo) CountByRegion(_ context.Context, kingdomID, regionID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, t := range r.territories {
		if t.KingdomID == kingdomID && t.RegionID == regionID {
			count++
		}
	}
	return count, nil
}

// ListByKingdom returns the kingdom's claims.
func (r *TerritoryRepo) ListByKingdom(_ context.Context, kingdomID string) ([]model.Territory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Territory
	for _, t := range r.territories {
		if t.KingdomID == kingdomID {
			out = append(out, *t)
		}
	}
	return out, nil
}

// TradeRepo is an in-memory repository.TradeRepository.
type TradeRepo struct {
	mu     sync.Mutex
	offers map[string]*model.TradeOffer
}

// NewTradeRepo creates an empty trade store.
func NewTradeRepo() *TradeRepo {
	return &TradeRepo{offers: make(map[string]*model.TradeOffer)}
}

// Create stores a new trade offer.
func (r *TradeRepo) Create(_ context.Context, o *model.TradeOffer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.CreatedAt = time.Now().UTC()
	cp := *o
	r.offers[o.ID] = &cp
	return nil
}

// FindByID returns a copy of the offer, or (nil, nil) if absent.
func (r *TradeRepo) FindByID(_ context.Context, id string) (*model.TradeOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.offers[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

// ListOpen returns all open offers.
func (r *TradeRepo) ListOpen(_ context.Context) ([]model.TradeOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.TradeOffer
	for _, o := range r.offers {
		if o.Status == model.TradeOpen {
			out = append(out, *o)
		}
	}
	return out, nil
}

// Transition moves the offer from one status to another conditionally,
// so two concurrent accepts cannot both win.
func (r *TradeRepo) Transition(_ context.Context, id, from, to, acceptedByID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.offers[id]
	if !ok || o.Status != from {
		return repository.ErrStatusConflict
	}
	o.Status = to
	if acceptedByID != "" {
		o.AcceptedByID = acceptedByID
	}
	t := at.UTC()
	o.ResolvedAt = &t
	return nil
}

// TreatyRepo is an in-memory repository.TreatyRepository.
type TreatyRepo struct {
	mu       sync.Mutex
	treaties map[string]*model.Treaty
}

// NewTreatyRepo creates an empty treaty store.
func NewTreatyRepo() *TreatyRepo {
	return &TreatyRepo{treaties: make(map[string]*model.Treaty)}
}

// Create stores a new treaty proposal.
func (r *TreatyRepo) Create(_ context.Context, t *model.Treaty) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now().UTC()
	cp := *t
	r.treaties[t.ID] = &cp
	return nil
}

// FindByID returns a copy of the treaty, or (nil, nil) if absent.
func (r *TreatyRepo) FindByID(_ context.Context, id string) (*model.Treaty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.treaties[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

// ListByKingdom returns treaties the kingdom proposed or received.
func (r *TreatyRepo) ListByKingdom(_ context.Context, kingdomID string) ([]model.Treaty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Treaty
	for _, t := range r.treaties {
		if t.ProposerID == kingdomID || t.RecipientID == kingdomID {
			out = append(out, *t)
		}
	}
	return out, nil
}

// Transition moves the treaty between statuses conditionally.
func (r *TreatyRepo) Transition(_ context.Context, id, from, to string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.treaties[id]
	if !ok || t.Status != from {
		return repository.ErrStatusConflict
	}
	t.Status = to
	ts := at.UTC()
	t.ResolvedAt = &ts
	return nil
}

// BountyRepo is an in-memory repository.BountyRepository.
type BountyRepo struct {
	mu       sync.Mutex
	bounties map[string]*model.Bounty
}

// NewBountyRepo creates an empty bounty store.
func NewBountyRepo() *BountyRepo {
	return &BountyRepo{bounties: make(map[string]*model.Bounty)}
}

// Create stores a new bounty.
func (r *BountyRepo) Create(_ context.Context, b *model.Bounty) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.CreatedAt = time.Now().UTC()
	cp := *b
	r.bounties[b.ID] = &cp
	return nil
}

// FindByID returns a copy of the bounty, or (nil, nil) if absent.
func (r *BountyRepo) FindByID(_ context.Context, id string) (*model.Bounty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bounties[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

// ListOpenByTarget returns open bounties on the target kingdom.
func (r *BountyRepo) ListOpenByTarget(_ context.Context, targetID string) ([]model.Bounty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Bounty
	for _, b := range r.bounties {
		if b.TargetID == targetID && b.Status == model.BountyOpen {
			out = append(out, *b)
		}
	}
	return out, nil
}

// Claim marks an open bounty claimed; conditional so a bounty pays once.
func (r *BountyRepo) Claim(_ context.Context, id, claimedByID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bounties[id]
	if !ok || b.Status != model.BountyOpen {
		return repository.ErrStatusConflict
	}
	b.Status = model.BountyClaimed
	b.ClaimedByID = claimedByID
	t := at.UTC()
	b.ResolvedAt = &t
	return nil
}

// Cancel marks an open bounty cancelled.
func (r *BountyRepo) Cancel(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bounties[id]
	if !ok || b.Status != model.BountyOpen {
		return repository.ErrStatusConflict
	}
	b.Status = model.BountyCancelled
	t := at.UTC()
	b.ResolvedAt = &t
	return nil
}

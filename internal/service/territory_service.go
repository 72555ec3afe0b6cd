package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/kalleeh/monarchygame-sub001/internal/economy"
	"github.com/kalleeh/monarchygame-sub001/internal/model"
	"github.com/kalleeh/monarchygame-sub001/internal/repository"
	"github.com/kalleeh/monarchygame-sub001/pkg/combat"
)

// Claim bounds.
const (
	coordLimit         = 10000
	maxClaimsPerRegion = 5
)

// TerritoryService handles map claims.
type TerritoryService struct {
	territoryRepo repository.TerritoryRepository
	kingdomRepo   repository.KingdomRepository
}

// NewTerritoryService creates a TerritoryService.
func NewTerritoryService(territoryRepo repository.TerritoryRepository, kingdomRepo repository.KingdomRepository) *TerritoryService {
	return &TerritoryService{territoryRepo: territoryRepo, kingdomRepo: kingdomRepo}
}

// ClaimRequest carries a territory claim.
type ClaimRequest struct {
	KingdomID string
	OwnerID   string
	Name      string
	Terrain   string
	X, Y      int
	RegionID  string
	Category  string
}

// ClaimTerritory validates and persists a claim, charging 500 gold and
// one turn. Coordinates are exclusive world-wide; each kingdom holds at
// most five claims per region.
func (s *TerritoryService) ClaimTerritory(ctx context.Context, req ClaimRequest) (*model.Territory, error) {
	req.Name = strings.TrimSpace(req.Name)
	if len(req.Name) < 2 || len(req.Name) > 50 {
		return nil, fmt.Errorf("%w: name must be 2-50 characters", ErrInvalidInput)
	}
	if req.X < -coordLimit || req.X > coordLimit || req.Y < -coordLimit || req.Y > coordLimit {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
	}
	if req.Terrain != "" && !combat.KnownTerrain(req.Terrain) {
		return nil, fmt.Errorf("%w: unknown terrain %q", ErrInvalidInput, req.Terrain)
	}

	taken, err := s.territoryRepo.ExistsAt(ctx, req.X, req.Y)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: coordinates already claimed", ErrInvalidInput)
	}
	if req.RegionID != "" {
		count, err := s.territoryRepo.CountByRegion(ctx, req.KingdomID, req.RegionID)
		if err != nil {
			return nil, err
		}
		if count >= maxClaimsPerRegion {
			return nil, ErrRegionFull
		}
	}

	err = withRetry(ctx, func(ctx context.Context) error {
		k, err := s.kingdomRepo.FindByID(ctx, req.KingdomID)
		if err != nil {
			return err
		}
		if k == nil {
			return ErrKingdomNotFound
		}
		if k.OwnerID != req.OwnerID {
			return ErrNotOwner
		}
		if _, err := economy.Spend(k, economy.FieldGold, economy.TerritoryGoldCost); err != nil {
			return err
		}
		if _, err := economy.Spend(k, economy.FieldTurns, economy.TerritoryTurnCost); err != nil {
			return err
		}
		return s.kingdomRepo.Update(ctx, k)
	})
	if err != nil {
		return nil, err
	}

	t := &model.Territory{
		KingdomID: req.KingdomID,
		Name:      req.Name,
		Type:      "claim",
		Terrain:   req.Terrain,
		X:         req.X,
		Y:         req.Y,
		RegionID:  req.RegionID,
		Category:  req.Category,
	}
	if err := s.territoryRepo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ListTerritories returns a kingdom's claims.
func (s *TerritoryService) ListTerritories(ctx context.Context, kingdomID string) ([]model.Territory, error) {
	k, err := s.kingdomRepo.FindByID(ctx, kingdomID)
	if err != nil {
		return nil, err
	}
	if k == nil {
		return nil, ErrKingdomNotFound
	}
	return s.territoryRepo.ListByKingdom(ctx, kingdomID)
}

package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/kalleeh/monarchygame-sub001/internal/economy"
	"github.com/kalleeh/monarchygame-sub001/internal/model"
	"github.com/kalleeh/monarchygame-sub001/internal/repository"
	"github.com/kalleeh/monarchygame-sub001/pkg/combat"
)

// KingdomService handles kingdom lifecycle, training, construction and
// the periodic turn tick.
type KingdomService struct {
	kingdomRepo repository.KingdomRepository
	reportRepo  repository.ReportRepository
}

// NewKingdomService creates a KingdomService.
func NewKingdomService(kingdomRepo repository.KingdomRepository, reportRepo repository.ReportRepository) *KingdomService {
	return &KingdomService{kingdomRepo: kingdomRepo, reportRepo: reportRepo}
}

// CreateKingdom founds a new kingdom with race-specific starting
// resources.
func (s *KingdomService) CreateKingdom(ctx context.Context, ownerID, name, race string) (*model.Kingdom, error) {
	name = strings.TrimSpace(name)
	if len(name) < 2 || len(name) > 50 {
		return nil, fmt.Errorf("%w: name must be 2-50 characters", ErrInvalidInput)
	}
	if _, ok := combat.RaceFor(race); !ok {
		return nil, fmt.Errorf("%w: unknown race %q", ErrInvalidInput, race)
	}

	k := &model.Kingdom{
		OwnerID: ownerID,
		Name:    name,
		Race:    race,
		Resources: model.Resources{
			Gold:       economy.StartingResources.Gold,
			Population: economy.StartingResources.Population,
			Mana:       economy.StartingResources.Mana,
			Land:       economy.StartingResources.Land,
			Turns:      economy.StartingResources.Turns,
		},
		Units:     map[string]int{"soldier": 100, "archer": 50},
		Buildings: map[string]int{"farm": 5, "house": 10},
		AgePhase:  model.AgeEarly,
		Active:    true,
	}
	if err := s.kingdomRepo.Create(ctx, k); err != nil {
		return nil, err
	}
	return k, nil
}

// GetKingdom returns a kingdom by ID.
func (s *KingdomService) GetKingdom(ctx context.Context, id string) (*model.Kingdom, error) {
	k, err := s.kingdomRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if k == nil {
		return nil, ErrKingdomNotFound
	}
	return k, nil
}

// Reports returns the kingdom's recent battle reports.
func (s *KingdomService) Reports(ctx context.Context, kingdomID string, limit int) ([]model.BattleReport, error) {
	if _, err := s.GetKingdom(ctx, kingdomID); err != nil {
		return nil, err
	}
	return s.reportRepo.ListByKingdom(ctx, kingdomID, limit)
}

// TrainUnits buys quantity units of unitType, charging race-scaled gold.
func (s *KingdomService) TrainUnits(ctx context.Context, kingdomID, ownerID, unitType string, quantity int) (*model.Kingdom, error) {
	if quantity <= 0 || quantity > 100000 {
		return nil, fmt.Errorf("%w: quantity must be 1-100000", ErrInvalidInput)
	}
	baseCost, ok := economy.UnitCost(unitType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown unit type %q", ErrInvalidInput, unitType)
	}

	var out *model.Kingdom
	err := withRetry(ctx, func(ctx context.Context) error {
		k, err := s.ownedKingdom(ctx, kingdomID, ownerID)
		if err != nil {
			return err
		}
		cost := economy.ScaledCost(k, baseCost) * int64(quantity)
		if _, err := economy.Spend(k, economy.FieldGold, cost); err != nil {
			return err
		}
		k.Units[unitType] += quantity
		if err := s.kingdomRepo.Update(ctx, k); err != nil {
			return err
		}
		out = k
		return nil
	})
	return out, err
}

// ConstructBuildings buys quantity buildings of buildingType.
func (s *KingdomService) ConstructBuildings(ctx context.Context, kingdomID, ownerID, buildingType string, quantity int) (*model.Kingdom, error) {
	if quantity <= 0 || quantity > 10000 {
		return nil, fmt.Errorf("%w: quantity must be 1-10000", ErrInvalidInput)
	}
	baseCost, ok := economy.BuildingCost(buildingType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown building type %q", ErrInvalidInput, buildingType)
	}

	var out *model.Kingdom
	err := withRetry(ctx, func(ctx context.Context) error {
		k, err := s.ownedKingdom(ctx, kingdomID, ownerID)
		if err != nil {
			return err
		}
		cost := economy.ScaledCost(k, baseCost) * int64(quantity)
		if _, err := economy.Spend(k, economy.FieldGold, cost); err != nil {
			return err
		}
		k.Buildings[buildingType] += quantity
		if err := s.kingdomRepo.Update(ctx, k); err != nil {
			return err
		}
		out = k
		return nil
	})
	return out, err
}

// TickReport summarizes one turn tick over all active kingdoms.
type TickReport struct {
	Ticked  int `json:"ticked"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// TickTurns banks one turn for every active kingdom. A failure on one
// kingdom is logged and counted, never fatal to the batch.
func (s *KingdomService) TickTurns(ctx context.Context) (TickReport, error) {
	kingdoms, err := s.kingdomRepo.ListActive(ctx)
	if err != nil {
		return TickReport{}, fmt.Errorf("list active kingdoms: %w", err)
	}

	var report TickReport
	for i := range kingdoms {
		id := kingdoms[i].ID
		ticked, err := s.tickOne(ctx, id)
		switch {
		case err != nil:
			report.Failed++
			log.Error().Err(err).Str("kingdomId", id).Msg("Turn tick failed for kingdom")
		case ticked:
			report.Ticked++
		default:
			report.Skipped++
		}
	}
	return report, nil
}

func (s *KingdomService) tickOne(ctx context.Context, kingdomID string) (bool, error) {
	ticked := false
	err := withRetry(ctx, func(ctx context.Context) error {
		k, err := s.kingdomRepo.FindByID(ctx, kingdomID)
		if err != nil {
			return err
		}
		if k == nil {
			return ErrKingdomNotFound
		}
		if !economy.GenerateTurn(k) {
			ticked = false
			return nil
		}
		ticked = true
		return s.kingdomRepo.Update(ctx, k)
	})
	return ticked, err
}

// ownedKingdom loads a kingdom and verifies the caller owns it.
func (s *KingdomService) ownedKingdom(ctx context.Context, kingdomID, ownerID string) (*model.Kingdom, error) {
	k, err := s.kingdomRepo.FindByID(ctx, kingdomID)
	if err != nil {
		return nil, err
	}
	if k == nil {
		return nil, ErrKingdomNotFound
	}
	if k.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	return k, nil
}

package service

import (
	"context"
	"fmt"

	"github.com/kalleeh/monarchygame-sub001/internal/economy"
	"github.com/kalleeh/monarchygame-sub001/internal/model"
	"github.com/kalleeh/monarchygame-sub001/internal/repository"
	"github.com/kalleeh/monarchygame-sub001/pkg/combat"
)

// SpellService validates and casts spells from the fixed catalog.
type SpellService struct {
	kingdomRepo repository.KingdomRepository
	broadcaster Broadcaster
}

// NewSpellService creates a SpellService.
func NewSpellService(kingdomRepo repository.KingdomRepository, broadcaster Broadcaster) *SpellService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &SpellService{kingdomRepo: kingdomRepo, broadcaster: broadcaster}
}

// CastResult is the outcome of one spell cast.
type CastResult struct {
	Spell  string             `json:"spell"`
	Caster *model.Kingdom     `json:"caster"`
	Damage combat.SpellDamage `json:"damage"`
}

// CastSpell spends the spell's mana cost and applies its effect. Target
// existence is checked only for spells that take a target; utility
// spells ignore any target supplied.
func (s *SpellService) CastSpell(ctx context.Context, casterID, ownerID, spellID, targetID string) (*CastResult, error) {
	spell, ok := combat.SpellByID(spellID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown spell %q", ErrInvalidInput, spellID)
	}

	caster, err := s.kingdomRepo.FindByID(ctx, casterID)
	if err != nil {
		return nil, err
	}
	if caster == nil {
		return nil, ErrKingdomNotFound
	}
	if caster.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	if caster.Resources.Mana < spell.ManaCost {
		return nil, economy.ErrInsufficientResources
	}

	if spell.RequiresTarget {
		if targetID == "" || targetID == casterID {
			return nil, fmt.Errorf("%w: spell %q requires a target", ErrInvalidInput, spellID)
		}
		target, err := s.kingdomRepo.FindByID(ctx, targetID)
		if err != nil {
			return nil, err
		}
		if target == nil || !target.Active {
			return nil, ErrTargetNotFound
		}
	}

	// The mana is committed before any damage lands. The authoritative
	// sufficiency check is the Spend on the fresh read here, not the
	// early check above; a concurrent drain fails the cast with the
	// target untouched.
	var casterAfter *model.Kingdom
	err = withRetry(ctx, func(ctx context.Context) error {
		c, err := s.kingdomRepo.FindByID(ctx, casterID)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrKingdomNotFound
		}
		if _, err := economy.Spend(c, economy.FieldMana, spell.ManaCost); err != nil {
			return err
		}
		if err := s.kingdomRepo.Update(ctx, c); err != nil {
			return err
		}
		casterAfter = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	var dmg combat.SpellDamage
	if spell.RequiresTarget {
		err = withRetry(ctx, func(ctx context.Context) error {
			target, err := s.kingdomRepo.FindByID(ctx, targetID)
			if err != nil {
				return err
			}
			if target == nil || !target.Active {
				return ErrTargetNotFound
			}
			dmg = spell.DamageFor(target.Resources.Population, target.Units)
			target.Resources.Population -= dmg.PopulationLost
			for unit, n := range dmg.UnitsLost {
				target.Units[unit] -= n
				if target.Units[unit] < 0 {
					target.Units[unit] = 0
				}
			}
			return s.kingdomRepo.Update(ctx, target)
		})
		if err != nil {
			refundCost(ctx, s.kingdomRepo, casterID, economy.FieldMana, spell.ManaCost)
			return nil, err
		}
	}

	result := &CastResult{Spell: spell.ID, Caster: casterAfter, Damage: dmg}
	s.broadcaster.BroadcastEvent("spells", EventSpellCast, map[string]any{
		"spell":    spell.ID,
		"casterId": casterID,
		"targetId": targetID,
	})
	return result, nil
}

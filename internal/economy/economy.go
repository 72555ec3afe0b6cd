// Package economy implements the resource and turn economy: spending
// against non-negative pools, the turn-accrual cap, and the static cost
// tables scaled by each race's economic multiplier.
package economy

import (
	"errors"
	"fmt"
	"math"

	"github.com/kalleeh/monarchygame-sub001/internal/model"
	"github.com/kalleeh/monarchygame-sub001/pkg/combat"
)

var (
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrUnknownResource       = errors.New("unknown resource field")
)

// Resource field names accepted by Spend and trade offers.
const (
	FieldGold       = "gold"
	FieldPopulation = "population"
	FieldMana       = "mana"
	FieldLand       = "land"
	FieldTurns      = "turns"
)

// ValidField reports whether name is a spendable resource field.
func ValidField(name string) bool {
	switch name {
	case FieldGold, FieldPopulation, FieldMana, FieldLand, FieldTurns:
		return true
	}
	return false
}

func fieldRef(r *model.Resources, name string) (*int64, error) {
	switch name {
	case FieldGold:
		return &r.Gold, nil
	case FieldPopulation:
		return &r.Population, nil
	case FieldMana:
		return &r.Mana, nil
	case FieldLand:
		return &r.Land, nil
	case FieldTurns:
		return &r.Turns, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownResource, name)
}

// Balance returns the current amount of the named resource.
func Balance(k *model.Kingdom, field string) (int64, error) {
	ref, err := fieldRef(&k.Resources, field)
	if err != nil {
		return 0, err
	}
	return *ref, nil
}

// Spend decrements the named resource by amount. It fails with
// ErrInsufficientResources and leaves the balance untouched if the pool
// would go negative. Returns the new balance.
func Spend(k *model.Kingdom, field string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("negative spend amount %d", amount)
	}
	ref, err := fieldRef(&k.Resources, field)
	if err != nil {
		return 0, err
	}
	if amount > *ref {
		return *ref, fmt.Errorf("%w: %s %d < %d", ErrInsufficientResources, field, *ref, amount)
	}
	*ref -= amount
	return *ref, nil
}

// Credit increments the named resource by amount, clamping Turns at the
// cap.
func Credit(k *model.Kingdom, field string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("negative credit amount %d", amount)
	}
	ref, err := fieldRef(&k.Resources, field)
	if err != nil {
		return 0, err
	}
	*ref += amount
	if field == FieldTurns && *ref > model.MaxTurns {
		*ref = model.MaxTurns
	}
	return *ref, nil
}

// GenerateTurn banks one turn for the kingdom. Returns false (skipped)
// when the kingdom is already at the cap.
func GenerateTurn(k *model.Kingdom) bool {
	if k.Resources.Turns >= model.MaxTurns {
		return false
	}
	k.Resources.Turns++
	return true
}

// ScaledCost applies the kingdom's race economic multiplier to a base
// cost, rounding up so multipliers never make anything free.
func ScaledCost(k *model.Kingdom, base int64) int64 {
	race, _ := combat.RaceFor(k.Race)
	return int64(math.Ceil(float64(base) * race.EconomicMult))
}

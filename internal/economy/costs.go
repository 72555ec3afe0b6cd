package economy

// Static cost tables, in base gold/turns before the race economic
// multiplier is applied.

// unitGoldCost is the gold cost to train one unit of each type.
var unitGoldCost = map[string]int64{
	"soldier":  50,
	"archer":   75,
	"knight":   200,
	"mage":     175,
	"catapult": 400,
}

// buildingGoldCost is the gold cost to construct one building of each type.
var buildingGoldCost = map[string]int64{
	"farm":     100,
	"house":    80,
	"barracks": 250,
	"tower":    300,
	"vault":    500,
}

// Territory claims cost a flat gold fee plus one banked turn.
const (
	TerritoryGoldCost = 500
	TerritoryTurnCost = 1
)

// Attacks and thievery runs consume banked turns.
const (
	AttackTurnCost   = 2
	ThieveryTurnCost = 1
)

// UnitCost returns the base gold cost per unit, and whether the unit
// type is trainable.
func UnitCost(unitType string) (int64, bool) {
	c, ok := unitGoldCost[unitType]
	return c, ok
}

// BuildingCost returns the base gold cost per building, and whether the
// building type exists.
func BuildingCost(buildingType string) (int64, bool) {
	c, ok := buildingGoldCost[buildingType]
	return c, ok
}

// StartingResources are granted at kingdom creation, before the race
// profile shapes them.
var StartingResources = struct {
	Gold, Population, Mana, Land, Turns int64
}{
	Gold:       10000,
	Population: 5000,
	Mana:       500,
	Land:       1000,
	Turns:      50,
}

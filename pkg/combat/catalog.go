// Package combat implements the deterministic combat resolution engine.
// Resolution is a pure function of its inputs: given the same armies,
// modifiers and attack type it always produces the same outcome, which is
// what makes battle reports auditable and war score attribution trustworthy.
// The engine never touches kingdom state; callers apply the outcome.
package combat

// Attack types.
const (
	AttackStandard = "standard"
	AttackRaid     = "raid"
	AttackSiege    = "siege"
	AttackPillage  = "pillage"
)

// Result tiers.
const (
	TierDecisive = "decisive_victory"
	TierClose    = "close_result"
	TierDefeat   = "defeat"
)

// UnitStats holds the static offense/defense weights for a unit type.
type UnitStats struct {
	Offense int
	Defense int
}

// unitCatalog is the fixed set of trainable unit types.
var unitCatalog = map[string]UnitStats{
	"soldier":  {Offense: 3, Defense: 3},
	"archer":   {Offense: 4, Defense: 2},
	"knight":   {Offense: 7, Defense: 5},
	"mage":     {Offense: 6, Defense: 4},
	"catapult": {Offense: 10, Defense: 2},
}

// UnitStatsFor returns the stats for a unit type, and whether it exists.
func UnitStatsFor(unitType string) (UnitStats, bool) {
	s, ok := unitCatalog[unitType]
	return s, ok
}

// UnitTypes returns all known unit type names.
func UnitTypes() []string {
	out := make([]string, 0, len(unitCatalog))
	for t := range unitCatalog {
		out = append(out, t)
	}
	return out
}

// RaceProfile holds a race's combat leanings and its economic multiplier,
// which scales every gold/mana cost for kingdoms of that race.
type RaceProfile struct {
	OffenseMult  float64
	DefenseMult  float64
	EconomicMult float64
}

var raceCatalog = map[string]RaceProfile{
	"human":  {OffenseMult: 1.0, DefenseMult: 1.0, EconomicMult: 1.0},
	"elf":    {OffenseMult: 1.1, DefenseMult: 0.9, EconomicMult: 1.2},
	"dwarf":  {OffenseMult: 0.9, DefenseMult: 1.3, EconomicMult: 2.0},
	"orc":    {OffenseMult: 1.25, DefenseMult: 0.85, EconomicMult: 1.1},
	"undead": {OffenseMult: 1.05, DefenseMult: 1.05, EconomicMult: 1.5},
}

// RaceFor returns the profile for a race, and whether it exists.
// Unknown races resolve to a neutral profile so a bad record cannot
// poison resolution.
func RaceFor(race string) (RaceProfile, bool) {
	p, ok := raceCatalog[race]
	if !ok {
		return RaceProfile{OffenseMult: 1.0, DefenseMult: 1.0, EconomicMult: 1.0}, false
	}
	return p, true
}

// Races returns all known race names.
func Races() []string {
	out := make([]string, 0, len(raceCatalog))
	for r := range raceCatalog {
		out = append(out, r)
	}
	return out
}

// formationCatalog maps formation IDs to attacker power multipliers.
var formationCatalog = map[string]float64{
	"line":       1.0,
	"wedge":      1.15,
	"flank":      1.1,
	"shieldwall": 0.9,
}

// terrainCatalog maps terrain IDs to defender power multipliers; terrain
// always favors the defender or is neutral.
var terrainCatalog = map[string]float64{
	"plains":    1.0,
	"forest":    1.1,
	"hills":     1.15,
	"swamp":     1.2,
	"mountains": 1.3,
}

// FormationMult returns the attacker multiplier for a formation ID;
// unknown or empty IDs are neutral.
func FormationMult(id string) float64 {
	if m, ok := formationCatalog[id]; ok {
		return m
	}
	return 1.0
}

// TerrainMult returns the defender multiplier for a terrain ID;
// unknown or empty IDs are neutral.
func TerrainMult(id string) float64 {
	if m, ok := terrainCatalog[id]; ok {
		return m
	}
	return 1.0
}

// KnownFormation reports whether the formation ID exists in the catalog.
func KnownFormation(id string) bool {
	_, ok := formationCatalog[id]
	return ok
}

// KnownTerrain reports whether the terrain ID exists in the catalog.
func KnownTerrain(id string) bool {
	_, ok := terrainCatalog[id]
	return ok
}

// ValidAttackType reports whether t names a supported attack type.
func ValidAttackType(t string) bool {
	switch t {
	case AttackStandard, AttackRaid, AttackSiege, AttackPillage:
		return true
	}
	return false
}

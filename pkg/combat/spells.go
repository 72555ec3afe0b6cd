package combat

// Spell describes one entry in the fixed spell catalog. Mana costs are
// spell-specific; targeted spells require a living target kingdom.
type Spell struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ManaCost       int64  `json:"mana_cost"`
	RequiresTarget bool   `json:"requires_target"`
	// Damage knobs, zero for utility spells. PopulationShare is applied
	// to the target's population, UnitShare to each of its unit counts.
	PopulationShare float64 `json:"-"`
	UnitShare       float64 `json:"-"`
}

var spellCatalog = map[string]Spell{
	"calming_chant": {
		ID: "calming_chant", Name: "Calming Chant", ManaCost: 50,
	},
	"prosperity": {
		ID: "prosperity", Name: "Prosperity", ManaCost: 60,
	},
	"shroud": {
		ID: "shroud", Name: "Shroud", ManaCost: 40,
	},
	"fireball": {
		ID: "fireball", Name: "Fireball", ManaCost: 75,
		RequiresTarget: true, PopulationShare: 0.02,
	},
	"lightning_storm": {
		ID: "lightning_storm", Name: "Lightning Storm", ManaCost: 90,
		RequiresTarget: true, PopulationShare: 0.01, UnitShare: 0.03,
	},
}

// SpellByID looks up a spell in the catalog.
func SpellByID(id string) (Spell, bool) {
	s, ok := spellCatalog[id]
	return s, ok
}

// SpellDamage is the deterministic damage report for an offensive spell
// against a target's current holdings.
type SpellDamage struct {
	PopulationLost int64          `json:"population_lost"`
	UnitsLost      map[string]int `json:"units_lost,omitempty"`
}

// DamageFor computes the spell's effect on a target. Utility spells
// return a zero report. Losses never exceed what the target has.
func (s Spell) DamageFor(targetPopulation int64, targetUnits map[string]int) SpellDamage {
	dmg := SpellDamage{}
	if s.PopulationShare > 0 && targetPopulation > 0 {
		lost := int64(float64(targetPopulation) * s.PopulationShare)
		if lost > targetPopulation {
			lost = targetPopulation
		}
		dmg.PopulationLost = lost
	}
	if s.UnitShare > 0 {
		dmg.UnitsLost = applyCasualties(targetUnits, s.UnitShare)
	}
	return dmg
}

package combat

import (
	"math"
	"sort"
)

// Fixed resolution constants. A single attack can never seize more than
// baseLandRate*capRatio of the defender's land, nor loot more than
// maxGoldShare of the defender's gold, regardless of power disparity.
const (
	baseLandRate = 0.07
	capRatio     = 1.5

	baseGoldRate = 0.05
	maxGoldShare = 0.15

	baseCasualtyRate = 0.10

	decisiveThreshold = 1.2
	defeatThreshold   = 0.8
)

// War points awarded per result tier when an attack counts toward a
// guild war.
const (
	PointsDecisive = 15
	PointsClose    = 10
	PointsDefeat   = 5
)

// Modifiers adjust effective power on each side.
type Modifiers struct {
	AttackerRace string
	DefenderRace string
	FormationID  string // attacker's formation, optional
	TerrainID    string // battlefield terrain, optional; favors defense
}

// Input is everything resolution needs. DefenderLand and DefenderGold are
// the defender's holdings at the time of the attack.
type Input struct {
	AttackerUnits map[string]int
	DefenderUnits map[string]int
	DefenderLand  int64
	DefenderGold  int64
	AttackType    string
	Modifiers     Modifiers
}

// Outcome is the fully-determined result of one attack.
type Outcome struct {
	ResultTier         string         `json:"result_tier"`
	PowerRatio         float64        `json:"power_ratio"`
	AttackerCasualties map[string]int `json:"attacker_casualties"`
	DefenderCasualties map[string]int `json:"defender_casualties"`
	LandGained         int64          `json:"land_gained"`
	GoldLooted         int64          `json:"gold_looted"`
	WarPoints          int64          `json:"war_points"`
}

// typeProfile biases how each attack type splits its spoils and losses.
type typeProfile struct {
	land   float64
	gold   float64
	atkCas float64
	defCas float64
}

var typeProfiles = map[string]typeProfile{
	AttackStandard: {land: 1.0, gold: 1.0, atkCas: 1.0, defCas: 1.0},
	AttackRaid:     {land: 0.5, gold: 1.2, atkCas: 0.8, defCas: 0.8},
	AttackSiege:    {land: 1.4, gold: 0.6, atkCas: 1.5, defCas: 1.2},
	AttackPillage:  {land: 0.3, gold: 2.0, atkCas: 0.9, defCas: 0.7},
}

// Resolve adjudicates one attack. It is a pure function: no randomness,
// no clock, no mutation of its inputs.
func Resolve(in Input) Outcome {
	prof, ok := typeProfiles[in.AttackType]
	if !ok {
		prof = typeProfiles[AttackStandard]
	}

	atkRace, _ := RaceFor(in.Modifiers.AttackerRace)
	defRace, _ := RaceFor(in.Modifiers.DefenderRace)

	atkPower := effectivePower(in.AttackerUnits, true) *
		atkRace.OffenseMult * FormationMult(in.Modifiers.FormationID)
	defPower := effectivePower(in.DefenderUnits, false) *
		defRace.DefenseMult * TerrainMult(in.Modifiers.TerrainID)

	ratio := atkPower / math.Max(defPower, 1)

	// Boundary ratios resolve to the lower tier, so exactly 1.2 is a
	// close result and exactly 0.8 is not a defeat.
	tier := TierDefeat
	switch {
	case ratio > decisiveThreshold:
		tier = TierDecisive
	case ratio >= defeatThreshold:
		tier = TierClose
	}

	out := Outcome{
		ResultTier: tier,
		PowerRatio: ratio,
		WarPoints:  warPoints(tier),
	}

	if tier != TierDefeat {
		out.LandGained = landGained(in.DefenderLand, ratio, prof)
		out.GoldLooted = goldLooted(in.DefenderGold, ratio, prof)
	}

	atkFrac, defFrac := casualtyFractions(ratio, tier, prof)
	out.AttackerCasualties = applyCasualties(in.AttackerUnits, atkFrac)
	out.DefenderCasualties = applyCasualties(in.DefenderUnits, defFrac)

	return out
}

// PowerRatio compares raw offensive power against raw defensive power
// with race multipliers applied, without formation or terrain. Used for
// sub-combat contests like thievery.
func PowerRatio(attackerUnits, defenderUnits map[string]int, attackerRace, defenderRace string) float64 {
	atkRace, _ := RaceFor(attackerRace)
	defRace, _ := RaceFor(defenderRace)
	atk := effectivePower(attackerUnits, true) * atkRace.OffenseMult
	def := effectivePower(defenderUnits, false) * defRace.DefenseMult
	return atk / math.Max(def, 1)
}

// effectivePower is the weighted sum over unit types. Iteration order is
// irrelevant to the sum, but units are walked in sorted order anyway so
// debugging traces are stable.
func effectivePower(units map[string]int, offense bool) float64 {
	types := make([]string, 0, len(units))
	for t := range units {
		types = append(types, t)
	}
	sort.Strings(types)

	total := 0.0
	for _, t := range types {
		count := units[t]
		if count <= 0 {
			continue
		}
		stats, ok := UnitStatsFor(t)
		if !ok {
			continue
		}
		w := stats.Defense
		if offense {
			w = stats.Offense
		}
		total += float64(count) * float64(w)
	}
	return total
}

func landGained(defenderLand int64, ratio float64, prof typeProfile) int64 {
	if defenderLand <= 0 {
		return 0
	}
	raw := float64(defenderLand) * baseLandRate * math.Min(ratio, capRatio) * prof.land
	gained := int64(math.Floor(raw))
	// The absolute ceiling holds even for land-biased attack types.
	ceiling := int64(math.Floor(float64(defenderLand) * baseLandRate * capRatio))
	if gained > ceiling {
		gained = ceiling
	}
	if gained < 0 {
		gained = 0
	}
	return gained
}

func goldLooted(defenderGold int64, ratio float64, prof typeProfile) int64 {
	if defenderGold <= 0 {
		return 0
	}
	raw := float64(defenderGold) * baseGoldRate * math.Min(ratio, capRatio) * prof.gold
	looted := int64(math.Floor(raw))
	ceiling := int64(math.Floor(float64(defenderGold) * maxGoldShare))
	if looted > ceiling {
		looted = ceiling
	}
	if looted < 0 {
		looted = 0
	}
	return looted
}

// casualtyFractions derives per-side loss fractions from relative power.
// A stronger attacker loses less and inflicts more; the defeat tier flips
// that. The ratio is clamped so fractions stay inside sane bounds.
func casualtyFractions(ratio float64, tier string, prof typeProfile) (atkFrac, defFrac float64) {
	r := math.Min(math.Max(ratio, 0.25), 4.0)

	atkFrac = baseCasualtyRate * prof.atkCas / r
	defFrac = baseCasualtyRate * prof.defCas * r

	switch tier {
	case TierDecisive:
		atkFrac *= 0.75
		defFrac *= 1.5
	case TierDefeat:
		atkFrac *= 1.5
		defFrac *= 0.5
	}

	return clampFrac(atkFrac), clampFrac(defFrac)
}

func clampFrac(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// applyCasualties floors losses per unit type and never exceeds the
// units actually present. Types outside the catalog contribute no power
// and take no losses.
func applyCasualties(units map[string]int, frac float64) map[string]int {
	out := make(map[string]int, len(units))
	for t, count := range units {
		if count <= 0 {
			continue
		}
		if _, ok := UnitStatsFor(t); !ok {
			continue
		}
		lost := int(math.Floor(float64(count) * frac))
		if lost > count {
			lost = count
		}
		if lost > 0 {
			out[t] = lost
		}
	}
	return out
}

func warPoints(tier string) int64 {
	switch tier {
	case TierDecisive:
		return PointsDecisive
	case TierClose:
		return PointsClose
	default:
		return PointsDefeat
	}
}

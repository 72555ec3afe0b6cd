package combat

import (
	"math"
	"reflect"
	"testing"
)

func input(atk, def map[string]int, attackType string) Input {
	return Input{
		AttackerUnits: atk,
		DefenderUnits: def,
		DefenderLand:  1000,
		DefenderGold:  10000,
		AttackType:    attackType,
		Modifiers:     Modifiers{AttackerRace: "human", DefenderRace: "human"},
	}
}

func TestResolveDeterministic(t *testing.T) {
	in := input(
		map[string]int{"soldier": 500, "knight": 100},
		map[string]int{"soldier": 300, "archer": 200},
		AttackStandard,
	)
	first := Resolve(in)
	for i := 0; i < 10; i++ {
		if got := Resolve(in); !reflect.DeepEqual(got, first) {
			t.Fatalf("resolution not deterministic: %+v vs %+v", got, first)
		}
	}
}

func TestResolveDoesNotMutateInputs(t *testing.T) {
	atk := map[string]int{"soldier": 500}
	def := map[string]int{"soldier": 100}
	Resolve(input(atk, def, AttackStandard))
	if atk["soldier"] != 500 || def["soldier"] != 100 {
		t.Errorf("inputs mutated: atk=%v def=%v", atk, def)
	}
}

func TestResolveTiers(t *testing.T) {
	tests := []struct {
		name     string
		atk, def map[string]int
		wantTier string
	}{
		{"overwhelming attacker", map[string]int{"knight": 1000}, map[string]int{"soldier": 10}, TierDecisive},
		{"evenly matched", map[string]int{"soldier": 100}, map[string]int{"soldier": 100}, TierClose},
		{"outmatched attacker", map[string]int{"soldier": 10}, map[string]int{"knight": 1000}, TierDefeat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Resolve(input(tt.atk, tt.def, AttackStandard))
			if out.ResultTier != tt.wantTier {
				t.Errorf("ratio %.3f: expected %s, got %s", out.PowerRatio, tt.wantTier, out.ResultTier)
			}
		})
	}
}

func TestResolveDefeatTransfersNothing(t *testing.T) {
	out := Resolve(input(
		map[string]int{"soldier": 10},
		map[string]int{"knight": 1000},
		AttackStandard,
	))
	if out.ResultTier != TierDefeat {
		t.Fatalf("expected defeat, got %s", out.ResultTier)
	}
	if out.LandGained != 0 || out.GoldLooted != 0 {
		t.Errorf("defeat must transfer nothing, got land=%d gold=%d", out.LandGained, out.GoldLooted)
	}
	if out.WarPoints != PointsDefeat {
		t.Errorf("expected %d war points, got %d", PointsDefeat, out.WarPoints)
	}
}

func TestLandGainedNeverExceedsCeiling(t *testing.T) {
	// Even an absurd power disparity stays under the absolute cap.
	for _, attackType := range []string{AttackStandard, AttackRaid, AttackSiege, AttackPillage} {
		out := Resolve(input(
			map[string]int{"knight": 100000},
			map[string]int{"soldier": 1},
			attackType,
		))
		ceiling := int64(math.Floor(1000 * 0.07 * 1.5))
		if out.LandGained > ceiling {
			t.Errorf("%s: land %d exceeds ceiling %d", attackType, out.LandGained, ceiling)
		}
	}
}

func TestGoldLootedCappedPerAttack(t *testing.T) {
	out := Resolve(input(
		map[string]int{"knight": 100000},
		map[string]int{"soldier": 1},
		AttackPillage,
	))
	cap := int64(math.Floor(10000 * 0.15))
	if out.GoldLooted > cap {
		t.Errorf("gold %d exceeds per-attack cap %d", out.GoldLooted, cap)
	}
	if out.GoldLooted == 0 {
		t.Error("expected pillage against weak defender to loot gold")
	}
}

func TestAttackTypeBias(t *testing.T) {
	atk := map[string]int{"knight": 500}
	def := map[string]int{"soldier": 300}

	siege := Resolve(input(atk, def, AttackSiege))
	pillage := Resolve(input(atk, def, AttackPillage))

	if siege.LandGained <= pillage.LandGained {
		t.Errorf("siege should take more land than pillage: %d vs %d", siege.LandGained, pillage.LandGained)
	}
	if pillage.GoldLooted <= siege.GoldLooted {
		t.Errorf("pillage should loot more gold than siege: %d vs %d", pillage.GoldLooted, siege.GoldLooted)
	}
}

func TestCasualtiesNeverExceedUnitsPresent(t *testing.T) {
	out := Resolve(input(
		map[string]int{"soldier": 3},
		map[string]int{"knight": 10000},
		AttackSiege,
	))
	for unit, lost := range out.AttackerCasualties {
		if lost > 3 {
			t.Errorf("attacker lost %d %s but only sent 3", lost, unit)
		}
	}
}

func TestCasualtiesFavorStrongerSide(t *testing.T) {
	out := Resolve(input(
		map[string]int{"knight": 1000},
		map[string]int{"soldier": 1000},
		AttackStandard,
	))
	atkLost := out.AttackerCasualties["knight"]
	defLost := out.DefenderCasualties["soldier"]
	if atkLost >= defLost {
		t.Errorf("stronger attacker should lose fewer units: atk %d vs def %d", atkLost, defLost)
	}
}

func TestRaceModifiersShiftOutcome(t *testing.T) {
	atk := map[string]int{"soldier": 100}
	def := map[string]int{"soldier": 100}

	base := Resolve(input(atk, def, AttackStandard))

	orcIn := input(atk, def, AttackStandard)
	orcIn.Modifiers.AttackerRace = "orc"
	orc := Resolve(orcIn)

	if orc.PowerRatio <= base.PowerRatio {
		t.Errorf("orc offense bonus should raise the ratio: %.3f vs %.3f", orc.PowerRatio, base.PowerRatio)
	}
}

func TestTerrainFavorsDefender(t *testing.T) {
	atk := map[string]int{"soldier": 120}
	def := map[string]int{"soldier": 100}

	plains := input(atk, def, AttackStandard)
	plains.Modifiers.TerrainID = "plains"
	mountains := input(atk, def, AttackStandard)
	mountains.Modifiers.TerrainID = "mountains"

	if Resolve(mountains).PowerRatio >= Resolve(plains).PowerRatio {
		t.Error("mountain terrain should lower the attacker's effective ratio")
	}
}

func TestUnknownUnitsIgnored(t *testing.T) {
	out := Resolve(input(
		map[string]int{"soldier": 100, "dragon": 9999},
		map[string]int{"soldier": 100},
		AttackStandard,
	))
	if _, ok := out.AttackerCasualties["dragon"]; ok {
		t.Error("unknown unit type should not appear in casualties")
	}
}

func TestWarPointsPerTier(t *testing.T) {
	tests := []struct {
		tier string
		want int64
	}{
		{TierDecisive, PointsDecisive},
		{TierClose, PointsClose},
		{TierDefeat, PointsDefeat},
	}
	for _, tt := range tests {
		if got := warPoints(tt.tier); got != tt.want {
			t.Errorf("warPoints(%s) = %d, want %d", tt.tier, got, tt.want)
		}
	}
}

func TestPowerRatioNeutralForUnknownRace(t *testing.T) {
	known := PowerRatio(map[string]int{"soldier": 100}, map[string]int{"soldier": 100}, "human", "human")
	unknown := PowerRatio(map[string]int{"soldier": 100}, map[string]int{"soldier": 100}, "martian", "venusian")
	if known != unknown {
		t.Errorf("unknown races should resolve to neutral multipliers: %.3f vs %.3f", known, unknown)
	}
}

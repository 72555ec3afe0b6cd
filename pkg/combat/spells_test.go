package combat

import "testing"

func TestSpellCatalog(t *testing.T) {
	tests := []struct {
		id             string
		manaCost       int64
		requiresTarget bool
	}{
		{"calming_chant", 50, false},
		{"prosperity", 60, false},
		{"shroud", 40, false},
		{"fireball", 75, true},
		{"lightning_storm", 90, true},
	}
	for _, tt := range tests {
		s, ok := SpellByID(tt.id)
		if !ok {
			t.Fatalf("spell %s missing from catalog", tt.id)
		}
		if s.ManaCost != tt.manaCost {
			t.Errorf("%s: expected mana cost %d, got %d", tt.id, tt.manaCost, s.ManaCost)
		}
		if s.RequiresTarget != tt.requiresTarget {
			t.Errorf("%s: expected requiresTarget=%v", tt.id, tt.requiresTarget)
		}
	}

	if _, ok := SpellByID("summon_kraken"); ok {
		t.Error("unknown spell should not resolve")
	}
}

func TestDamageForUtilitySpellIsZero(t *testing.T) {
	s, _ := SpellByID("calming_chant")
	dmg := s.DamageFor(5000, map[string]int{"soldier": 100})
	if dmg.PopulationLost != 0 || len(dmg.UnitsLost) != 0 {
		t.Errorf("utility spell should deal no damage, got %+v", dmg)
	}
}

func TestDamageForFireball(t *testing.T) {
	s, _ := SpellByID("fireball")
	dmg := s.DamageFor(5000, map[string]int{"soldier": 100})
	if dmg.PopulationLost != 100 { // 2% of 5000
		t.Errorf("expected 100 population lost, got %d", dmg.PopulationLost)
	}
	if len(dmg.UnitsLost) != 0 {
		t.Errorf("fireball should not kill units, got %v", dmg.UnitsLost)
	}
}

func TestDamageForNeverExceedsHoldings(t *testing.T) {
	s, _ := SpellByID("lightning_storm")
	dmg := s.DamageFor(10, map[string]int{"soldier": 1})
	if dmg.PopulationLost > 10 {
		t.Errorf("population lost %d exceeds population 10", dmg.PopulationLost)
	}
	if dmg.UnitsLost["soldier"] > 1 {
		t.Errorf("units lost %d exceeds units 1", dmg.UnitsLost["soldier"])
	}
}

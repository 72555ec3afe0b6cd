package service

import (
	"context"
	"errors"
	"testing"

	"github.com/kalleeh/monarchygame-sub001/internal/economy"
	"github.com/kalleeh/monarchygame-sub001/internal/model"
	"github.com/kalleeh/monarchygame-sub001/internal/repository/memory"
)

func newSpellFixture(t *testing.T) (*SpellService, *memory.KingdomRepo, *model.Kingdom, *model.Kingdom) {
	t.Helper()
	kingdoms := memory.NewKingdomRepo()
	svc := NewSpellService(kingdoms, nil)
	caster := seedKingdom(t, kingdoms, "owner-c")
	target := seedKingdom(t, kingdoms, "owner-t")
	return svc, kingdoms, caster, target
}

func TestCastUtilitySpell(t *testing.T) {
	svc, _, caster, _ := newSpellFixture(t)

	res, err := svc.CastSpell(context.Background(), caster.ID, "owner-c", "calming_chant", "")
	if err != nil {
		t.Fatalf("CastSpell: %v", err)
	}
	if res.Spell != "calming_chant" {
		t.Errorf("spell = %q", res.Spell)
	}
	if res.Caster.Resources.Mana != 450 {
		t.Errorf("caster mana = %d, want 450", res.Caster.Resources.Mana)
	}
	if res.Damage.PopulationLost != 0 || len(res.Damage.UnitsLost) != 0 {
		t.Errorf("utility spell must not damage anyone: %+v", res.Damage)
	}
	// A supplied target is ignored for utility spells.
	if _, err := svc.CastSpell(context.Background(), caster.ID, "owner-c", "prosperity", "ghost"); err != nil {
		t.Errorf("utility with bogus target: %v", err)
	}
}

func TestCastOffensiveSpell(t *testing.T) {
	svc, kingdoms, caster, target := newSpellFixture(t)

	res, err := svc.CastSpell(context.Background(), caster.ID, "owner-c", "fireball", target.ID)
	if err != nil {
		t.Fatalf("CastSpell: %v", err)
	}
	// Fireball burns 2% of a 5000 population.
	if res.Damage.PopulationLost != 100 {
		t.Errorf("population lost = %d, want 100", res.Damage.PopulationLost)
	}
	if res.Caster.Resources.Mana != 425 {
		t.Errorf("caster mana = %d, want 425", res.Caster.Resources.Mana)
	}

	got := mustKingdom(t, kingdoms, target.ID)
	if got.Resources.Population != 4900 {
		t.Errorf("target population = %d, want 4900", got.Resources.Population)
	}
}

func TestCastLightningStormHitsUnits(t *testing.T) {
	svc, kingdoms, caster, target := newSpellFixture(t)

	res, err := svc.CastSpell(context.Background(), caster.ID, "owner-c", "lightning_storm", target.ID)
	if err != nil {
		t.Fatalf("CastSpell: %v", err)
	}
	// 3% of 100 soldiers and of 50 archers.
	if res.Damage.UnitsLost["soldier"] != 3 || res.Damage.UnitsLost["archer"] != 1 {
		t.Errorf("units lost = %v", res.Damage.UnitsLost)
	}
	got := mustKingdom(t, kingdoms, target.ID)
	if got.Units["soldier"] != 97 || got.Units["archer"] != 49 {
		t.Errorf("target army = %v", got.Units)
	}
}

func TestCastSpellChecks(t *testing.T) {
	svc, _, caster, _ := newSpellFixture(t)

	if _, err := svc.CastSpell(context.Background(), caster.ID, "owner-c", "meteor", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unknown spell: got %v", err)
	}
	if _, err := svc.CastSpell(context.Background(), caster.ID, "impostor", "calming_chant", ""); !errors.Is(err, ErrNotOwner) {
		t.Errorf("wrong owner: got %v", err)
	}
	if _, err := svc.CastSpell(context.Background(), caster.ID, "owner-c", "fireball", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing target: got %v", err)
	}
	if _, err := svc.CastSpell(context.Background(), caster.ID, "owner-c", "fireball", caster.ID); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("self target: got %v", err)
	}
	if _, err := svc.CastSpell(context.Background(), caster.ID, "owner-c", "fireball", "ghost"); !errors.Is(err, ErrTargetNotFound) {
		t.Errorf("unknown target: got %v", err)
	}
}

func TestCastSpellInsufficientMana(t *testing.T) {
	kingdoms := memory.NewKingdomRepo()
	svc := NewSpellService(kingdoms, nil)
	caster := seedKingdom(t, kingdoms, "owner-c", func(k *model.Kingdom) { k.Resources.Mana = 30 })

	if _, err := svc.CastSpell(context.Background(), caster.ID, "owner-c", "calming_chant", ""); !errors.Is(err, economy.ErrInsufficientResources) {
		t.Fatalf("expected ErrInsufficientResources, got %v", err)
	}
	if got := mustKingdom(t, kingdoms, caster.ID); got.Resources.Mana != 30 {
		t.Error("failed cast must not burn mana")
	}
}

// drainOnReread wraps the kingdom store and empties the caster's mana
// after the first read returns, imitating a concurrent spend landing
// between the early sufficiency check and the authoritative deduction.
type drainOnReread struct {
	*memory.KingdomRepo
	casterID string
	reads    int
}

func (r *drainOnReread) FindByID(ctx context.Context, id string) (*model.Kingdom, error) {
	k, err := r.KingdomRepo.FindByID(ctx, id)
	if err != nil || k == nil || id != r.casterID {
		return k, err
	}
	r.reads++
	if r.reads == 1 {
		fresh, err := r.KingdomRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		fresh.Resources.Mana = 0
		if err := r.KingdomRepo.Update(ctx, fresh); err != nil {
			return nil, err
		}
	}
	return k, err
}

func TestCastSpellConcurrentManaDrainSparesTarget(t *testing.T) {
	kingdoms := memory.NewKingdomRepo()
	caster := seedKingdom(t, kingdoms, "owner-c")
	target := seedKingdom(t, kingdoms, "owner-t")
	svc := NewSpellService(&drainOnReread{KingdomRepo: kingdoms, casterID: caster.ID}, nil)

	_, err := svc.CastSpell(context.Background(), caster.ID, "owner-c", "fireball", target.ID)
	if !errors.Is(err, economy.ErrInsufficientResources) {
		t.Fatalf("expected ErrInsufficientResources, got %v", err)
	}

	got := mustKingdom(t, kingdoms, target.ID)
	if got.Resources.Population != 5000 {
		t.Errorf("target must be untouched when the spend fails, got population %d", got.Resources.Population)
	}
	if got := mustKingdom(t, kingdoms, caster.ID); got.Resources.Mana != 0 {
		t.Errorf("drained caster mana should stay at 0, got %d", got.Resources.Mana)
	}
}

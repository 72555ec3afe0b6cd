package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kalleeh/monarchygame-sub001/internal/economy"
	"github.com/kalleeh/monarchygame-sub001/internal/model"
	"github.com/kalleeh/monarchygame-sub001/internal/repository/memory"
	"github.com/kalleeh/monarchygame-sub001/pkg/combat"
)

type combatFixture struct {
	kingdoms  *memory.KingdomRepo
	reports   *memory.ReportRepo
	treaties  *memory.TreatyRepo
	bounties  *memory.BountyRepo
	svc       *CombatService
	warSvc    *WarService
	guilds    *memory.GuildRepo
	wars      *memory.WarRepo
	attacker  *model.Kingdom
	defender  *model.Kingdom
}

func newCombatFixture(t *testing.T) *combatFixture {
	t.Helper()
	f := &combatFixture{
		kingdoms: memory.NewKingdomRepo(),
		reports:  memory.NewReportRepo(),
		treaties: memory.NewTreatyRepo(),
		bounties: memory.NewBountyRepo(),
		guilds:   memory.NewGuildRepo(),
		wars:     memory.NewWarRepo(),
	}
	f.warSvc = NewWarService(f.wars, f.guilds, f.kingdoms, nil, nil)
	f.svc = NewCombatService(f.kingdoms, f.reports, f.treaties, f.bounties, f.warSvc, nil)

	f.attacker = seedKingdom(t, f.kingdoms, "owner-atk")
	// A token garrison so a full send wins decisively.
	f.defender = seedKingdom(t, f.kingdoms, "owner-def", func(k *model.Kingdom) {
		k.Units = map[string]int{"soldier": 10}
	})
	return f
}

func (f *combatFixture) attack(t *testing.T, sent map[string]int) *AttackResult {
	t.Helper()
	res, err := f.svc.Attack(context.Background(), AttackRequest{
		AttackerID: f.attacker.ID,
		OwnerID:    "owner-atk",
		DefenderID: f.defender.ID,
		AttackType: combat.AttackStandard,
		SentUnits:  sent,
	})
	if err != nil {
		t.Fatalf("Attack: %v", err)
	}
	return res
}

func TestAttackDecisiveVictory(t *testing.T) {
	f := newCombatFixture(t)
	res := f.attack(t, map[string]int{"soldier": 100})

	if res.Report.ResultTier != combat.TierDecisive {
		t.Fatalf("expected decisive victory, got %s", res.Report.ResultTier)
	}
	if res.Report.LandGained <= 0 || res.Report.GoldLooted <= 0 {
		t.Errorf("victory should transfer spoils, got land=%d gold=%d", res.Report.LandGained, res.Report.GoldLooted)
	}

	att := mustKingdom(t, f.kingdoms, f.attacker.ID)
	def := mustKingdom(t, f.kingdoms, f.defender.ID)

	if att.Resources.Turns != 50-economy.AttackTurnCost {
		t.Errorf("attack should cost %d turns, attacker has %d", economy.AttackTurnCost, att.Resources.Turns)
	}
	if att.Resources.Land != 1000+res.Report.LandGained {
		t.Errorf("attacker land = %d, want %d", att.Resources.Land, 1000+res.Report.LandGained)
	}
	if def.Resources.Land != 1000-res.Report.LandGained {
		t.Errorf("defender land = %d, want %d", def.Resources.Land, 1000-res.Report.LandGained)
	}
	if att.Resources.Gold != 10000+res.Report.GoldLooted {
		t.Errorf("attacker gold = %d, want %d", att.Resources.Gold, 10000+res.Report.GoldLooted)
	}
	if def.Resources.Gold != 10000-res.Report.GoldLooted {
		t.Errorf("defender gold = %d, want %d", def.Resources.Gold, 10000-res.Report.GoldLooted)
	}

	// Land and gold are conserved across the pair.
	if att.Resources.Land+def.Resources.Land != 2000 {
		t.Error("land not conserved")
	}
	if att.Resources.Gold+def.Resources.Gold != 20000 {
		t.Error("gold not conserved")
	}

	lost := res.Report.DefenderCasualties["soldier"]
	if def.Units["soldier"] != 10-lost {
		t.Errorf("defender soldiers = %d, want %d", def.Units["soldier"], 10-lost)
	}
}

func TestAttackDefeatTransfersNothing(t *testing.T) {
	f := newCombatFixture(t)
	// Beef up the garrison so a single soldier loses outright.
	def := mustKingdom(t, f.kingdoms, f.defender.ID)
	def.Units = map[string]int{"soldier": 200, "knight": 50}
	if err := f.kingdoms.Update(context.Background(), def); err != nil {
		t.Fatalf("update defender: %v", err)
	}

	res := f.attack(t, map[string]int{"soldier": 1})
	if res.Report.ResultTier != combat.TierDefeat {
		t.Fatalf("expected defeat, got %s", res.Report.ResultTier)
	}
	if res.Report.LandGained != 0 || res.Report.GoldLooted != 0 {
		t.Errorf("defeat must transfer nothing, got land=%d gold=%d", res.Report.LandGained, res.Report.GoldLooted)
	}

	att := mustKingdom(t, f.kingdoms, f.attacker.ID)
	if att.Resources.Turns != 50-economy.AttackTurnCost {
		t.Error("turns are spent even on defeat")
	}
}

func TestAttackValidation(t *testing.T) {
	f := newCombatFixture(t)
	base := AttackRequest{
		AttackerID: f.attacker.ID,
		OwnerID:    "owner-atk",
		DefenderID: f.defender.ID,
		AttackType: combat.AttackStandard,
		SentUnits:  map[string]int{"soldier": 10},
	}

	tests := []struct {
		name string
		mut  func(*AttackRequest)
		want error
	}{
		{"self attack", func(r *AttackRequest) { r.DefenderID = f.attacker.ID }, ErrInvalidInput},
		{"unknown attack type", func(r *AttackRequest) { r.AttackType = "blitz" }, ErrInvalidInput},
		{"unknown formation", func(r *AttackRequest) { r.Formation = "phalanx" }, ErrInvalidInput},
		{"unknown terrain", func(r *AttackRequest) { r.Terrain = "desert" }, ErrInvalidInput},
		{"unknown unit", func(r *AttackRequest) { r.SentUnits = map[string]int{"dragon": 5} }, ErrInvalidInput},
		{"negative unit count", func(r *AttackRequest) { r.SentUnits = map[string]int{"soldier": -1, "archer": 5} }, ErrInvalidInput},
		{"no units sent", func(r *AttackRequest) { r.SentUnits = map[string]int{"soldier": 0} }, ErrInvalidInput},
		{"not the owner", func(r *AttackRequest) { r.OwnerID = "impostor" }, ErrNotOwner},
		{"missing defender", func(r *AttackRequest) { r.DefenderID = "ghost" }, ErrTargetNotFound},
	}
	for _, tt := range tests {
		req := base
		tt.mut(&req)
		if _, err := f.svc.Attack(context.Background(), req); !errors.Is(err, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestAttackInsufficientUnits(t *testing.T) {
	f := newCombatFixture(t)
	_, err := f.svc.Attack(context.Background(), AttackRequest{
		AttackerID: f.attacker.ID,
		OwnerID:    "owner-atk",
		DefenderID: f.defender.ID,
		AttackType: combat.AttackStandard,
		SentUnits:  map[string]int{"soldier": 101},
	})
	if !errors.Is(err, ErrInsufficientUnits) {
		t.Errorf("expected ErrInsufficientUnits, got %v", err)
	}

	def := mustKingdom(t, f.kingdoms, f.defender.ID)
	if def.Resources.Land != 1000 || def.Resources.Gold != 10000 || def.Units["soldier"] != 10 {
		t.Errorf("defender must be untouched by the rejected attack, got land=%d gold=%d soldiers=%d",
			def.Resources.Land, def.Resources.Gold, def.Units["soldier"])
	}
	atk := mustKingdom(t, f.kingdoms, f.attacker.ID)
	if atk.Resources.Turns != 50 {
		t.Errorf("no turns may be spent on a rejected attack, got %d", atk.Resources.Turns)
	}
}

func TestAttackWithoutTurnsLeavesDefenderUntouched(t *testing.T) {
	f := newCombatFixture(t)
	broke := seedKingdom(t, f.kingdoms, "owner-broke", func(k *model.Kingdom) {
		k.Resources.Turns = 0
	})

	_, err := f.svc.Attack(context.Background(), AttackRequest{
		AttackerID: broke.ID,
		OwnerID:    "owner-broke",
		DefenderID: f.defender.ID,
		AttackType: combat.AttackStandard,
		SentUnits:  map[string]int{"soldier": 10},
	})
	if !errors.Is(err, economy.ErrInsufficientResources) {
		t.Fatalf("expected ErrInsufficientResources, got %v", err)
	}

	def := mustKingdom(t, f.kingdoms, f.defender.ID)
	if def.Resources.Land != 1000 || def.Resources.Gold != 10000 || def.Units["soldier"] != 10 {
		t.Errorf("defender must be untouched when the attacker cannot pay, got land=%d gold=%d soldiers=%d",
			def.Resources.Land, def.Resources.Gold, def.Units["soldier"])
	}
	atk := mustKingdom(t, f.kingdoms, broke.ID)
	if atk.Resources.Gold != 10000 || atk.Units["soldier"] != 100 {
		t.Errorf("attacker must gain nothing, got gold=%d soldiers=%d",
			atk.Resources.Gold, atk.Units["soldier"])
	}
}

func TestAttackBlockedByTreaty(t *testing.T) {
	f := newCombatFixture(t)
	treaty := &model.Treaty{
		ProposerID:  f.attacker.ID,
		RecipientID: f.defender.ID,
		Type:        model.TreatyNonAggression,
		Status:      model.TreatyActive,
		ExpiresAt:   time.Now().Add(24 * time.Hour),
	}
	if err := f.treaties.Create(context.Background(), treaty); err != nil {
		t.Fatalf("create treaty: %v", err)
	}

	_, err := f.svc.Attack(context.Background(), AttackRequest{
		AttackerID: f.attacker.ID,
		OwnerID:    "owner-atk",
		DefenderID: f.defender.ID,
		AttackType: combat.AttackStandard,
		SentUnits:  map[string]int{"soldier": 10},
	})
	if !errors.Is(err, ErrTreatyForbids) {
		t.Errorf("expected ErrTreatyForbids, got %v", err)
	}

	// State must be untouched.
	att := mustKingdom(t, f.kingdoms, f.attacker.ID)
	if att.Resources.Turns != 50 {
		t.Error("blocked attack must not spend turns")
	}
}

func TestAttackInactiveTreatyDoesNotBlock(t *testing.T) {
	f := newCombatFixture(t)
	treaty := &model.Treaty{
		ProposerID:  f.attacker.ID,
		RecipientID: f.defender.ID,
		Type:        model.TreatyNonAggression,
		Status:      model.TreatyBroken,
		ExpiresAt:   time.Now().Add(24 * time.Hour),
	}
	if err := f.treaties.Create(context.Background(), treaty); err != nil {
		t.Fatalf("create treaty: %v", err)
	}
	f.attack(t, map[string]int{"soldier": 100})
}

func TestAttackPaysOpenBounties(t *testing.T) {
	f := newCombatFixture(t)
	b := &model.Bounty{PlacerID: "someone", TargetID: f.defender.ID, Amount: 500, Status: model.BountyOpen}
	if err := f.bounties.Create(context.Background(), b); err != nil {
		t.Fatalf("create bounty: %v", err)
	}

	res := f.attack(t, map[string]int{"soldier": 100})
	if res.BountyPayout != 500 {
		t.Fatalf("bounty payout = %d, want 500", res.BountyPayout)
	}

	att := mustKingdom(t, f.kingdoms, f.attacker.ID)
	if att.Resources.Gold != 10000+res.Report.GoldLooted+500 {
		t.Errorf("attacker gold = %d, want loot plus bounty", att.Resources.Gold)
	}

	claimed, err := f.bounties.FindByID(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("find bounty: %v", err)
	}
	if claimed.Status != model.BountyClaimed || claimed.ClaimedByID != f.attacker.ID {
		t.Errorf("bounty not claimed by victor: %+v", claimed)
	}

	// A second victory cannot collect the same bounty again.
	res = f.attack(t, map[string]int{"soldier": 50})
	if res.BountyPayout != 0 {
		t.Errorf("claimed bounty paid twice: %d", res.BountyPayout)
	}
}

func TestAttackScoresActiveWar(t *testing.T) {
	f := newCombatFixture(t)
	seedGuild(t, f.guilds, f.kingdoms, "Iron Pact", "IRON", mustKingdom(t, f.kingdoms, f.attacker.ID))
	guildB := seedGuild(t, f.guilds, f.kingdoms, "Silver Court", "SLVR", mustKingdom(t, f.kingdoms, f.defender.ID))

	war, err := f.warSvc.DeclareWar(context.Background(), f.attacker.ID, "owner-atk", guildB.ID)
	if err != nil {
		t.Fatalf("DeclareWar: %v", err)
	}

	res := f.attack(t, map[string]int{"soldier": 100})
	if res.Report.WarID != war.ID {
		t.Errorf("report war = %q, want %q", res.Report.WarID, war.ID)
	}
	if res.Report.WarPoints != combat.PointsDecisive {
		t.Errorf("war points = %d, want %d", res.Report.WarPoints, combat.PointsDecisive)
	}

	got, err := f.warSvc.GetWar(context.Background(), war.ID)
	if err != nil {
		t.Fatalf("GetWar: %v", err)
	}
	if got.AttackingScore != combat.PointsDecisive {
		t.Errorf("attacking score = %d, want %d", got.AttackingScore, combat.PointsDecisive)
	}
}

func TestAttackPersistsReport(t *testing.T) {
	f := newCombatFixture(t)
	f.attack(t, map[string]int{"soldier": 100})

	reports, err := f.reports.ListByKingdom(context.Background(), f.attacker.ID, 10)
	if err != nil {
		t.Fatalf("ListByKingdom: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}
	if reports[0].AttackerID != f.attacker.ID || reports[0].DefenderID != f.defender.ID {
		t.Error("report parties wrong")
	}
}

func TestThievery(t *testing.T) {
	f := newCombatFixture(t)
	res, err := f.svc.Thievery(context.Background(), f.attacker.ID, "owner-atk", f.defender.ID)
	if err != nil {
		t.Fatalf("Thievery: %v", err)
	}

	// Full send against a token garrison hits the 1.5 edge clamp:
	// floor(10000 * 0.05 * 1.5) = 750.
	if res.GoldStolen != 750 {
		t.Errorf("gold stolen = %d, want 750", res.GoldStolen)
	}

	thief := mustKingdom(t, f.kingdoms, f.attacker.ID)
	target := mustKingdom(t, f.kingdoms, f.defender.ID)
	if thief.Resources.Turns != 50-economy.ThieveryTurnCost {
		t.Errorf("thievery should cost %d turn, thief has %d", economy.ThieveryTurnCost, thief.Resources.Turns)
	}
	if thief.Resources.Gold != 10750 || target.Resources.Gold != 9250 {
		t.Errorf("gold = %d/%d, want 10750/9250", thief.Resources.Gold, target.Resources.Gold)
	}
	// Thievery never touches armies.
	if thief.Units["soldier"] != 100 || target.Units["soldier"] != 10 {
		t.Error("thievery must not cause casualties")
	}
}

func TestThieveryHardCap(t *testing.T) {
	// Even an overwhelming edge cannot lift the share past a tenth, and
	// the 1.5 edge clamp keeps it at 7.5% here.
	thief := &model.Kingdom{Race: "orc", Units: map[string]int{"catapult": 1000}}
	target := &model.Kingdom{Race: "human", Units: map[string]int{}, Resources: model.Resources{Gold: 1000}}
	if got := thieveryHaul(thief, target); got != 75 {
		t.Errorf("haul = %d, want 75", got)
	}

	// A weak thief steals proportionally less.
	weak := &model.Kingdom{Race: "human", Units: map[string]int{"soldier": 1}}
	strong := &model.Kingdom{Race: "human", Units: map[string]int{"soldier": 100}, Resources: model.Resources{Gold: 10000}}
	if got := thieveryHaul(weak, strong); got >= 75 {
		t.Errorf("weak thief haul = %d, want a small fraction", got)
	}
}

func TestThieveryChecks(t *testing.T) {
	f := newCombatFixture(t)

	if _, err := f.svc.Thievery(context.Background(), f.attacker.ID, "owner-atk", f.attacker.ID); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("self thievery: got %v, want ErrInvalidInput", err)
	}
	if _, err := f.svc.Thievery(context.Background(), f.attacker.ID, "impostor", f.defender.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("wrong owner: got %v, want ErrNotOwner", err)
	}
	if _, err := f.svc.Thievery(context.Background(), f.attacker.ID, "owner-atk", "ghost"); !errors.Is(err, ErrTargetNotFound) {
		t.Errorf("missing target: got %v, want ErrTargetNotFound", err)
	}

	treaty := &model.Treaty{
		ProposerID:  f.defender.ID,
		RecipientID: f.attacker.ID,
		Type:        model.TreatyAlliance,
		Status:      model.TreatyActive,
		ExpiresAt:   time.Now().Add(24 * time.Hour),
	}
	if err := f.treaties.Create(context.Background(), treaty); err != nil {
		t.Fatalf("create treaty: %v", err)
	}
	if _, err := f.svc.Thievery(context.Background(), f.attacker.ID, "owner-atk", f.defender.ID); !errors.Is(err, ErrTreatyForbids) {
		t.Errorf("treaty: got %v, want ErrTreatyForbids", err)
	}
}

func TestThieveryWithoutTurnsLeavesTargetUntouched(t *testing.T) {
	f := newCombatFixture(t)
	broke := seedKingdom(t, f.kingdoms, "owner-broke", func(k *model.Kingdom) {
		k.Resources.Turns = 0
	})

	_, err := f.svc.Thievery(context.Background(), broke.ID, "owner-broke", f.defender.ID)
	if !errors.Is(err, economy.ErrInsufficientResources) {
		t.Fatalf("expected ErrInsufficientResources, got %v", err)
	}

	def := mustKingdom(t, f.kingdoms, f.defender.ID)
	if def.Resources.Gold != 10000 {
		t.Errorf("target gold must not leave the economy on a failed attempt, got %d", def.Resources.Gold)
	}
	thief := mustKingdom(t, f.kingdoms, broke.ID)
	if thief.Resources.Gold != 10000 || thief.Resources.Turns != 0 {
		t.Errorf("thief must be untouched, got gold=%d turns=%d",
			thief.Resources.Gold, thief.Resources.Turns)
	}
}

package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/kalleeh/monarchygame-sub001/internal/economy"
	"github.com/kalleeh/monarchygame-sub001/internal/model"
	"github.com/kalleeh/monarchygame-sub001/internal/repository"
	"github.com/kalleeh/monarchygame-sub001/pkg/combat"
)

// Thievery tuning. Stolen gold scales with the thief's military edge and
// is hard-capped at a tenth of the target's gold per attempt.
const (
	thieveryBaseRate = 0.05
	thieveryMaxShare = 0.10
)

// CombatService resolves attacks and thievery between kingdoms and
// feeds the results into reports, wars and bounties.
type CombatService struct {
	kingdomRepo repository.KingdomRepository
	reportRepo  repository.ReportRepository
	treatyRepo  repository.TreatyRepository
	bountyRepo  repository.BountyRepository
	wars        *WarService
	broadcaster Broadcaster
	now         func() time.Time
}

// NewCombatService creates a CombatService. wars may be nil when war
// scoring is disabled.
func NewCombatService(kingdomRepo repository.KingdomRepository, reportRepo repository.ReportRepository, treatyRepo repository.TreatyRepository, bountyRepo repository.BountyRepository, wars *WarService, broadcaster Broadcaster) *CombatService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &CombatService{
		kingdomRepo: kingdomRepo,
		reportRepo:  reportRepo,
		treatyRepo:  treatyRepo,
		bountyRepo:  bountyRepo,
		wars:        wars,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// AttackRequest carries a validated attack order.
type AttackRequest struct {
	AttackerID string
	OwnerID    string
	DefenderID string
	AttackType string
	SentUnits  map[string]int
	Formation  string
	Terrain    string
}

// AttackResult is the full outcome of one resolved attack.
type AttackResult struct {
	Report       *model.BattleReport `json:"report"`
	Attacker     *model.Kingdom      `json:"attacker"`
	BountyPayout int64               `json:"bounty_payout,omitempty"`
}

// Attack resolves one attack end to end: precondition checks, the pure
// engine call, state application under optimistic retry, war scoring
// and bounty payout. All of the attacker's sufficiency checks run
// before either side is written; the turn cost is escrowed first and
// refunded if the defender write cannot land.
func (s *CombatService) Attack(ctx context.Context, req AttackRequest) (*AttackResult, error) {
	if err := validateAttackRequest(req); err != nil {
		return nil, err
	}

	attacker, err := s.kingdomRepo.FindByID(ctx, req.AttackerID)
	if err != nil {
		return nil, err
	}
	if attacker == nil {
		return nil, ErrKingdomNotFound
	}
	if attacker.OwnerID != req.OwnerID {
		return nil, ErrNotOwner
	}
	defender, err := s.kingdomRepo.FindByID(ctx, req.DefenderID)
	if err != nil {
		return nil, err
	}
	if defender == nil || !defender.Active {
		return nil, ErrTargetNotFound
	}
	if err := s.checkTreaties(ctx, attacker.ID, defender.ID); err != nil {
		return nil, err
	}

	// Attacker first: the sent units and turn cost are verified on a
	// fresh read and the turns escrowed before the defender is touched,
	// so a failed precondition leaves no trace on either side.
	err = withRetry(ctx, func(ctx context.Context) error {
		att, err := s.kingdomRepo.FindByID(ctx, req.AttackerID)
		if err != nil {
			return err
		}
		if att == nil {
			return ErrKingdomNotFound
		}
		if err := checkSentUnits(att.Units, req.SentUnits); err != nil {
			return err
		}
		if _, err := economy.Spend(att, economy.FieldTurns, economy.AttackTurnCost); err != nil {
			return err
		}
		return s.kingdomRepo.Update(ctx, att)
	})
	if err != nil {
		return nil, err
	}

	// The defender's holdings feed the engine inside the retry loop so
	// a concurrent defender write restarts the whole computation.
	var outcome combat.Outcome
	err = withRetry(ctx, func(ctx context.Context) error {
		def, err := s.kingdomRepo.FindByID(ctx, req.DefenderID)
		if err != nil {
			return err
		}
		if def == nil {
			return ErrTargetNotFound
		}
		outcome = combat.Resolve(combat.Input{
			AttackerUnits: req.SentUnits,
			DefenderUnits: def.Units,
			DefenderLand:  def.Resources.Land,
			DefenderGold:  def.Resources.Gold,
			AttackType:    req.AttackType,
			Modifiers: combat.Modifiers{
				AttackerRace: attacker.Race,
				DefenderRace: def.Race,
				FormationID:  req.Formation,
				TerrainID:    req.Terrain,
			},
		})
		applyUnitLosses(def.Units, outcome.DefenderCasualties)
		def.Resources.Land -= outcome.LandGained
		def.Resources.Gold -= outcome.GoldLooted
		return s.kingdomRepo.Update(ctx, def)
	})
	if err != nil {
		refundCost(ctx, s.kingdomRepo, req.AttackerID, economy.FieldTurns, economy.AttackTurnCost)
		return nil, err
	}

	var attAfter *model.Kingdom
	err = withRetry(ctx, func(ctx context.Context) error {
		att, err := s.kingdomRepo.FindByID(ctx, req.AttackerID)
		if err != nil {
			return err
		}
		if att == nil {
			return ErrKingdomNotFound
		}
		applyUnitLosses(att.Units, outcome.AttackerCasualties)
		att.Resources.Land += outcome.LandGained
		att.Resources.Gold += outcome.GoldLooted
		if err := s.kingdomRepo.Update(ctx, att); err != nil {
			return err
		}
		attAfter = att
		return nil
	})
	if err != nil {
		return nil, err
	}

	report := &model.BattleReport{
		AttackerID:         attacker.ID,
		DefenderID:         defender.ID,
		AttackType:         req.AttackType,
		ResultTier:         outcome.ResultTier,
		AttackerCasualties: outcome.AttackerCasualties,
		DefenderCasualties: outcome.DefenderCasualties,
		LandGained:         outcome.LandGained,
		GoldLooted:         outcome.GoldLooted,
	}

	if s.wars != nil {
		warID, counted, err := s.wars.RecordContribution(ctx, attacker.ID, attacker.GuildID, defender.GuildID, outcome.WarPoints)
		if err != nil {
			log.Error().Err(err).Str("attackerId", attacker.ID).Msg("Failed to record war contribution")
		} else if counted {
			report.WarID = warID
			report.WarPoints = outcome.WarPoints
		}
	}

	var payout int64
	if outcome.ResultTier != combat.TierDefeat {
		payout = s.payBounties(ctx, attacker.ID, defender.ID)
		if payout > 0 && attAfter != nil {
			attAfter.Resources.Gold += payout
		}
	}

	if err := s.reportRepo.Create(ctx, report); err != nil {
		log.Error().Err(err).Msg("Failed to persist battle report")
	}
	s.broadcaster.BroadcastEvent("battles", EventBattleResolved, report)

	return &AttackResult{Report: report, Attacker: attAfter, BountyPayout: payout}, nil
}

// ThieveryResult is the outcome of one thievery attempt.
type ThieveryResult struct {
	GoldStolen int64          `json:"gold_stolen"`
	Thief      *model.Kingdom `json:"thief"`
}

// Thievery steals a capped fraction of the target's gold, scaled by the
// thief's military edge. Costs one turn regardless of the haul. The
// turn is checked and escrowed before the target is touched, and
// refunded if the target write cannot land.
func (s *CombatService) Thievery(ctx context.Context, thiefID, ownerID, targetID string) (*ThieveryResult, error) {
	if thiefID == targetID {
		return nil, fmt.Errorf("%w: cannot steal from yourself", ErrInvalidInput)
	}
	thief, err := s.kingdomRepo.FindByID(ctx, thiefID)
	if err != nil {
		return nil, err
	}
	if thief == nil {
		return nil, ErrKingdomNotFound
	}
	if thief.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	target, err := s.kingdomRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil || !target.Active {
		return nil, ErrTargetNotFound
	}
	if err := s.checkTreaties(ctx, thiefID, targetID); err != nil {
		return nil, err
	}

	err = withRetry(ctx, func(ctx context.Context) error {
		t, err := s.kingdomRepo.FindByID(ctx, thiefID)
		if err != nil {
			return err
		}
		if t == nil {
			return ErrKingdomNotFound
		}
		if _, err := economy.Spend(t, economy.FieldTurns, economy.ThieveryTurnCost); err != nil {
			return err
		}
		return s.kingdomRepo.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	var stolen int64
	err = withRetry(ctx, func(ctx context.Context) error {
		tgt, err := s.kingdomRepo.FindByID(ctx, targetID)
		if err != nil {
			return err
		}
		if tgt == nil || !tgt.Active {
			return ErrTargetNotFound
		}
		stolen = thieveryHaul(thief, tgt)
		tgt.Resources.Gold -= stolen
		return s.kingdomRepo.Update(ctx, tgt)
	})
	if err != nil {
		refundCost(ctx, s.kingdomRepo, thiefID, economy.FieldTurns, economy.ThieveryTurnCost)
		return nil, err
	}

	var thiefAfter *model.Kingdom
	err = withRetry(ctx, func(ctx context.Context) error {
		t, err := s.kingdomRepo.FindByID(ctx, thiefID)
		if err != nil {
			return err
		}
		if t == nil {
			return ErrKingdomNotFound
		}
		t.Resources.Gold += stolen
		if err := s.kingdomRepo.Update(ctx, t); err != nil {
			return err
		}
		thiefAfter = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ThieveryResult{GoldStolen: stolen, Thief: thiefAfter}, nil
}

func thieveryHaul(thief, target *model.Kingdom) int64 {
	edge := combat.PowerRatio(thief.Units, target.Units, thief.Race, target.Race)
	share := thieveryBaseRate * math.Min(edge, 1.5)
	if share > thieveryMaxShare {
		share = thieveryMaxShare
	}
	return int64(math.Floor(float64(target.Resources.Gold) * share))
}

// payBounties claims every open bounty on the defeated target and
// returns the total payout. Claim is conditional, so two simultaneous
// victors cannot both collect the same bounty.
func (s *CombatService) payBounties(ctx context.Context, victorID, targetID string) int64 {
	bounties, err := s.bountyRepo.ListOpenByTarget(ctx, targetID)
	if err != nil {
		log.Error().Err(err).Str("targetId", targetID).Msg("Failed to list bounties")
		return 0
	}
	var total int64
	for i := range bounties {
		b := &bounties[i]
		if err := s.bountyRepo.Claim(ctx, b.ID, victorID, s.now()); err != nil {
			continue
		}
		total += b.Amount
	}
	if total > 0 {
		err := withRetry(ctx, func(ctx context.Context) error {
			v, err := s.kingdomRepo.FindByID(ctx, victorID)
			if err != nil {
				return err
			}
			if v == nil {
				return ErrKingdomNotFound
			}
			v.Resources.Gold += total
			return s.kingdomRepo.Update(ctx, v)
		})
		if err != nil {
			log.Error().Err(err).Str("victorId", victorID).Msg("Failed to credit bounty payout")
		}
	}
	return total
}

// checkTreaties blocks hostile actions when an active non-aggression
// pact or alliance links the pair.
func (s *CombatService) checkTreaties(ctx context.Context, aID, bID string) error {
	treaties, err := s.treatyRepo.ListByKingdom(ctx, aID)
	if err != nil {
		return err
	}
	forbidden := lo.ContainsBy(treaties, func(t model.Treaty) bool {
		if t.Status != model.TreatyActive {
			return false
		}
		return (t.ProposerID == aID && t.RecipientID == bID) ||
			(t.ProposerID == bID && t.RecipientID == aID)
	})
	if forbidden {
		return ErrTreatyForbids
	}
	return nil
}

func validateAttackRequest(req AttackRequest) error {
	if req.AttackerID == req.DefenderID {
		return fmt.Errorf("%w: cannot attack yourself", ErrInvalidInput)
	}
	if !combat.ValidAttackType(req.AttackType) {
		return fmt.Errorf("%w: unknown attack type %q", ErrInvalidInput, req.AttackType)
	}
	if req.Formation != "" && !combat.KnownFormation(req.Formation) {
		return fmt.Errorf("%w: unknown formation %q", ErrInvalidInput, req.Formation)
	}
	if req.Terrain != "" && !combat.KnownTerrain(req.Terrain) {
		return fmt.Errorf("%w: unknown terrain %q", ErrInvalidInput, req.Terrain)
	}
	total := 0
	for unit, n := range req.SentUnits {
		if n < 0 {
			return fmt.Errorf("%w: negative unit count for %q", ErrInvalidInput, unit)
		}
		if _, ok := combat.UnitStatsFor(unit); !ok {
			return fmt.Errorf("%w: unknown unit type %q", ErrInvalidInput, unit)
		}
		total += n
	}
	if total == 0 {
		return fmt.Errorf("%w: no units sent", ErrInvalidInput)
	}
	return nil
}

func checkSentUnits(have, sent map[string]int) error {
	for unit, n := range sent {
		if have[unit] < n {
			return fmt.Errorf("%w: %s", ErrInsufficientUnits, unit)
		}
	}
	return nil
}

func applyUnitLosses(units map[string]int, losses map[string]int) {
	for unit, n := range losses {
		units[unit] -= n
		if units[unit] < 0 {
			units[unit] = 0
		}
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kalleeh/monarchygame-sub001/internal/model"
	"github.com/kalleeh/monarchygame-sub001/internal/repository"
)

// WarService manages the guild war lifecycle: declaration, scoring,
// expiry and conclusion. Expiry is lazy: any read of an ACTIVE war past
// its window finalizes it first, so callers never observe a stale
// ACTIVE war regardless of timer delivery.
type WarService struct {
	warRepo     repository.WarRepository
	guildRepo   repository.GuildRepository
	kingdomRepo repository.KingdomRepository
	timers      repository.WarTimerCache
	broadcaster Broadcaster
	now         func() time.Time
}

// NewWarService creates a WarService. timers may be nil when no Redis
// is configured; the poll sweep covers expiry on its own.
func NewWarService(warRepo repository.WarRepository, guildRepo repository.GuildRepository, kingdomRepo repository.KingdomRepository, timers repository.WarTimerCache, broadcaster Broadcaster) *WarService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &WarService{
		warRepo:     warRepo,
		guildRepo:   guildRepo,
		kingdomRepo: kingdomRepo,
		timers:      timers,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// DeclareWar opens a fixed-duration war between the caller's guild and
// the target guild. Only the guild leader's kingdom may declare.
func (s *WarService) DeclareWar(ctx context.Context, kingdomID, ownerID, targetGuildID string) (*model.GuildWar, error) {
	k, err := s.kingdomRepo.FindByID(ctx, kingdomID)
	if err != nil {
		return nil, err
	}
	if k == nil {
		return nil, ErrKingdomNotFound
	}
	if k.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	if k.GuildID == "" {
		return nil, ErrNotGuildMember
	}
	if k.GuildID == targetGuildID {
		return nil, ErrSelfWar
	}

	ownGuild, err := s.guildRepo.FindByID(ctx, k.GuildID)
	if err != nil {
		return nil, err
	}
	if ownGuild == nil {
		return nil, ErrGuildNotFound
	}
	if ownGuild.LeaderID != kingdomID {
		return nil, ErrNotGuildLeader
	}
	targetGuild, err := s.guildRepo.FindByID(ctx, targetGuildID)
	if err != nil {
		return nil, err
	}
	if targetGuild == nil {
		return nil, ErrGuildNotFound
	}

	now := s.now()
	war := &model.GuildWar{
		AttackingGuildID:   ownGuild.ID,
		DefendingGuildID:   targetGuild.ID,
		AttackingGuildName: ownGuild.Name,
		DefendingGuildName: targetGuild.Name,
		Status:             model.WarStatusActive,
		DeclaredAt:         now,
		EndsAt:             now.Add(model.WarDuration),
	}
	if err := s.warRepo.Create(ctx, war); err != nil {
		if errors.Is(err, repository.ErrDuplicateWar) {
			return nil, ErrAlreadyAtWar
		}
		return nil, err
	}

	if s.timers != nil {
		if err := s.timers.SetWarTimer(ctx, war.ID, war.EndsAt); err != nil {
			log.Warn().Err(err).Str("warId", war.ID).Msg("Failed to set war expiry timer")
		}
	}
	s.broadcaster.BroadcastEvent("wars", EventWarDeclared, war)
	return war, nil
}

// GetWar returns a war by ID, finalizing it first if its window passed.
func (s *WarService) GetWar(ctx context.Context, warID string) (*model.GuildWar, error) {
	war, err := s.warRepo.FindByID(ctx, warID)
	if err != nil {
		return nil, err
	}
	if war == nil {
		return nil, ErrWarNotFound
	}
	return s.settleIfExpired(ctx, war)
}

// ListWars returns all wars, or only ACTIVE ones, finalizing any whose
// window passed along the way.
func (s *WarService) ListWars(ctx context.Context, activeOnly bool) ([]model.GuildWar, error) {
	var (
		wars []model.GuildWar
		err  error
	)
	if activeOnly {
		wars, err = s.warRepo.ListActive(ctx)
	} else {
		wars, err = s.warRepo.List(ctx)
	}
	if err != nil {
		return nil, err
	}

	out := make([]model.GuildWar, 0, len(wars))
	for i := range wars {
		w, err := s.settleIfExpired(ctx, &wars[i])
		if err != nil {
			return nil, err
		}
		if activeOnly && w.Status != model.WarStatusActive {
			continue
		}
		out = append(out, *w)
	}
	return out, nil
}

// ConcedeWar ends an active war early with the opposing guild as the
// winner. Only the conceding guild's leader may concede.
func (s *WarService) ConcedeWar(ctx context.Context, warID, kingdomID, ownerID string) (*model.GuildWar, error) {
	war, err := s.GetWar(ctx, warID)
	if err != nil {
		return nil, err
	}
	if war.Status != model.WarStatusActive {
		return nil, ErrWarNotActive
	}

	k, err := s.kingdomRepo.FindByID(ctx, kingdomID)
	if err != nil {
		return nil, err
	}
	if k == nil {
		return nil, ErrKingdomNotFound
	}
	if k.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	if k.GuildID == "" || !war.Involves(k.GuildID) {
		return nil, ErrNotGuildMember
	}
	guild, err := s.guildRepo.FindByID(ctx, k.GuildID)
	if err != nil {
		return nil, err
	}
	if guild == nil {
		return nil, ErrGuildNotFound
	}
	if guild.LeaderID != kingdomID {
		return nil, ErrNotGuildLeader
	}

	winner := war.AttackingGuildID
	if k.GuildID == war.AttackingGuildID {
		winner = war.DefendingGuildID
	}
	if err := s.endWar(ctx, war.ID, winner); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, ErrWarNotActive
		}
		return nil, err
	}
	return s.GetWar(ctx, warID)
}

// ResolveWar ends the war now, the winner decided by the scores as
// they stand. Allowed for any war still effectively active; a past-due
// war settles by the same rule, so resolving one is equivalent to
// observing its expiry. An already concluded war is rejected.
func (s *WarService) ResolveWar(ctx context.Context, warID string) (*model.GuildWar, error) {
	war, err := s.warRepo.FindByID(ctx, warID)
	if err != nil {
		return nil, err
	}
	if war == nil {
		return nil, ErrWarNotFound
	}
	if war.Status != model.WarStatusActive {
		return nil, ErrWarNotActive
	}
	if war.Expired(s.now()) {
		return s.settleIfExpired(ctx, war)
	}
	if err := s.endWar(ctx, war.ID, winnerByScore(war)); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, ErrWarNotActive
		}
		return nil, err
	}
	return s.GetWar(ctx, warID)
}

// RecordContribution credits war points scored by kingdomID's guild in
// its active war against opponentGuildID, if one exists. Reports
// whether a war absorbed the points, and the war's ID.
func (s *WarService) RecordContribution(ctx context.Context, kingdomID, guildID, opponentGuildID string, points int64) (string, bool, error) {
	if guildID == "" || opponentGuildID == "" || guildID == opponentGuildID {
		return "", false, nil
	}
	war, err := s.warRepo.FindActiveBetween(ctx, guildID, opponentGuildID)
	if err != nil {
		return "", false, err
	}
	if war == nil {
		return "", false, nil
	}
	war, err = s.settleIfExpired(ctx, war)
	if err != nil {
		return "", false, err
	}
	if war.Status != model.WarStatusActive {
		return "", false, nil
	}
	if err := s.warRepo.AddContribution(ctx, war.ID, kingdomID, guildID, points); err != nil {
		return "", false, err
	}
	return war.ID, true, nil
}

// SweepExpired finalizes every ACTIVE war whose window has passed.
// Called by the timer listener and the periodic poll fallback.
func (s *WarService) SweepExpired(ctx context.Context) (int, error) {
	wars, err := s.warRepo.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	settled := 0
	for i := range wars {
		w := &wars[i]
		if !w.Expired(s.now()) {
			continue
		}
		if _, err := s.settleIfExpired(ctx, w); err != nil {
			log.Error().Err(err).Str("warId", w.ID).Msg("Failed to settle expired war")
			continue
		}
		settled++
	}
	return settled, nil
}

// SettleWar finalizes the war with the given ID if it is due. Used by
// the timer listener, which knows the ID from the expired timer key.
func (s *WarService) SettleWar(ctx context.Context, warID string) error {
	war, err := s.warRepo.FindByID(ctx, warID)
	if err != nil {
		return err
	}
	if war == nil {
		return ErrWarNotFound
	}
	_, err = s.settleIfExpired(ctx, war)
	return err
}

// settleIfExpired finalizes an ACTIVE war whose window passed, then
// returns the current record. Losing the End race to a concurrent
// settle is fine; the winner's outcome stands.
func (s *WarService) settleIfExpired(ctx context.Context, war *model.GuildWar) (*model.GuildWar, error) {
	if war.Status != model.WarStatusActive || !war.Expired(s.now()) {
		return war, nil
	}

	if err := s.endWar(ctx, war.ID, winnerByScore(war)); err != nil && !errors.Is(err, repository.ErrStatusConflict) {
		return nil, err
	}

	settled, err := s.warRepo.FindByID(ctx, war.ID)
	if err != nil {
		return nil, err
	}
	if settled == nil {
		return nil, ErrWarNotFound
	}
	return settled, nil
}

// winnerByScore picks the side with the strictly higher score; a tie
// records no winner.
func winnerByScore(war *model.GuildWar) string {
	switch {
	case war.AttackingScore > war.DefendingScore:
		return war.AttackingGuildID
	case war.DefendingScore > war.AttackingScore:
		return war.DefendingGuildID
	}
	return ""
}

func (s *WarService) endWar(ctx context.Context, warID, winnerGuildID string) error {
	if err := s.warRepo.End(ctx, warID, winnerGuildID, s.now()); err != nil {
		return fmt.Errorf("end war %s: %w", warID, err)
	}
	if s.timers != nil {
		if err := s.timers.ClearWarTimer(ctx, warID); err != nil {
			log.Warn().Err(err).Str("warId", warID).Msg("Failed to clear war expiry timer")
		}
	}
	s.broadcaster.BroadcastEvent("wars", EventWarEnded, map[string]any{
		"warId":         warID,
		"winnerGuildId": winnerGuildID,
	})
	return nil
}

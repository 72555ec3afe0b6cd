package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kalleeh/monarchygame-sub001/internal/economy"
	"github.com/kalleeh/monarchygame-sub001/internal/model"
	"github.com/kalleeh/monarchygame-sub001/internal/repository"
)

// GuildService handles guild membership and the shared treasury.
type GuildService struct {
	guildRepo   repository.GuildRepository
	kingdomRepo repository.KingdomRepository
}

// NewGuildService creates a GuildService.
func NewGuildService(guildRepo repository.GuildRepository, kingdomRepo repository.KingdomRepository) *GuildService {
	return &GuildService{guildRepo: guildRepo, kingdomRepo: kingdomRepo}
}

// CreateGuild founds a guild with the caller's kingdom as leader. The
// founding kingdom must not already belong to a guild.
func (s *GuildService) CreateGuild(ctx context.Context, kingdomID, ownerID, name, tag string) (*model.Guild, error) {
	name = strings.TrimSpace(name)
	tag = strings.ToUpper(strings.TrimSpace(tag))
	if len(name) < 2 || len(name) > 50 {
		return nil, fmt.Errorf("%w: name must be 2-50 characters", ErrInvalidInput)
	}
	if len(tag) < 2 || len(tag) > 5 {
		return nil, fmt.Errorf("%w: tag must be 2-5 characters", ErrInvalidInput)
	}

	var guild *model.Guild
	err := withRetry(ctx, func(ctx context.Context) error {
		k, err := s.kingdomRepo.FindByID(ctx, kingdomID)
		if err != nil {
			return err
		}
		if k == nil {
			return ErrKingdomNotFound
		}
		if k.OwnerID != ownerID {
			return ErrNotOwner
		}
		if k.GuildID != "" {
			return fmt.Errorf("%w: kingdom already belongs to a guild", ErrInvalidInput)
		}
		if guild == nil {
			guild = &model.Guild{Name: name, Tag: tag, LeaderID: kingdomID}
			if err := s.guildRepo.Create(ctx, guild); err != nil {
				return err
			}
		}
		k.GuildID = guild.ID
		return s.kingdomRepo.Update(ctx, k)
	})
	if err != nil {
		return nil, err
	}
	return guild, nil
}

// GetGuild returns a guild by ID.
func (s *GuildService) GetGuild(ctx context.Context, guildID string) (*model.Guild, error) {
	g, err := s.guildRepo.FindByID(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGuildNotFound
	}
	return g, nil
}

// JoinGuild attaches the caller's kingdom to a guild.
func (s *GuildService) JoinGuild(ctx context.Context, guildID, kingdomID, ownerID string) (*model.Kingdom, error) {
	if _, err := s.GetGuild(ctx, guildID); err != nil {
		return nil, err
	}

	var out *model.Kingdom
	err := withRetry(ctx, func(ctx context.Context) error {
		k, err := s.kingdomRepo.FindByID(ctx, kingdomID)
		if err != nil {
			return err
		}
		if k == nil {
			return ErrKingdomNotFound
		}
		if k.OwnerID != ownerID {
			return ErrNotOwner
		}
		if k.GuildID != "" {
			return fmt.Errorf("%w: kingdom already belongs to a guild", ErrInvalidInput)
		}
		k.GuildID = guildID
		if err := s.kingdomRepo.Update(ctx, k); err != nil {
			return err
		}
		out = k
		return nil
	})
	return out, err
}

// Deposit moves gold from the member's kingdom into the guild treasury.
func (s *GuildService) Deposit(ctx context.Context, guildID, kingdomID, ownerID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if err := s.memberCheck(ctx, guildID, kingdomID, ownerID, false); err != nil {
		return 0, err
	}

	err := withRetry(ctx, func(ctx context.Context) error {
		k, err := s.kingdomRepo.FindByID(ctx, kingdomID)
		if err != nil {
			return err
		}
		if k == nil {
			return ErrKingdomNotFound
		}
		if _, err := economy.Spend(k, economy.FieldGold, amount); err != nil {
			return err
		}
		return s.kingdomRepo.Update(ctx, k)
	})
	if err != nil {
		return 0, err
	}

	balance, err := s.guildRepo.AdjustTreasury(ctx, guildID, amount)
	if err != nil {
		// The gold already left the kingdom; put it back.
		s.refundKingdomGold(ctx, kingdomID, amount)
		return 0, err
	}
	return balance, nil
}

// Withdraw moves gold from the guild treasury into the leader's
// kingdom. Only the guild leader may withdraw.
func (s *GuildService) Withdraw(ctx context.Context, guildID, kingdomID, ownerID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if err := s.memberCheck(ctx, guildID, kingdomID, ownerID, true); err != nil {
		return 0, err
	}

	balance, err := s.guildRepo.AdjustTreasury(ctx, guildID, -amount)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientTreasury) {
			return 0, economy.ErrInsufficientResources
		}
		return 0, err
	}

	err = withRetry(ctx, func(ctx context.Context) error {
		k, err := s.kingdomRepo.FindByID(ctx, kingdomID)
		if err != nil {
			return err
		}
		if k == nil {
			return ErrKingdomNotFound
		}
		k.Resources.Gold += amount
		return s.kingdomRepo.Update(ctx, k)
	})
	if err != nil {
		// Return the gold to the treasury rather than losing it.
		if _, rerr := s.guildRepo.AdjustTreasury(ctx, guildID, amount); rerr != nil {
			return 0, fmt.Errorf("credit kingdom after withdrawal: %w", err)
		}
		return 0, err
	}
	return balance, nil
}

func (s *GuildService) memberCheck(ctx context.Context, guildID, kingdomID, ownerID string, leaderOnly bool) error {
	g, err := s.GetGuild(ctx, guildID)
	if err != nil {
		return err
	}
	k, err := s.kingdomRepo.FindByID(ctx, kingdomID)
	if err != nil {
		return err
	}
	if k == nil {
		return ErrKingdomNotFound
	}
	if k.OwnerID != ownerID {
		return ErrNotOwner
	}
	if k.GuildID != guildID {
		return ErrNotGuildMember
	}
	if leaderOnly && g.LeaderID != kingdomID {
		return ErrNotGuildLeader
	}
	return nil
}

func (s *GuildService) refundKingdomGold(ctx context.Context, kingdomID string, amount int64) {
	_ = withRetry(ctx, func(ctx context.Context) error {
		k, err := s.kingdomRepo.FindByID(ctx, kingdomID)
		if err != nil {
			return err
		}
		if k == nil {
			return ErrKingdomNotFound
		}
		k.Resources.Gold += amount
		return s.kingdomRepo.Update(ctx, k)
	})
}

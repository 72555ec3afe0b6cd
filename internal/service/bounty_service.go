package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kalleeh/monarchygame-sub001/internal/economy"
	"github.com/kalleeh/monarchygame-sub001/internal/model"
	"github.com/kalleeh/monarchygame-sub001/internal/repository"
)

// BountyService handles gold bounties on target kingdoms. The reward is
// escrowed from the placer at creation and paid out by the combat path
// when someone defeats the target.
type BountyService struct {
	bountyRepo  repository.BountyRepository
	kingdomRepo repository.KingdomRepository
	broadcaster Broadcaster
	now         func() time.Time
}

// NewBountyService creates a BountyService.
func NewBountyService(bountyRepo repository.BountyRepository, kingdomRepo repository.KingdomRepository, broadcaster Broadcaster) *BountyService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &BountyService{
		bountyRepo:  bountyRepo,
		kingdomRepo: kingdomRepo,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// PlaceBounty escrows gold from the placer and opens a bounty.
func (s *BountyService) PlaceBounty(ctx context.Context, placerID, ownerID, targetID string, amount int64) (*model.Bounty, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if placerID == targetID {
		return nil, fmt.Errorf("%w: cannot place a bounty on yourself", ErrInvalidInput)
	}
	target, err := s.kingdomRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil || !target.Active {
		return nil, ErrTargetNotFound
	}

	err = withRetry(ctx, func(ctx context.Context) error {
		k, err := s.kingdomRepo.FindByID(ctx, placerID)
		if err != nil {
			return err
		}
		if k == nil {
			return ErrKingdomNotFound
		}
		if k.OwnerID != ownerID {
			return ErrNotOwner
		}
		if _, err := economy.Spend(k, economy.FieldGold, amount); err != nil {
			return err
		}
		return s.kingdomRepo.Update(ctx, k)
	})
	if err != nil {
		return nil, err
	}

	b := &model.Bounty{
		PlacerID: placerID,
		TargetID: targetID,
		Amount:   amount,
		Status:   model.BountyOpen,
	}
	if err := s.bountyRepo.Create(ctx, b); err != nil {
		s.refund(ctx, placerID, amount)
		return nil, err
	}
	s.broadcaster.BroadcastEvent("bounties", EventBountyPlaced, b)
	return b, nil
}

// ListBounties returns the open bounties on a target.
func (s *BountyService) ListBounties(ctx context.Context, targetID string) ([]model.Bounty, error) {
	return s.bountyRepo.ListOpenByTarget(ctx, targetID)
}

// CancelBounty withdraws an open bounty and refunds the escrow.
func (s *BountyService) CancelBounty(ctx context.Context, bountyID, callerID, ownerID string) error {
	b, err := s.bountyRepo.FindByID(ctx, bountyID)
	if err != nil {
		return err
	}
	if b == nil {
		return ErrBountyNotFound
	}
	if b.PlacerID != callerID {
		return ErrNotOwner
	}
	k, err := s.kingdomRepo.FindByID(ctx, callerID)
	if err != nil {
		return err
	}
	if k == nil {
		return ErrKingdomNotFound
	}
	if k.OwnerID != ownerID {
		return ErrNotOwner
	}

	if err := s.bountyRepo.Cancel(ctx, bountyID, s.now()); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return fmt.Errorf("%w: bounty no longer open", ErrInvalidInput)
		}
		return err
	}
	s.refund(ctx, b.PlacerID, b.Amount)
	return nil
}

func (s *BountyService) refund(ctx context.Context, kingdomID string, amount int64) {
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

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

// tradeOfferTTL is how long an open offer stays acceptable.
const tradeOfferTTL = 24 * time.Hour

// TradeService handles resource-for-resource offers between kingdoms.
// The offered amount is escrowed at creation so an accepted offer can
// always deliver.
type TradeService struct {
	tradeRepo   repository.TradeRepository
	kingdomRepo repository.KingdomRepository
	broadcaster Broadcaster
	now         func() time.Time
}

// NewTradeService creates a TradeService.
func NewTradeService(tradeRepo repository.TradeRepository, kingdomRepo repository.KingdomRepository, broadcaster Broadcaster) *TradeService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &TradeService{
		tradeRepo:   tradeRepo,
		kingdomRepo: kingdomRepo,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// CreateOffer escrows the offered resource and opens the offer. Turns
// are not tradeable.
func (s *TradeService) CreateOffer(ctx context.Context, creatorID, ownerID, offerResource string, offerAmount int64, wantResource string, wantAmount int64) (*model.TradeOffer, error) {
	if err := validTradeResource(offerResource); err != nil {
		return nil, err
	}
	if err := validTradeResource(wantResource); err != nil {
		return nil, err
	}
	if offerAmount <= 0 || wantAmount <= 0 {
		return nil, fmt.Errorf("%w: amounts must be positive", ErrInvalidInput)
	}

	err := withRetry(ctx, func(ctx context.Context) error {
		k, err := s.kingdomRepo.FindByID(ctx, creatorID)
		if err != nil {
			return err
		}
		if k == nil {
			return ErrKingdomNotFound
		}
		if k.OwnerID != ownerID {
			return ErrNotOwner
		}
		if _, err := economy.Spend(k, offerResource, offerAmount); err != nil {
			return err
		}
		return s.kingdomRepo.Update(ctx, k)
	})
	if err != nil {
		return nil, err
	}

	offer := &model.TradeOffer{
		CreatorID:     creatorID,
		OfferResource: offerResource,
		OfferAmount:   offerAmount,
		WantResource:  wantResource,
		WantAmount:    wantAmount,
		Status:        model.TradeOpen,
		ExpiresAt:     s.now().Add(tradeOfferTTL),
	}
	if err := s.tradeRepo.Create(ctx, offer); err != nil {
		s.refund(ctx, creatorID, offerResource, offerAmount)
		return nil, err
	}
	return offer, nil
}

// ListOpen returns open, unexpired offers.
func (s *TradeService) ListOpen(ctx context.Context) ([]model.TradeOffer, error) {
	offers, err := s.tradeRepo.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]model.TradeOffer, 0, len(offers))
	for _, o := range offers {
		if now.After(o.ExpiresAt) {
			if err := s.expire(ctx, o); err != nil {
				return nil, err
			}
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

// AcceptOffer pays the wanted amount to the creator and delivers the
// escrowed offer to the acceptor. The conditional transition guarantees
// a single winner when two accepts race.
func (s *TradeService) AcceptOffer(ctx context.Context, offerID, acceptorID, ownerID string) (*model.TradeOffer, error) {
	offer, err := s.tradeRepo.FindByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, ErrTradeNotFound
	}
	if offer.Status != model.TradeOpen {
		return nil, fmt.Errorf("%w: offer is %s", ErrInvalidInput, offer.Status)
	}
	if s.now().After(offer.ExpiresAt) {
		if err := s.expire(ctx, *offer); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: offer expired", ErrInvalidInput)
	}
	if offer.CreatorID == acceptorID {
		return nil, fmt.Errorf("%w: cannot accept your own offer", ErrInvalidInput)
	}

	// Debit the acceptor's side first.
	err = withRetry(ctx, func(ctx context.Context) error {
		k, err := s.kingdomRepo.FindByID(ctx, acceptorID)
		if err != nil {
			return err
		}
		if k == nil {
			return ErrKingdomNotFound
		}
		if k.OwnerID != ownerID {
			return ErrNotOwner
		}
		if _, err := economy.Spend(k, offer.WantResource, offer.WantAmount); err != nil {
			return err
		}
		return s.kingdomRepo.Update(ctx, k)
	})
	if err != nil {
		return nil, err
	}

	if err := s.tradeRepo.Transition(ctx, offer.ID, model.TradeOpen, model.TradeAccepted, acceptorID, s.now()); err != nil {
		s.refund(ctx, acceptorID, offer.WantResource, offer.WantAmount)
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, fmt.Errorf("%w: offer no longer open", ErrInvalidInput)
		}
		return nil, err
	}

	// Deliver both sides. The escrowed amount goes to the acceptor, the
	// payment to the creator.
	s.refund(ctx, acceptorID, offer.OfferResource, offer.OfferAmount)
	s.refund(ctx, offer.CreatorID, offer.WantResource, offer.WantAmount)

	accepted, err := s.tradeRepo.FindByID(ctx, offer.ID)
	if err != nil {
		return nil, err
	}
	s.broadcaster.BroadcastEvent("trades", EventTradeAccepted, accepted)
	return accepted, nil
}

// CancelOffer withdraws an open offer and returns the escrow.
func (s *TradeService) CancelOffer(ctx context.Context, offerID, callerID, ownerID string) error {
	offer, err := s.tradeRepo.FindByID(ctx, offerID)
	if err != nil {
		return err
	}
	if offer == nil {
		return ErrTradeNotFound
	}
	if offer.CreatorID != callerID {
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

	if err := s.tradeRepo.Transition(ctx, offer.ID, model.TradeOpen, model.TradeCancelled, "", s.now()); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return fmt.Errorf("%w: offer no longer open", ErrInvalidInput)
		}
		return err
	}
	s.refund(ctx, offer.CreatorID, offer.OfferResource, offer.OfferAmount)
	return nil
}

// expire transitions a stale offer and returns its escrow. Losing the
// transition race means someone else already resolved it.
func (s *TradeService) expire(ctx context.Context, offer model.TradeOffer) error {
	err := s.tradeRepo.Transition(ctx, offer.ID, model.TradeOpen, model.TradeExpired, "", s.now())
	if errors.Is(err, repository.ErrStatusConflict) {
		return nil
	}
	if err != nil {
		return err
	}
	s.refund(ctx, offer.CreatorID, offer.OfferResource, offer.OfferAmount)
	return nil
}

func (s *TradeService) refund(ctx context.Context, kingdomID, resource string, amount int64) {
	_ = withRetry(ctx, func(ctx context.Context) error {
		k, err := s.kingdomRepo.FindByID(ctx, kingdomID)
		if err != nil {
			return err
		}
		if k == nil {
			return ErrKingdomNotFound
		}
		if _, err := economy.Credit(k, resource, amount); err != nil {
			return err
		}
		return s.kingdomRepo.Update(ctx, k)
	})
}

func validTradeResource(name string) error {
	if name == economy.FieldTurns || !economy.ValidField(name) {
		return fmt.Errorf("%w: resource %q not tradeable", ErrInvalidInput, name)
	}
	return nil
}

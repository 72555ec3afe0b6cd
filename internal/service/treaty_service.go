package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kalleeh/monarchygame-sub001/internal/model"
	"github.com/kalleeh/monarchygame-sub001/internal/repository"
)

// treatyTerm is how long an accepted treaty stays in force.
const treatyTerm = 7 * 24 * time.Hour

// TreatyService handles diplomatic treaties between kingdoms.
type TreatyService struct {
	treatyRepo  repository.TreatyRepository
	kingdomRepo repository.KingdomRepository
	broadcaster Broadcaster
	now         func() time.Time
}

// NewTreatyService creates a TreatyService.
func NewTreatyService(treatyRepo repository.TreatyRepository, kingdomRepo repository.KingdomRepository, broadcaster Broadcaster) *TreatyService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &TreatyService{
		treatyRepo:  treatyRepo,
		kingdomRepo: kingdomRepo,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// ProposeTreaty opens a treaty proposal from one kingdom to another.
func (s *TreatyService) ProposeTreaty(ctx context.Context, proposerID, ownerID, recipientID, treatyType string) (*model.Treaty, error) {
	if treatyType != model.TreatyNonAggression && treatyType != model.TreatyAlliance {
		return nil, fmt.Errorf("%w: unknown treaty type %q", ErrInvalidInput, treatyType)
	}
	if proposerID == recipientID {
		return nil, fmt.Errorf("%w: cannot propose a treaty to yourself", ErrInvalidInput)
	}

	proposer, err := s.kingdomRepo.FindByID(ctx, proposerID)
	if err != nil {
		return nil, err
	}
	if proposer == nil {
		return nil, ErrKingdomNotFound
	}
	if proposer.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	recipient, err := s.kingdomRepo.FindByID(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	if recipient == nil || !recipient.Active {
		return nil, ErrTargetNotFound
	}

	t := &model.Treaty{
		ProposerID:  proposerID,
		RecipientID: recipientID,
		Type:        treatyType,
		Status:      model.TreatyProposed,
		ExpiresAt:   s.now().Add(treatyTerm),
	}
	if err := s.treatyRepo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// AcceptTreaty activates a proposed treaty. Only the recipient may
// accept.
func (s *TreatyService) AcceptTreaty(ctx context.Context, treatyID, kingdomID, ownerID string) (*model.Treaty, error) {
	t, err := s.get(ctx, treatyID)
	if err != nil {
		return nil, err
	}
	if t.RecipientID != kingdomID {
		return nil, ErrNotOwner
	}
	if err := s.ownerCheck(ctx, kingdomID, ownerID); err != nil {
		return nil, err
	}
	if t.Status != model.TreatyProposed {
		return nil, fmt.Errorf("%w: treaty is %s", ErrInvalidInput, t.Status)
	}

	if err := s.treatyRepo.Transition(ctx, t.ID, model.TreatyProposed, model.TreatyActive, s.now()); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, fmt.Errorf("%w: treaty no longer proposed", ErrInvalidInput)
		}
		return nil, err
	}
	active, err := s.get(ctx, treatyID)
	if err != nil {
		return nil, err
	}
	s.broadcaster.BroadcastEvent("treaties", EventTreatyChanged, active)
	return active, nil
}

// BreakTreaty voids an active treaty. Either party may break it.
func (s *TreatyService) BreakTreaty(ctx context.Context, treatyID, kingdomID, ownerID string) (*model.Treaty, error) {
	t, err := s.get(ctx, treatyID)
	if err != nil {
		return nil, err
	}
	if t.ProposerID != kingdomID && t.RecipientID != kingdomID {
		return nil, ErrNotOwner
	}
	if err := s.ownerCheck(ctx, kingdomID, ownerID); err != nil {
		return nil, err
	}
	if t.Status != model.TreatyActive {
		return nil, fmt.Errorf("%w: treaty is %s", ErrInvalidInput, t.Status)
	}

	if err := s.treatyRepo.Transition(ctx, t.ID, model.TreatyActive, model.TreatyBroken, s.now()); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, fmt.Errorf("%w: treaty no longer active", ErrInvalidInput)
		}
		return nil, err
	}
	broken, err := s.get(ctx, treatyID)
	if err != nil {
		return nil, err
	}
	s.broadcaster.BroadcastEvent("treaties", EventTreatyChanged, broken)
	return broken, nil
}

// ListTreaties returns a kingdom's treaties, expiring stale active ones
// along the way.
func (s *TreatyService) ListTreaties(ctx context.Context, kingdomID string) ([]model.Treaty, error) {
	treaties, err := s.treatyRepo.ListByKingdom(ctx, kingdomID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range treaties {
		t := &treaties[i]
		if t.Status != model.TreatyActive || !now.After(t.ExpiresAt) {
			continue
		}
		err := s.treatyRepo.Transition(ctx, t.ID, model.TreatyActive, model.TreatyExpired, now)
		if err != nil && !errors.Is(err, repository.ErrStatusConflict) {
			return nil, err
		}
		t.Status = model.TreatyExpired
	}
	return treaties, nil
}

func (s *TreatyService) get(ctx context.Context, treatyID string) (*model.Treaty, error) {
	t, err := s.treatyRepo.FindByID(ctx, treatyID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTreatyNotFound
	}
	if t.Status == model.TreatyActive && s.now().After(t.ExpiresAt) {
		err := s.treatyRepo.Transition(ctx, t.ID, model.TreatyActive, model.TreatyExpired, s.now())
		if err != nil && !errors.Is(err, repository.ErrStatusConflict) {
			return nil, err
		}
		t.Status = model.TreatyExpired
	}
	return t, nil
}

func (s *TreatyService) ownerCheck(ctx context.Context, kingdomID, ownerID string) error {
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
	return nil
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/kalleeh/monarchygame-sub001/internal/economy"
	"github.com/kalleeh/monarchygame-sub001/internal/model"
	"github.com/kalleeh/monarchygame-sub001/internal/repository/memory"
)

func newBountyFixture(t *testing.T) (*BountyService, *memory.KingdomRepo, *model.Kingdom, *model.Kingdom) {
	t.Helper()
	kingdoms := memory.NewKingdomRepo()
	svc := NewBountyService(memory.NewBountyRepo(), kingdoms, nil)
	placer := seedKingdom(t, kingdoms, "owner-p")
	target := seedKingdom(t, kingdoms, "owner-t")
	return svc, kingdoms, placer, target
}

func TestPlaceBountyEscrowsGold(t *testing.T) {
	svc, kingdoms, placer, target := newBountyFixture(t)

	b, err := svc.PlaceBounty(context.Background(), placer.ID, "owner-p", target.ID, 1500)
	if err != nil {
		t.Fatalf("PlaceBounty: %v", err)
	}
	if b.Status != model.BountyOpen || b.Amount != 1500 {
		t.Errorf("bounty = %+v", b)
	}
	if got := mustKingdom(t, kingdoms, placer.ID); got.Resources.Gold != 8500 {
		t.Errorf("placer gold = %d, want 8500 after escrow", got.Resources.Gold)
	}

	open, err := svc.ListBounties(context.Background(), target.ID)
	if err != nil {
		t.Fatalf("ListBounties: %v", err)
	}
	if len(open) != 1 {
		t.Errorf("expected 1 open bounty, got %d", len(open))
	}
}

func TestPlaceBountyChecks(t *testing.T) {
	svc, kingdoms, placer, target := newBountyFixture(t)

	if _, err := svc.PlaceBounty(context.Background(), placer.ID, "owner-p", target.ID, 0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero amount: got %v", err)
	}
	if _, err := svc.PlaceBounty(context.Background(), placer.ID, "owner-p", placer.ID, 100); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("self bounty: got %v", err)
	}
	if _, err := svc.PlaceBounty(context.Background(), placer.ID, "owner-p", "ghost", 100); !errors.Is(err, ErrTargetNotFound) {
		t.Errorf("missing target: got %v", err)
	}
	if _, err := svc.PlaceBounty(context.Background(), placer.ID, "impostor", target.ID, 100); !errors.Is(err, ErrNotOwner) {
		t.Errorf("wrong owner: got %v", err)
	}
	if _, err := svc.PlaceBounty(context.Background(), placer.ID, "owner-p", target.ID, 10001); !errors.Is(err, economy.ErrInsufficientResources) {
		t.Errorf("overspend: got %v", err)
	}
	if got := mustKingdom(t, kingdoms, placer.ID); got.Resources.Gold != 10000 {
		t.Error("failed bounty must not escrow gold")
	}
}

func TestCancelBountyRefundsEscrow(t *testing.T) {
	svc, kingdoms, placer, target := newBountyFixture(t)
	b, err := svc.PlaceBounty(context.Background(), placer.ID, "owner-p", target.ID, 1000)
	if err != nil {
		t.Fatalf("PlaceBounty: %v", err)
	}

	if err := svc.CancelBounty(context.Background(), b.ID, target.ID, "owner-t"); !errors.Is(err, ErrNotOwner) {
		t.Errorf("non-placer cancel: got %v", err)
	}
	if err := svc.CancelBounty(context.Background(), b.ID, placer.ID, "owner-p"); err != nil {
		t.Fatalf("CancelBounty: %v", err)
	}
	if got := mustKingdom(t, kingdoms, placer.ID); got.Resources.Gold != 10000 {
		t.Errorf("cancel must refund the escrow, placer has %d", got.Resources.Gold)
	}
	if err := svc.CancelBounty(context.Background(), b.ID, placer.ID, "owner-p"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("double cancel: got %v", err)
	}

	open, err := svc.ListBounties(context.Background(), target.ID)
	if err != nil {
		t.Fatalf("ListBounties: %v", err)
	}
	if len(open) != 0 {
		t.Errorf("cancelled bounty should leave the open list, got %d", len(open))
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kalleeh/monarchygame-sub001/internal/economy"
	"github.com/kalleeh/monarchygame-sub001/internal/model"
	"github.com/kalleeh/monarchygame-sub001/internal/repository/memory"
)

func newTerritoryFixture(t *testing.T) (*TerritoryService, *memory.KingdomRepo, *model.Kingdom) {
	t.Helper()
	kingdoms := memory.NewKingdomRepo()
	svc := NewTerritoryService(memory.NewTerritoryRepo(), kingdoms)
	k := seedKingdom(t, kingdoms, "user-1")
	return svc, kingdoms, k
}

func TestClaimTerritory(t *testing.T) {
	svc, kingdoms, k := newTerritoryFixture(t)

	claim, err := svc.ClaimTerritory(context.Background(), ClaimRequest{
		KingdomID: k.ID,
		OwnerID:   "user-1",
		Name:      "North Marches",
		Terrain:   "hills",
		X:         12,
		Y:         -7,
		RegionID:  "region-1",
	})
	if err != nil {
		t.Fatalf("ClaimTerritory: %v", err)
	}
	if claim.Type != "claim" || claim.X != 12 || claim.Y != -7 {
		t.Errorf("claim = %+v", claim)
	}

	got := mustKingdom(t, kingdoms, k.ID)
	if got.Resources.Gold != 10000-economy.TerritoryGoldCost {
		t.Errorf("gold = %d, want %d", got.Resources.Gold, 10000-economy.TerritoryGoldCost)
	}
	if got.Resources.Turns != 50-economy.TerritoryTurnCost {
		t.Errorf("turns = %d, want %d", got.Resources.Turns, 50-economy.TerritoryTurnCost)
	}

	list, err := svc.ListTerritories(context.Background(), k.ID)
	if err != nil {
		t.Fatalf("ListTerritories: %v", err)
	}
	if len(list) != 1 || list[0].Name != "North Marches" {
		t.Errorf("territories = %+v", list)
	}
}

func TestClaimTerritoryValidation(t *testing.T) {
	svc, _, k := newTerritoryFixture(t)
	base := ClaimRequest{KingdomID: k.ID, OwnerID: "user-1", Name: "Borderlands", X: 1, Y: 1}

	tests := []struct {
		name string
		mut  func(*ClaimRequest)
	}{
		{"short name", func(r *ClaimRequest) { r.Name = "A" }},
		{"x out of range", func(r *ClaimRequest) { r.X = coordLimit + 1 }},
		{"y out of range", func(r *ClaimRequest) { r.Y = -coordLimit - 1 }},
		{"unknown terrain", func(r *ClaimRequest) { r.Terrain = "tundra" }},
	}
	for _, tt := range tests {
		req := base
		tt.mut(&req)
		if _, err := svc.ClaimTerritory(context.Background(), req); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: got %v, want ErrInvalidInput", tt.name, err)
		}
	}
}

func TestClaimTerritoryDuplicateCoordinates(t *testing.T) {
	svc, _, k := newTerritoryFixture(t)
	req := ClaimRequest{KingdomID: k.ID, OwnerID: "user-1", Name: "Borderlands", X: 3, Y: 4}

	if _, err := svc.ClaimTerritory(context.Background(), req); err != nil {
		t.Fatalf("ClaimTerritory: %v", err)
	}
	req.Name = "Borderlands II"
	if _, err := svc.ClaimTerritory(context.Background(), req); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("duplicate coordinates: got %v", err)
	}
}

func TestClaimTerritoryRegionCap(t *testing.T) {
	svc, kingdoms, k := newTerritoryFixture(t)

	for i := 0; i < maxClaimsPerRegion; i++ {
		req := ClaimRequest{
			KingdomID: k.ID,
			OwnerID:   "user-1",
			Name:      fmt.Sprintf("Province %d", i+1),
			X:         i,
			Y:         100,
			RegionID:  "region-1",
		}
		if _, err := svc.ClaimTerritory(context.Background(), req); err != nil {
			t.Fatalf("claim %d: %v", i+1, err)
		}
	}

	overflow := ClaimRequest{KingdomID: k.ID, OwnerID: "user-1", Name: "One Too Many", X: 99, Y: 100, RegionID: "region-1"}
	if _, err := svc.ClaimTerritory(context.Background(), overflow); !errors.Is(err, ErrRegionFull) {
		t.Errorf("sixth claim: got %v, want ErrRegionFull", err)
	}

	// The cap is per region; a different region is still open.
	elsewhere := ClaimRequest{KingdomID: k.ID, OwnerID: "user-1", Name: "New Frontier", X: 99, Y: 101, RegionID: "region-2"}
	if _, err := svc.ClaimTerritory(context.Background(), elsewhere); err != nil {
		t.Errorf("claim in another region: %v", err)
	}

	got := mustKingdom(t, kingdoms, k.ID)
	if got.Resources.Gold != 10000-6*economy.TerritoryGoldCost {
		t.Errorf("gold = %d after 6 claims", got.Resources.Gold)
	}
}

func TestClaimTerritoryInsufficientGold(t *testing.T) {
	kingdoms := memory.NewKingdomRepo()
	svc := NewTerritoryService(memory.NewTerritoryRepo(), kingdoms)
	k := seedKingdom(t, kingdoms, "user-1", func(k *model.Kingdom) { k.Resources.Gold = 100 })

	req := ClaimRequest{KingdomID: k.ID, OwnerID: "user-1", Name: "Borderlands", X: 1, Y: 1}
	if _, err := svc.ClaimTerritory(context.Background(), req); !errors.Is(err, economy.ErrInsufficientResources) {
		t.Errorf("expected ErrInsufficientResources, got %v", err)
	}
	if got := mustKingdom(t, kingdoms, k.ID); got.Resources.Turns != 50 {
		t.Error("failed claim must not spend turns")
	}
}

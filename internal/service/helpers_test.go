package service

import (
	"context"
	"testing"
	"time"

	"github.com/kalleeh/monarchygame-sub001/internal/model"
	"github.com/kalleeh/monarchygame-sub001/internal/repository/memory"
)

var testEpoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// seedKingdom stores an active human kingdom with the standard starting
// holdings, applying any mutators before persisting.
func seedKingdom(t *testing.T, repo *memory.KingdomRepo, ownerID string, mut ...func(*model.Kingdom)) *model.Kingdom {
	t.Helper()
	k := &model.Kingdom{
		OwnerID: ownerID,
		Name:    "Realm of " + ownerID,
		Race:    "human",
		Resources: model.Resources{
			Gold: 10000, Population: 5000, Mana: 500, Land: 1000, Turns: 50,
		},
		Units:     map[string]int{"soldier": 100, "archer": 50},
		Buildings: map[string]int{"farm": 5, "house": 10},
		AgePhase:  model.AgeEarly,
		Active:    true,
	}
	for _, m := range mut {
		m(k)
	}
	if err := repo.Create(context.Background(), k); err != nil {
		t.Fatalf("seed kingdom: %v", err)
	}
	return k
}

// seedGuild stores a guild led by leaderID and links the leader kingdom
// to it.
func seedGuild(t *testing.T, guilds *memory.GuildRepo, kingdoms *memory.KingdomRepo, name, tag string, leader *model.Kingdom) *model.Guild {
	t.Helper()
	g := &model.Guild{Name: name, Tag: tag, LeaderID: leader.ID}
	if err := guilds.Create(context.Background(), g); err != nil {
		t.Fatalf("seed guild: %v", err)
	}
	leader.GuildID = g.ID
	if err := kingdoms.Update(context.Background(), leader); err != nil {
		t.Fatalf("link leader to guild: %v", err)
	}
	return g
}

func mustKingdom(t *testing.T, repo *memory.KingdomRepo, id string) *model.Kingdom {
	t.Helper()
	k, err := repo.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("find kingdom %s: %v", id, err)
	}
	if k == nil {
		t.Fatalf("kingdom %s vanished", id)
	}
	return k
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kalleeh/monarchygame-sub001/internal/model"
)

// Errors shared by every implementation. Find* methods return (nil, nil)
// for records that don't exist.
var (
	// ErrVersionConflict signals a lost optimistic-concurrency race;
	// callers retry the read-compute-write cycle.
	ErrVersionConflict = errors.New("version conflict")
	// ErrDuplicateWar signals an ACTIVE war already links the guild pair.
	ErrDuplicateWar = errors.New("active war already exists between guilds")
	// ErrStatusConflict signals a conditional status transition found the
	// record in a different state than expected.
	ErrStatusConflict = errors.New("record status changed concurrently")
	// ErrInsufficientTreasury signals a withdrawal would overdraw a guild.
	ErrInsufficientTreasury = errors.New("guild treasury insufficient")
)

// KingdomRepository defines kingdom state operations. Update is
// conditional on the kingdom's Version and increments it on success.
type KingdomRepository interface {
	Create(ctx context.Context, k *model.Kingdom) error
	FindByID(ctx context.Context, id string) (*model.Kingdom, error)
	FindByOwner(ctx context.Context, ownerID string) ([]model.Kingdom, error)
	ListActive(ctx context.Context) ([]model.Kingdom, error)
	Update(ctx context.Context, k *model.Kingdom) error
}

// GuildRepository defines guild and treasury operations. AdjustTreasury
// applies an atomic delta and fails with ErrInsufficientTreasury rather
// than overdrawing.
type GuildRepository interface {
	Create(ctx context.Context, g *model.Guild) error
	FindByID(ctx context.Context, id string) (*model.Guild, error)
	AdjustTreasury(ctx context.Context, guildID string, delta int64) (int64, error)
}

// WarRepository is the abstract guild-war store. Two implementations
// exist: the in-memory store for demo/local mode and the Postgres store;
// configuration selects one at startup. Score mutation methods are atomic
// so concurrent contributions never lose increments.
type WarRepository interface {
	// Create persists a new ACTIVE war, failing with ErrDuplicateWar when
	// an ACTIVE war already links the pair in either direction.
	Create(ctx context.Context, w *model.GuildWar) error
	FindByID(ctx context.Context, id string) (*model.GuildWar, error)
	FindActiveBetween(ctx context.Context, guildA, guildB string) (*model.GuildWar, error)
	ListActive(ctx context.Context) ([]model.GuildWar, error)
	List(ctx context.Context) ([]model.GuildWar, error)
	// AddContribution atomically adds points to the contributing guild's
	// side and upserts the kingdom's contribution entry. It is a no-op
	// when the war is no longer ACTIVE.
	AddContribution(ctx context.Context, warID, kingdomID, guildID string, points int64) error
	// End transitions the war to ENDED with the given winner ("" = tie),
	// failing with ErrStatusConflict when the war is not ACTIVE.
	End(ctx context.Context, warID, winnerGuildID string, endedAt time.Time) error
}

// ReportRepository stores immutable battle reports.
type ReportRepository interface {
	Create(ctx context.Context, r *model.BattleReport) error
	ListByKingdom(ctx context.Context, kingdomID string, limit int) ([]model.BattleReport, error)
}

// TerritoryRepository defines territory claim operations.
type TerritoryRepository interface {
	Create(ctx context.Context, t *model.Territory) error
	ExistsAt(ctx context.Context, x, y int) (bool, error)
	CountByRegion(ctx context.Context, kingdomID, regionID string) (int, error)
	ListByKingdom(ctx context.Context, kingdomID string) ([]model.Territory, error)
}

// TradeRepository defines trade offer operations. Transition is
// conditional on the current status so two accepts cannot both win.
type TradeRepository interface {
	Create(ctx context.Context, o *model.TradeOffer) error
	FindByID(ctx context.Context, id string) (*model.TradeOffer, error)
	ListOpen(ctx context.Context) ([]model.TradeOffer, error)
	Transition(ctx context.Context, id, from, to, acceptedByID string, at time.Time) error
}

// TreatyRepository defines treaty operations.
type TreatyRepository interface {
	Create(ctx context.Context, t *model.Treaty) error
	FindByID(ctx context.Context, id string) (*model.Treaty, error)
	ListByKingdom(ctx context.Context, kingdomID string) ([]model.Treaty, error)
	Transition(ctx context.Context, id, from, to string, at time.Time) error
}

// BountyRepository defines bounty operations.
type BountyRepository interface {
	Create(ctx context.Context, b *model.Bounty) error
	FindByID(ctx context.Context, id string) (*model.Bounty, error)
	ListOpenByTarget(ctx context.Context, targetID string) ([]model.Bounty, error)
	Claim(ctx context.Context, id, claimedByID string, at time.Time) error
	Cancel(ctx context.Context, id string, at time.Time) error
}

// WarTimerCache schedules war-expiry housekeeping (Redis keyspace
// notifications in production). Lazy expiry on the read path remains the
// correctness mechanism; the timer only prompts the sweep.
type WarTimerCache interface {
	SetWarTimer(ctx context.Context, warID string, endsAt time.Time) error
	ClearWarTimer(ctx context.Context, warID string) error
}

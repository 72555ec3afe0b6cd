package model

import (
	"time"
)

// Age phases a kingdom moves through over its lifetime.
const (
	AgeEarly  = "early"
	AgeMiddle = "middle"
	AgeLate   = "late"
)

// MaxTurns is the cap on banked turns per kingdom.
const MaxTurns = 100

// Resources holds a kingdom's resource pools. All fields are non-negative.
type Resources struct {
	Gold       int64 `json:"gold"`
	Population int64 `json:"population"`
	Mana       int64 `json:"mana"`
	Land       int64 `json:"land"`
	Turns      int64 `json:"turns"`
}

// Kingdom represents a player's governed entity.
type Kingdom struct {
	ID        string         `json:"id"`
	OwnerID   string         `json:"owner_id"`
	Name      string         `json:"name"`
	Race      string         `json:"race"`
	Resources Resources      `json:"resources"`
	Units     map[string]int `json:"units"`
	Buildings map[string]int `json:"buildings"`
	GuildID   string         `json:"guild_id,omitempty"`
	AgePhase  string         `json:"age_phase"`
	Active    bool           `json:"active"`
	// Version is the optimistic-concurrency counter; every conditional
	// write increments it.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Guild represents an alliance of kingdoms with a shared treasury.
type Guild struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Tag       string    `json:"tag"`
	LeaderID  string    `json:"leader_id"` // kingdom ID of the founder
	Treasury  int64     `json:"treasury"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// Guild war statuses.
const (
	WarStatusActive = "ACTIVE"
	WarStatusEnded  = "ENDED"
)

// WarDuration is the fixed length of a declared guild war.
const WarDuration = 72 * time.Hour

// WarContribution tracks one kingdom's accumulated score in a war.
type WarContribution struct {
	KingdomID   string `json:"kingdom_id"`
	GuildID     string `json:"guild_id"`
	Score       int64  `json:"score"`
	AttackCount int64  `json:"attack_count"`
}

// GuildWar represents a declared war between two guilds.
type GuildWar struct {
	ID                 string            `json:"id"`
	AttackingGuildID   string            `json:"attacking_guild_id"`
	DefendingGuildID   string            `json:"defending_guild_id"`
	AttackingGuildName string            `json:"attacking_guild_name"`
	DefendingGuildName string            `json:"defending_guild_name"`
	Status             string            `json:"status"`
	DeclaredAt         time.Time         `json:"declared_at"`
	EndsAt             time.Time         `json:"ends_at"`
	AttackingScore     int64             `json:"attacking_score"`
	DefendingScore     int64             `json:"defending_score"`
	Contributions      []WarContribution `json:"contributions,omitempty"`
	WinnerGuildID      string            `json:"winner_guild_id,omitempty"`
	EndedAt            *time.Time        `json:"ended_at,omitempty"`
}

// Expired reports whether the war's fixed window has passed.
func (w *GuildWar) Expired(now time.Time) bool {
	return !now.Before(w.EndsAt)
}

// Involves reports whether guildID is one of the two belligerents.
func (w *GuildWar) Involves(guildID string) bool {
	return guildID == w.AttackingGuildID || guildID == w.DefendingGuildID
}

// BattleReport is the immutable audit record of one resolved attack.
type BattleReport struct {
	ID                 string         `json:"id"`
	AttackerID         string         `json:"attacker_id"`
	DefenderID         string         `json:"defender_id"`
	AttackType         string         `json:"attack_type"`
	ResultTier         string         `json:"result_tier"`
	AttackerCasualties map[string]int `json:"attacker_casualties"`
	DefenderCasualties map[string]int `json:"defender_casualties"`
	LandGained         int64          `json:"land_gained"`
	GoldLooted         int64          `json:"gold_looted"`
	WarID              string         `json:"war_id,omitempty"`
	WarPoints          int64          `json:"war_points,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
}

// Territory is a named claim on the world map.
type Territory struct {
	ID        string    `json:"id"`
	KingdomID string    `json:"kingdom_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Terrain   string    `json:"terrain"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	RegionID  string    `json:"region_id,omitempty"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Trade offer statuses.
const (
	TradeOpen      = "open"
	TradeAccepted  = "accepted"
	TradeCancelled = "cancelled"
	TradeExpired   = "expired"
)

// TradeOffer is a resource-for-resource exchange between kingdoms.
type TradeOffer struct {
	ID            string     `json:"id"`
	CreatorID     string     `json:"creator_id"` // offering kingdom
	OfferResource string     `json:"offer_resource"`
	OfferAmount   int64      `json:"offer_amount"`
	WantResource  string     `json:"want_resource"`
	WantAmount    int64      `json:"want_amount"`
	Status        string     `json:"status"`
	AcceptedByID  string     `json:"accepted_by_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     time.Time  `json:"expires_at"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
}

// Treaty statuses.
const (
	TreatyProposed = "proposed"
	TreatyActive   = "active"
	TreatyExpired  = "expired"
	TreatyBroken   = "broken"
)

// Treaty types.
const (
	TreatyNonAggression = "non_aggression"
	TreatyAlliance      = "alliance"
)

// Treaty is a diplomatic relation between two kingdoms.
type Treaty struct {
	ID          string     `json:"id"`
	ProposerID  string     `json:"proposer_id"`
	RecipientID string     `json:"recipient_id"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

// Bounty statuses.
const (
	BountyOpen      = "open"
	BountyClaimed   = "claimed"
	BountyCancelled = "cancelled"
)

// Bounty is an escrowed gold reward for defeating a target kingdom.
type Bounty struct {
	ID          string     `json:"id"`
	PlacerID    string     `json:"placer_id"`
	TargetID    string     `json:"target_id"`
	Amount      int64      `json:"amount"`
	Status      string     `json:"status"`
	ClaimedByID string     `json:"claimed_by_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

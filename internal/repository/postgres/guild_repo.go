package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kalleeh/monarchygame-sub001/internal/model"
	"github.com/kalleeh/monarchygame-sub001/internal/repository"
)

// GuildRepo handles guild database operations.
type GuildRepo struct {
	db *sql.DB
}

// NewGuildRepo creates a GuildRepo.
func NewGuildRepo(db *sql.DB) *GuildRepo {
	return &GuildRepo{db: db}
}

// Create inserts a new guild and populates its ID.
func (r *GuildRepo) Create(ctx context.Context, g *model.Guild) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO guilds (name, tag, leader_id, treasury)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, version, created_at`,
		g.Name, g.Tag, g.LeaderID, g.Treasury,
	).Scan(&g.ID, &g.Version, &g.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert guild: %w", err)
	}
	return nil
}

// FindByID looks up a guild, returning (nil, nil) when absent.
func (r *GuildRepo) FindByID(ctx context.Context, id string) (*model.Guild, error) {
	var g model.Guild
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, tag, leader_id, treasury, version, created_at
		 FROM guilds WHERE id = $1`, id,
	).Scan(&g.ID, &g.Name, &g.Tag, &g.LeaderID, &g.Treasury, &g.Version, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find guild: %w", err)
	}
	return &g, nil
}

// AdjustTreasury applies an atomic delta server-side; the guard clause
// refuses to overdraw without a read-check-write race.
func (r *GuildRepo) AdjustTreasury(ctx context.Context, guildID string, delta int64) (int64, error) {
	var balance int64
	err := r.db.QueryRowContext(ctx,
		`UPDATE guilds
		 SET treasury = treasury + $1, version = version + 1
		 WHERE id = $2 AND treasury + $1 >= 0
		 RETURNING treasury`,
		delta, guildID,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, repository.ErrInsufficientTreasury
	}
	if err != nil {
		return 0, fmt.Errorf("adjust treasury: %w", err)
	}
	return balance, nil
}

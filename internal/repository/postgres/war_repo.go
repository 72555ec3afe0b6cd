package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/kalleeh/monarchygame-sub001/internal/model"
	"github.com/kalleeh/monarchygame-sub001/internal/repository"
)

// WarRepo handles guild war database operations. Score accumulation uses
// server-side atomic increments plus a contribution upsert, so concurrent
// attacks never lose points.
type WarRepo struct {
	db *sql.DB
}

// NewWarRepo creates a WarRepo.
func NewWarRepo(db *sql.DB) *WarRepo {
	return &WarRepo{db: db}
}

const warColumns = `id, attacking_guild_id, defending_guild_id,
	 attacking_guild_name, defending_guild_name, status, declared_at, ends_at,
	 attacking_score, defending_score, winner_guild_id, ended_at`

func scanWar(row interface{ Scan(...any) error }) (*model.GuildWar, error) {
	var w model.GuildWar
	var winner sql.NullString
	var endedAt sql.NullTime
	err := row.Scan(&w.ID, &w.AttackingGuildID, &w.DefendingGuildID,
		&w.AttackingGuildName, &w.DefendingGuildName, &w.Status,
		&w.DeclaredAt, &w.EndsAt, &w.AttackingScore, &w.DefendingScore,
		&winner, &endedAt)
	if err != nil {
		return nil, err
	}
	w.WinnerGuildID = winner.String
	if endedAt.Valid {
		t := endedAt.Time
		w.EndedAt = &t
	}
	return &w, nil
}

// Create inserts a new ACTIVE war. The partial unique index on the
// unordered guild pair closes the declare race atomically at create time;
// a unique violation maps to ErrDuplicateWar.
func (r *WarRepo) Create(ctx context.Context, w *model.GuildWar) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO guild_wars (attacking_guild_id, defending_guild_id,
		        attacking_guild_name, defending_guild_name, status, declared_at, ends_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		w.AttackingGuildID, w.DefendingGuildID,
		w.AttackingGuildName, w.DefendingGuildName,
		w.Status, w.DeclaredAt, w.EndsAt,
	).Scan(&w.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return repository.ErrDuplicateWar
		}
		return fmt.Errorf("insert war: %w", err)
	}
	return nil
}

// FindByID returns the war with its contributions, or (nil, nil).
func (r *WarRepo) FindByID(ctx context.Context, id string) (*model.GuildWar, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+warColumns+` FROM guild_wars WHERE id = $1`, id)
	w, err := scanWar(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find war: %w", err)
	}
	if w.Contributions, err = r.contributions(ctx, id); err != nil {
		return nil, err
	}
	return w, nil
}

// FindActiveBetween returns the ACTIVE war linking the pair in either
// direction, or (nil, nil).
func (r *WarRepo) FindActiveBetween(ctx context.Context, guildA, guildB string) (*model.GuildWar, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+warColumns+` FROM guild_wars
		 WHERE status = 'ACTIVE'
		   AND ((attacking_guild_id = $1 AND defending_guild_id = $2)
		     OR (attacking_guild_id = $2 AND defending_guild_id = $1))`,
		guildA, guildB)
	w, err := scanWar(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active war: %w", err)
	}
	return w, nil
}

// ListActive returns wars still marked ACTIVE.
func (r *WarRepo) ListActive(ctx context.Context) ([]model.GuildWar, error) {
	return r.list(ctx, `SELECT `+warColumns+` FROM guild_wars WHERE status = 'ACTIVE' ORDER BY declared_at`)
}

// List returns all wars, newest first.
func (r *WarRepo) List(ctx context.Context) ([]model.GuildWar, error) {
	return r.list(ctx, `SELECT `+warColumns+` FROM guild_wars ORDER BY declared_at DESC`)
}

func (r *WarRepo) list(ctx context.Context, query string) ([]model.GuildWar, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list wars: %w", err)
	}
	defer rows.Close()
	var out []model.GuildWar
	for rows.Next() {
		w, err := scanWar(rows)
		if err != nil {
			return nil, fmt.Errorf("scan war: %w", err)
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

func (r *WarRepo) contributions(ctx context.Context, warID string) ([]model.WarContribution, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT kingdom_id, guild_id, score, attack_count
		 FROM war_contributions WHERE war_id = $1 ORDER BY score DESC`, warID)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	defer rows.Close()
	var out []model.WarContribution
	for rows.Next() {
		var c model.WarContribution
		if err := rows.Scan(&c.KingdomID, &c.GuildID, &c.Score, &c.AttackCount); err != nil {
			return nil, fmt.Errorf("scan contribution: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AddContribution adds points to the contributing guild's side and
// upserts the kingdom's entry, all inside one transaction. A war that is
// no longer ACTIVE, or a guild that is not a belligerent, makes the whole
// call a no-op.
func (r *WarRepo) AddContribution(ctx context.Context, warID, kingdomID, guildID string, points int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin contribution tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE guild_wars
		 SET attacking_score = attacking_score + CASE WHEN attacking_guild_id = $1 THEN $2 ELSE 0 END,
		     defending_score = defending_score + CASE WHEN defending_guild_id = $1 THEN $2 ELSE 0 END
		 WHERE id = $3 AND status = 'ACTIVE'
		   AND (attacking_guild_id = $1 OR defending_guild_id = $1)`,
		guildID, points, warID)
	if err != nil {
		return fmt.Errorf("bump war score: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("bump war score rows: %w", err)
	}
	if n == 0 {
		// War ended or guild is not a belligerent.
		return nil
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO war_contributions (war_id, kingdom_id, guild_id, score, attack_count)
		 VALUES ($1, $2, $3, $4, 1)
		 ON CONFLICT (war_id, kingdom_id)
		 DO UPDATE SET score = war_contributions.score + EXCLUDED.score,
		               attack_count = war_contributions.attack_count + 1`,
		warID, kingdomID, guildID, points)
	if err != nil {
		return fmt.Errorf("upsert contribution: %w", err)
	}

	return tx.Commit()
}

// End transitions the war to ENDED; conditional on ACTIVE so resolve,
// concede and lazy expiry cannot double-finish a war.
func (r *WarRepo) End(ctx context.Context, warID, winnerGuildID string, endedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE guild_wars
		 SET status = 'ENDED', winner_guild_id = NULLIF($1, ''), ended_at = $2
		 WHERE id = $3 AND status = 'ACTIVE'`,
		winnerGuildID, endedAt, warID)
	if err != nil {
		return fmt.Errorf("end war: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("end war rows: %w", err)
	}
	if n == 0 {
		return repository.ErrStatusConflict
	}
	return nil
}

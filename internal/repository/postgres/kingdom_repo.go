package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kalleeh/monarchygame-sub001/internal/model"
	"github.com/kalleeh/monarchygame-sub001/internal/repository"
)

// KingdomRepo handles kingdom database operations. Unit and building
// counts are typed maps in the domain and serialize to JSONB only here,
// at the storage boundary.
type KingdomRepo struct {
	db *sql.DB
}

// NewKingdomRepo creates a KingdomRepo.
func NewKingdomRepo(db *sql.DB) *KingdomRepo {
	return &KingdomRepo{db: db}
}

const kingdomColumns = `id, owner_id, name, race, gold, population, mana, land, turns,
	 units, buildings, guild_id, age_phase, active, version, created_at, updated_at`

func scanKingdom(row interface{ Scan(...any) error }) (*model.Kingdom, error) {
	var k model.Kingdom
	var unitsJSON, buildingsJSON []byte
	var guildID sql.NullString
	err := row.Scan(&k.ID, &k.OwnerID, &k.Name, &k.Race,
		&k.Resources.Gold, &k.Resources.Population, &k.Resources.Mana,
		&k.Resources.Land, &k.Resources.Turns,
		&unitsJSON, &buildingsJSON, &guildID, &k.AgePhase, &k.Active,
		&k.Version, &k.CreatedAt, &k.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(unitsJSON, &k.Units); err != nil {
		return nil, fmt.Errorf("decode units: %w", err)
	}
	if err := json.Unmarshal(buildingsJSON, &k.Buildings); err != nil {
		return nil, fmt.Errorf("decode buildings: %w", err)
	}
	k.GuildID = guildID.String
	return &k, nil
}

// Create inserts a new kingdom and populates its ID and version.
func (r *KingdomRepo) Create(ctx context.Context, k *model.Kingdom) error {
	unitsJSON, err := json.Marshal(k.Units)
	if err != nil {
		return fmt.Errorf("encode units: %w", err)
	}
	buildingsJSON, err := json.Marshal(k.Buildings)
	if err != nil {
		return fmt.Errorf("encode buildings: %w", err)
	}
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO kingdoms (owner_id, name, race, gold, population, mana, land, turns,
		        units, buildings, guild_id, age_phase, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), $12, $13)
		 RETURNING id, version, created_at, updated_at`,
		k.OwnerID, k.Name, k.Race,
		k.Resources.Gold, k.Resources.Population, k.Resources.Mana,
		k.Resources.Land, k.Resources.Turns,
		unitsJSON, buildingsJSON, k.GuildID, k.AgePhase, k.Active,
	).Scan(&k.ID, &k.Version, &k.CreatedAt, &k.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert kingdom: %w", err)
	}
	return nil
}

// FindByID looks up a kingdom, returning (nil, nil) when absent.
func (r *KingdomRepo) FindByID(ctx context.Context, id string) (*model.Kingdom, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+kingdomColumns+` FROM kingdoms WHERE id = $1`, id)
	k, err := scanKingdom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find kingdom: %w", err)
	}
	return k, nil
}

// FindByOwner returns all kingdoms owned by an identity.
func (r *KingdomRepo) FindByOwner(ctx context.Context, ownerID string) ([]model.Kingdom, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+kingdomColumns+` FROM kingdoms WHERE owner_id = $1 ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list kingdoms by owner: %w", err)
	}
	defer rows.Close()
	return collectKingdoms(rows)
}

// ListActive returns all active kingdoms, the turn tick's scan set.
func (r *KingdomRepo) ListActive(ctx context.Context) ([]model.Kingdom, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+kingdomColumns+` FROM kingdoms WHERE active ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list active kingdoms: %w", err)
	}
	defer rows.Close()
	return collectKingdoms(rows)
}

func collectKingdoms(rows *sql.Rows) ([]model.Kingdom, error) {
	var out []model.Kingdom
	for rows.Next() {
		k, err := scanKingdom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan kingdom: %w", err)
		}
		out = append(out, *k)
	}
	return out, rows.Err()
}

// Update writes the kingdom back conditionally on its version. A zero
// row count means another writer won the race; callers retry.
func (r *KingdomRepo) Update(ctx context.Context, k *model.Kingdom) error {
	unitsJSON, err := json.Marshal(k.Units)
	if err != nil {
		return fmt.Errorf("encode units: %w", err)
	}
	buildingsJSON, err := json.Marshal(k.Buildings)
	if err != nil {
		return fmt.Errorf("encode buildings: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE kingdoms
		 SET gold = $1, population = $2, mana = $3, land = $4, turns = $5,
		     units = $6, buildings = $7, guild_id = NULLIF($8, ''), age_phase = $9,
		     active = $10, version = version + 1, updated_at = now()
		 WHERE id = $11 AND version = $12`,
		k.Resources.Gold, k.Resources.Population, k.Resources.Mana,
		k.Resources.Land, k.Resources.Turns,
		unitsJSON, buildingsJSON, k.GuildID, k.AgePhase, k.Active,
		k.ID, k.Version)
	if err != nil {
		return fmt.Errorf("update kingdom: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update kingdom rows: %w", err)
	}
	if n == 0 {
		return repository.ErrVersionConflict
	}
	k.Version++
	return nil
}

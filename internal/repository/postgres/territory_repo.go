package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kalleeh/monarchygame-sub001/internal/model"
)

// TerritoryRepo handles territory claim database operations.
type TerritoryRepo struct {
	db *sql.DB
}

// NewTerritoryRepo creates a TerritoryRepo.
func NewTerritoryRepo(db *sql.DB) *TerritoryRepo {
	return &TerritoryRepo{db: db}
}

// Create inserts a territory claim and populates its ID.
func (r *TerritoryRepo) Create(ctx context.Context, t *model.Territory) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO territories (kingdom_id, name, type, terrain, x, y, region_id, category)
		 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''))
		 RETURNING id, created_at`,
		t.KingdomID, t.Name, t.Type, t.Terrain, t.X, t.Y, t.RegionID, t.Category,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert territory: %w", err)
	}
	return nil
}

// ExistsAt reports whether any claim already occupies the coordinates.
func (r *TerritoryRepo) ExistsAt(ctx context.Context, x, y int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM territories WHERE x = $1 AND y = $2)`, x, y,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("territory exists: %w", err)
	}
	return exists, nil
}

// CountByRegion counts a kingdom's claims inside one region.
func (r *TerritoryRepo) CountByRegion(ctx context.Context, kingdomID, regionID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM territories WHERE kingdom_id = $1 AND region_id = $2`,
		kingdomID, regionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count territories: %w", err)
	}
	return count, nil
}

// ListByKingdom returns a kingdom's claims, oldest first.
func (r *TerritoryRepo) ListByKingdom(ctx context.Context, kingdomID string) ([]model.Territory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kingdom_id, name, type, terrain, x, y,
		        COALESCE(region_id, ''), COALESCE(category, ''), created_at
		 FROM territories WHERE kingdom_id = $1 ORDER BY created_at`, kingdomID)
	if err != nil {
		return nil, fmt.Errorf("list territories: %w", err)
	}
	defer rows.Close()

	var out []model.Territory
	for rows.Next() {
		var t model.Territory
		err := rows.Scan(&t.ID, &t.KingdomID, &t.Name, &t.Type, &t.Terrain,
			&t.X, &t.Y, &t.RegionID, &t.Category, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan territory: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

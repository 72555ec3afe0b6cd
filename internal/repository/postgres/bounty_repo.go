package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kalleeh/monarchygame-sub001/internal/model"
	"github.com/kalleeh/monarchygame-sub001/internal/repository"
)

// BountyRepo handles bounty database operations.
type BountyRepo struct {
	db *sql.DB
}

// NewBountyRepo creates a BountyRepo.
func NewBountyRepo(db *sql.DB) *BountyRepo {
	return &BountyRepo{db: db}
}

func scanBounty(row interface{ Scan(...any) error }) (*model.Bounty, error) {
	var b model.Bounty
	var resolvedAt sql.NullTime
	err := row.Scan(&b.ID, &b.PlacerID, &b.TargetID, &b.Amount, &b.Status,
		&b.ClaimedByID, &b.CreatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		b.ResolvedAt = &t
	}
	return &b, nil
}

// Create inserts a bounty and populates its ID.
func (r *BountyRepo) Create(ctx context.Context, b *model.Bounty) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO bounties (placer_id, target_id, amount, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		b.PlacerID, b.TargetID, b.Amount, b.Status,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert bounty: %w", err)
	}
	return nil
}

// FindByID looks up a bounty, returning (nil, nil) when absent.
func (r *BountyRepo) FindByID(ctx context.Context, id string) (*model.Bounty, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, placer_id, target_id, amount, status,
		        COALESCE(claimed_by_id::text, ''), created_at, resolved_at
		 FROM bounties WHERE id = $1`, id)
	b, err := scanBounty(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find bounty: %w", err)
	}
	return b, nil
}

// ListOpenByTarget returns open bounties on a kingdom.
func (r *BountyRepo) ListOpenByTarget(ctx context.Context, targetID string) ([]model.Bounty, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, placer_id, target_id, amount, status,
		        COALESCE(claimed_by_id::text, ''), created_at, resolved_at
		 FROM bounties WHERE target_id = $1 AND status = 'open'
		 ORDER BY created_at`, targetID)
	if err != nil {
		return nil, fmt.Errorf("list bounties: %w", err)
	}
	defer rows.Close()
	var out []model.Bounty
	for rows.Next() {
		b, err := scanBounty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bounty: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// Claim marks an open bounty claimed; the status guard means each bounty
// pays out at most once.
func (r *BountyRepo) Claim(ctx context.Context, id, claimedByID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bounties SET status = 'claimed', claimed_by_id = $1, resolved_at = $2
		 WHERE id = $3 AND status = 'open'`,
		claimedByID, at, id)
	if err != nil {
		return fmt.Errorf("claim bounty: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("claim bounty rows: %w", err)
	}
	if n == 0 {
		return repository.ErrStatusConflict
	}
	return nil
}

// Cancel marks an open bounty cancelled.
func (r *BountyRepo) Cancel(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bounties SET status = 'cancelled', resolved_at = $1
		 WHERE id = $2 AND status = 'open'`,
		at, id)
	if err != nil {
		return fmt.Errorf("cancel bounty: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancel bounty rows: %w", err)
	}
	if n == 0 {
		return repository.ErrStatusConflict
	}
	return nil
}

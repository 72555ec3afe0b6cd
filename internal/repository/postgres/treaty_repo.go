package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kalleeh/monarchygame-sub001/internal/model"
	"github.com/kalleeh/monarchygame-sub001/internal/repository"
)

// TreatyRepo handles treaty database operations.
type TreatyRepo struct {
	db *sql.DB
}

// NewTreatyRepo creates a TreatyRepo.
func NewTreatyRepo(db *sql.DB) *TreatyRepo {
	return &TreatyRepo{db: db}
}

func scanTreaty(row interface{ Scan(...any) error }) (*model.Treaty, error) {
	var t model.Treaty
	var resolvedAt sql.NullTime
	err := row.Scan(&t.ID, &t.ProposerID, &t.RecipientID, &t.Type, &t.Status,
		&t.CreatedAt, &t.ExpiresAt, &resolvedAt)
	if err != nil {
		return nil, err
	}
	if resolvedAt.Valid {
		ts := resolvedAt.Time
		t.ResolvedAt = &ts
	}
	return &t, nil
}

// Create inserts a treaty proposal and populates its ID.
func (r *TreatyRepo) Create(ctx context.Context, t *model.Treaty) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO treaties (proposer_id, recipient_id, type, status, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		t.ProposerID, t.RecipientID, t.Type, t.Status, t.ExpiresAt,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert treaty: %w", err)
	}
	return nil
}

// FindByID looks up a treaty, returning (nil, nil) when absent.
func (r *TreatyRepo) FindByID(ctx context.Context, id string) (*model.Treaty, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, proposer_id, recipient_id, type, status, created_at, expires_at, resolved_at
		 FROM treaties WHERE id = $1`, id)
	t, err := scanTreaty(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find treaty: %w", err)
	}
	return t, nil
}

// ListByKingdom returns treaties the kingdom proposed or received.
func (r *TreatyRepo) ListByKingdom(ctx context.Context, kingdomID string) ([]model.Treaty, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, proposer_id, recipient_id, type, status, created_at, expires_at, resolved_at
		 FROM treaties WHERE proposer_id = $1 OR recipient_id = $1
		 ORDER BY created_at DESC`, kingdomID)
	if err != nil {
		return nil, fmt.Errorf("list treaties: %w", err)
	}
	defer rows.Close()
	var out []model.Treaty
	for rows.Next() {
		t, err := scanTreaty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan treaty: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Transition moves the treaty between statuses conditionally.
func (r *TreatyRepo) Transition(ctx context.Context, id, from, to string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE treaties SET status = $1, resolved_at = $2 WHERE id = $3 AND status = $4`,
		to, at, id, from)
	if err != nil {
		return fmt.Errorf("transition treaty: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition treaty rows: %w", err)
	}
	if n == 0 {
		return repository.ErrStatusConflict
	}
	return nil
}

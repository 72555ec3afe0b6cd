package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kalleeh/monarchygame-sub001/internal/model"
	"github.com/kalleeh/monarchygame-sub001/internal/repository"
)

// TradeRepo handles trade offer database operations.
type TradeRepo struct {
	db *sql.DB
}

// NewTradeRepo creates a TradeRepo.
func NewTradeRepo(db *sql.DB) *TradeRepo {
	return &TradeRepo{db: db}
}

const tradeColumns = `id, creator_id, offer_resource, offer_amount,
	 want_resource, want_amount, status, COALESCE(accepted_by_id::text, ''),
	 created_at, expires_at, resolved_at`

func scanTrade(row interface{ Scan(...any) error }) (*model.TradeOffer, error) {
	var o model.TradeOffer
	var resolvedAt sql.NullTime
	err := row.Scan(&o.ID, &o.CreatorID, &o.OfferResource, &o.OfferAmount,
		&o.WantResource, &o.WantAmount, &o.Status, &o.AcceptedByID,
		&o.CreatedAt, &o.ExpiresAt, &resolvedAt)
	if err != nil {
		return nil, err
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		o.ResolvedAt = &t
	}
	return &o, nil
}

// Create inserts a trade offer and populates its ID.
func (r *TradeRepo) Create(ctx context.Context, o *model.TradeOffer) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO trade_offers (creator_id, offer_resource, offer_amount,
		        want_resource, want_amount, status, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		o.CreatorID, o.OfferResource, o.OfferAmount,
		o.WantResource, o.WantAmount, o.Status, o.ExpiresAt,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert trade offer: %w", err)
	}
	return nil
}

// FindByID looks up a trade offer, returning (nil, nil) when absent.
func (r *TradeRepo) FindByID(ctx context.Context, id string) (*model.TradeOffer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+tradeColumns+` FROM trade_offers WHERE id = $1`, id)
	o, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find trade offer: %w", err)
	}
	return o, nil
}

// ListOpen returns all open offers, newest first.
func (r *TradeRepo) ListOpen(ctx context.Context) ([]model.TradeOffer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tradeColumns+` FROM trade_offers WHERE status = 'open' ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list open trades: %w", err)
	}
	defer rows.Close()
	var out []model.TradeOffer
	for rows.Next() {
		o, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade offer: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// Transition moves the offer between statuses conditionally; losing the
// race surfaces as ErrStatusConflict.
func (r *TradeRepo) Transition(ctx context.Context, id, from, to, acceptedByID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE trade_offers
		 SET status = $1, accepted_by_id = NULLIF($2, '')::uuid, resolved_at = $3
		 WHERE id = $4 AND status = $5`,
		to, acceptedByID, at, id, from)
	if err != nil {
		return fmt.Errorf("transition trade offer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition trade offer rows: %w", err)
	}
	if n == 0 {
		return repository.ErrStatusConflict
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kalleeh/monarchygame-sub001/internal/model"
)

// ReportRepo stores immutable battle reports.
type ReportRepo struct {
	db *sql.DB
}

// NewReportRepo creates a ReportRepo.
func NewReportRepo(db *sql.DB) *ReportRepo {
	return &ReportRepo{db: db}
}

// Create inserts a battle report and populates its ID.
func (r *ReportRepo) Create(ctx context.Context, rep *model.BattleReport) error {
	atkJSON, err := json.Marshal(rep.AttackerCasualties)
	if err != nil {
		return fmt.Errorf("encode attacker casualties: %w", err)
	}
	defJSON, err := json.Marshal(rep.DefenderCasualties)
	if err != nil {
		return fmt.Errorf("encode defender casualties: %w", err)
	}
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO battle_reports (attacker_id, defender_id, attack_type, result_tier,
		        attacker_casualties, defender_casualties, land_gained, gold_looted,
		        war_id, war_points)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10)
		 RETURNING id, created_at`,
		rep.AttackerID, rep.DefenderID, rep.AttackType, rep.ResultTier,
		atkJSON, defJSON, rep.LandGained, rep.GoldLooted,
		rep.WarID, rep.WarPoints,
	).Scan(&rep.ID, &rep.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert battle report: %w", err)
	}
	return nil
}

// ListByKingdom returns reports where the kingdom fought on either side,
// newest first.
func (r *ReportRepo) ListByKingdom(ctx context.Context, kingdomID string, limit int) ([]model.BattleReport, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, attacker_id, defender_id, attack_type, result_tier,
		        attacker_casualties, defender_casualties, land_gained, gold_looted,
		        COALESCE(war_id::text, ''), war_points, created_at
		 FROM battle_reports
		 WHERE attacker_id = $1 OR defender_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		kingdomID, limit)
	if err != nil {
		return nil, fmt.Errorf("list battle reports: %w", err)
	}
	defer rows.Close()

	var out []model.BattleReport
	for rows.Next() {
		var rep model.BattleReport
		var atkJSON, defJSON []byte
		err := rows.Scan(&rep.ID, &rep.AttackerID, &rep.DefenderID,
			&rep.AttackType, &rep.ResultTier, &atkJSON, &defJSON,
			&rep.LandGained, &rep.GoldLooted, &rep.WarID, &rep.WarPoints,
			&rep.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan battle report: %w", err)
		}
		if err := json.Unmarshal(atkJSON, &rep.AttackerCasualties); err != nil {
			return nil, fmt.Errorf("decode attacker casualties: %w", err)
		}
		if err := json.Unmarshal(defJSON, &rep.DefenderCasualties); err != nil {
			return nil, fmt.Errorf("decode defender casualties: %w", err)
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/kalleeh/monarchygame-sub001/internal/economy"
	"github.com/kalleeh/monarchygame-sub001/internal/repository"
)

// Sentinel errors returned by the services. Handlers map these onto the
// stable error-code taxonomy; anything unrecognized becomes
// INTERNAL_ERROR at the boundary.
var (
	ErrKingdomNotFound = errors.New("kingdom not found")
	ErrGuildNotFound   = errors.New("guild not found")
	ErrWarNotFound     = errors.New("war not found")
	ErrTradeNotFound   = errors.New("trade offer not found")
	ErrTreatyNotFound  = errors.New("treaty not found")
	ErrBountyNotFound  = errors.New("bounty not found")
	ErrTargetNotFound  = errors.New("target kingdom not found")

	ErrNotOwner       = errors.New("kingdom is not owned by caller")
	ErrNotGuildMember = errors.New("kingdom is not a member of the guild")
	ErrNotGuildLeader = errors.New("only the guild leader may do this")
	ErrTreatyForbids  = errors.New("an active treaty forbids hostile action")

	ErrInvalidInput      = errors.New("invalid parameter")
	ErrInsufficientUnits = errors.New("insufficient units")

	ErrSelfWar      = errors.New("a guild cannot declare war on itself")
	ErrAlreadyAtWar = errors.New("guilds are already at war")
	ErrWarNotActive = errors.New("war is not active")
	ErrRegionFull   = errors.New("region already holds the maximum claims")
)

// maxWriteRetries bounds the read-compute-write cycle under optimistic
// concurrency before the conflict surfaces as an internal error.
const maxWriteRetries = 3

// withRetry runs fn, retrying the whole cycle on version conflicts. fn
// must re-read current state each attempt.
func withRetry(ctx context.Context, fn func(context.Context) error) error {
	var err error
	for attempt := 0; attempt < maxWriteRetries; attempt++ {
		err = fn(ctx)
		if !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}
	}
	return fmt.Errorf("write retries exhausted: %w", err)
}

// refundCost returns an escrowed resource cost after a later write in
// the same action failed. Best effort; a failed refund is logged, not
// surfaced, since the caller already has an error to report.
func refundCost(ctx context.Context, repo repository.KingdomRepository, kingdomID, field string, amount int64) {
	err := withRetry(ctx, func(ctx context.Context) error {
		k, err := repo.FindByID(ctx, kingdomID)
		if err != nil {
			return err
		}
		if k == nil {
			return ErrKingdomNotFound
		}
		if _, err := economy.Credit(k, field, amount); err != nil {
			return err
		}
		return repo.Update(ctx, k)
	})
	if err != nil {
		log.Error().Err(err).Str("kingdomId", kingdomID).Str("field", field).
			Int64("amount", amount).Msg("Failed to refund escrowed cost")
	}
}

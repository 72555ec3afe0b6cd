package service

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/kalleeh/monarchygame-sub001/internal/repository/redis"
)

// WarTimerListener listens for Redis keyspace notifications on expired
// war timer keys and settles the war when its window closes. A polling
// fallback sweeps for expired wars in case keyspace notifications are
// unavailable; lazy expiry on the read path covers anything both miss.
type WarTimerListener struct {
	rdb    *goredis.Client
	warSvc *WarService
}

// NewWarTimerListener creates a WarTimerListener.
func NewWarTimerListener(rdb *goredis.Client, warSvc *WarService) *WarTimerListener {
	return &WarTimerListener{rdb: rdb, warSvc: warSvc}
}

// Start begins listening for expired key events and runs the polling
// fallback. Blocks until ctx is cancelled.
func (t *WarTimerListener) Start(ctx context.Context) {
	if t.rdb != nil {
		go t.listenKeyspace(ctx)
	}
	t.pollExpiredWars(ctx)
}

// listenKeyspace subscribes to Redis keyspace notifications for expired keys.
func (t *WarTimerListener) listenKeyspace(ctx context.Context) {
	pubsub := t.rdb.PSubscribe(ctx, "__keyevent@0__:expired")
	defer pubsub.Close()

	log.Info().Msg("War timer listener started, listening for expired keys")
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			t.handleExpiry(ctx, msg.Payload)
		}
	}
}

// pollExpiredWars periodically sweeps for wars past their window.
func (t *WarTimerListener) pollExpiredWars(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	log.Info().Msg("War expiry poller started (30s interval)")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("War expiry poller stopped")
			return
		case <-ticker.C:
			settled, err := t.warSvc.SweepExpired(ctx)
			if err != nil {
				log.Error().Err(err).Msg("War expiry sweep failed")
				continue
			}
			if settled > 0 {
				log.Info().Int("count", settled).Msg("Poller settled expired wars")
			}
		}
	}
}

// handleExpiry processes an expired key. Only acts on war timer keys.
func (t *WarTimerListener) handleExpiry(ctx context.Context, key string) {
	warID := redis.WarIDFromTimerKey(key)
	if warID == "" {
		return
	}
	log.Info().Str("warId", warID).Msg("War timer expired, settling war")
	if err := t.warSvc.SettleWar(ctx, warID); err != nil {
		log.Error().Err(err).Str("warId", warID).Msg("War settlement failed after timer expiry")
	}
}

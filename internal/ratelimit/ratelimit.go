// Package ratelimit provides a per-action-type token bucket that damps
// client abuse. Buckets are process-local and reset on restart; that is
// acceptable because they exist for damping, not correctness.
package ratelimit

import (
	"sync"
	"time"
)

// Config describes one action type's bucket.
type Config struct {
	MaxTokens      float64
	RefillRate     float64
	RefillInterval time.Duration
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// Limiter holds one token bucket per configured action type. Action
// types without a configured bucket are never limited. Limiter never
// returns an error; its only failure mode is "blocked".
type Limiter struct {
	mu      sync.Mutex
	configs map[string]Config
	buckets map[string]*bucket
	now     func() time.Time // swappable clock for tests
}

// New creates a Limiter from per-action-type configs.
func New(configs map[string]Config) *Limiter {
	l := &Limiter{
		configs: make(map[string]Config, len(configs)),
		buckets: make(map[string]*bucket, len(configs)),
		now:     time.Now,
	}
	for action, cfg := range configs {
		l.configs[action] = cfg
		l.buckets[action] = &bucket{tokens: cfg.MaxTokens, lastRefill: l.now()}
	}
	return l
}

// refill tops up a bucket with whole refill intervals elapsed since the
// last refill, capped at MaxTokens. Caller holds the mutex.
func (l *Limiter) refill(action string, b *bucket) {
	cfg := l.configs[action]
	if cfg.RefillInterval <= 0 {
		return
	}
	elapsed := l.now().Sub(b.lastRefill)
	intervals := int64(elapsed / cfg.RefillInterval)
	if intervals <= 0 {
		return
	}
	b.tokens += float64(intervals) * cfg.RefillRate
	if b.tokens > cfg.MaxTokens {
		b.tokens = cfg.MaxTokens
	}
	b.lastRefill = b.lastRefill.Add(time.Duration(intervals) * cfg.RefillInterval)
}

// TryConsume takes one token for the action type. Returns false, leaving
// state unchanged, when no token is available. Unmetered action types
// always succeed.
func (l *Limiter) TryConsume(action string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[action]
	if !ok {
		return true
	}
	l.refill(action, b)
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// TimeUntilAvailable returns how long until the action type has a token,
// or zero if one is available now (or the action is unmetered).
func (l *Limiter) TimeUntilAvailable(action string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[action]
	if !ok {
		return 0
	}
	l.refill(action, b)
	if b.tokens >= 1 {
		return 0
	}
	cfg := l.configs[action]
	remaining := cfg.RefillInterval - l.now().Sub(b.lastRefill)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Reset restores a full bucket for one action type. Used by tests and
// administrative recovery.
func (l *Limiter) Reset(action string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cfg, ok := l.configs[action]; ok {
		l.buckets[action] = &bucket{tokens: cfg.MaxTokens, lastRefill: l.now()}
	}
}

// ResetAll restores full buckets for every configured action type.
func (l *Limiter) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for action, cfg := range l.configs {
		l.buckets[action] = &bucket{tokens: cfg.MaxTokens, lastRefill: l.now()}
	}
}

// Action type keys used across handlers.
const (
	ActionAttack    = "attack"
	ActionTrain     = "train"
	ActionBuild     = "build"
	ActionSpell     = "cast_spell"
	ActionTerritory = "claim_territory"
	ActionWar       = "declare_war"
	ActionTrade     = "trade"
	ActionTreaty    = "treaty"
	ActionThievery  = "thievery"
	ActionBounty    = "bounty"
	ActionTreasury  = "treasury"
)

// DefaultConfigs are the production bucket settings per action type.
func DefaultConfigs() map[string]Config {
	return map[string]Config{
		ActionAttack:    {MaxTokens: 5, RefillRate: 1, RefillInterval: 10 * time.Second},
		ActionTrain:     {MaxTokens: 10, RefillRate: 2, RefillInterval: 5 * time.Second},
		ActionBuild:     {MaxTokens: 10, RefillRate: 2, RefillInterval: 5 * time.Second},
		ActionSpell:     {MaxTokens: 5, RefillRate: 1, RefillInterval: 10 * time.Second},
		ActionTerritory: {MaxTokens: 3, RefillRate: 1, RefillInterval: 30 * time.Second},
		ActionWar:       {MaxTokens: 1, RefillRate: 1, RefillInterval: time.Minute},
		ActionTrade:     {MaxTokens: 10, RefillRate: 2, RefillInterval: 5 * time.Second},
		ActionTreaty:    {MaxTokens: 5, RefillRate: 1, RefillInterval: 10 * time.Second},
		ActionThievery:  {MaxTokens: 3, RefillRate: 1, RefillInterval: 20 * time.Second},
		ActionBounty:    {MaxTokens: 5, RefillRate: 1, RefillInterval: 10 * time.Second},
		ActionTreasury:  {MaxTokens: 10, RefillRate: 2, RefillInterval: 5 * time.Second},
	}
}

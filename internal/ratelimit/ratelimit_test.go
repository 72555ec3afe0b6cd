package ratelimit

import (
	"testing"
	"time"
)

// fakeClock lets tests advance time without sleeping.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(cfg Config) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(map[string]Config{"attack": cfg})
	l.now = clock.now
	for _, b := range l.buckets {
		b.lastRefill = clock.t
	}
	return l, clock
}

func TestTryConsumeExhaustsBucket(t *testing.T) {
	l, _ := newTestLimiter(Config{MaxTokens: 3, RefillRate: 1, RefillInterval: 10 * time.Second})

	for i := 0; i < 3; i++ {
		if !l.TryConsume("attack") {
			t.Fatalf("consume %d should succeed", i)
		}
	}
	if l.TryConsume("attack") {
		t.Error("empty bucket should block")
	}
}

func TestRefillAfterInterval(t *testing.T) {
	l, clock := newTestLimiter(Config{MaxTokens: 2, RefillRate: 1, RefillInterval: 10 * time.Second})

	l.TryConsume("attack")
	l.TryConsume("attack")
	if l.TryConsume("attack") {
		t.Fatal("bucket should be empty")
	}

	clock.advance(9 * time.Second)
	if l.TryConsume("attack") {
		t.Error("partial interval should not refill")
	}

	clock.advance(time.Second)
	if !l.TryConsume("attack") {
		t.Error("full interval should add a token")
	}
}

func TestRefillCapsAtMax(t *testing.T) {
	l, clock := newTestLimiter(Config{MaxTokens: 2, RefillRate: 1, RefillInterval: time.Second})

	l.TryConsume("attack")
	l.TryConsume("attack")
	clock.advance(time.Hour)

	for i := 0; i < 2; i++ {
		if !l.TryConsume("attack") {
			t.Fatalf("consume %d should succeed after long idle", i)
		}
	}
	if l.TryConsume("attack") {
		t.Error("refill must cap at MaxTokens")
	}
}

func TestTimeUntilAvailable(t *testing.T) {
	l, clock := newTestLimiter(Config{MaxTokens: 1, RefillRate: 1, RefillInterval: 10 * time.Second})

	if d := l.TimeUntilAvailable("attack"); d != 0 {
		t.Errorf("full bucket should report zero, got %v", d)
	}

	l.TryConsume("attack")
	if d := l.TimeUntilAvailable("attack"); d != 10*time.Second {
		t.Errorf("expected 10s until refill, got %v", d)
	}

	clock.advance(4 * time.Second)
	if d := l.TimeUntilAvailable("attack"); d != 6*time.Second {
		t.Errorf("expected 6s remaining, got %v", d)
	}
}

func TestUnmeteredActionAlwaysPasses(t *testing.T) {
	l, _ := newTestLimiter(Config{MaxTokens: 1, RefillRate: 1, RefillInterval: time.Minute})

	for i := 0; i < 100; i++ {
		if !l.TryConsume("unconfigured") {
			t.Fatal("unconfigured action must never block")
		}
	}
	if d := l.TimeUntilAvailable("unconfigured"); d != 0 {
		t.Errorf("unconfigured action should report zero wait, got %v", d)
	}
}

func TestReset(t *testing.T) {
	l, _ := newTestLimiter(Config{MaxTokens: 1, RefillRate: 1, RefillInterval: time.Minute})

	l.TryConsume("attack")
	if l.TryConsume("attack") {
		t.Fatal("bucket should be empty")
	}

	l.Reset("attack")
	if !l.TryConsume("attack") {
		t.Error("reset should restore a full bucket")
	}
}

func TestResetAll(t *testing.T) {
	l := New(map[string]Config{
		"attack": {MaxTokens: 1, RefillRate: 1, RefillInterval: time.Minute},
		"train":  {MaxTokens: 1, RefillRate: 1, RefillInterval: time.Minute},
	})

	l.TryConsume("attack")
	l.TryConsume("train")
	l.ResetAll()

	if !l.TryConsume("attack") || !l.TryConsume("train") {
		t.Error("ResetAll should restore every bucket")
	}
}

func TestDefaultConfigsCoverAllActions(t *testing.T) {
	cfgs := DefaultConfigs()
	for _, action := range []string{
		ActionAttack, ActionTrain, ActionBuild, ActionSpell, ActionTerritory,
		ActionWar, ActionTrade, ActionTreaty, ActionThievery, ActionBounty, ActionTreasury,
	} {
		cfg, ok := cfgs[action]
		if !ok {
			t.Errorf("no bucket configured for %q", action)
			continue
		}
		if cfg.MaxTokens <= 0 || cfg.RefillRate <= 0 || cfg.RefillInterval <= 0 {
			t.Errorf("degenerate bucket config for %q: %+v", action, cfg)
		}
	}
}

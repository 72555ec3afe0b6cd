package redis

import (
	"context"
	"strings"
	"time"
)

// Key pattern for war expiry timers.
func warTimerKey(warID string) string { return "war:" + warID + ":timer" }

// timerGracePeriod delays the expiry notification slightly past the
// war's EndsAt so in-flight contributions against the final second are
// not raced by the sweep. Lazy expiry on the read path stays the
// correctness mechanism either way.
const timerGracePeriod = 5 * time.Second

// SetWarTimer creates a TTL key that expires when the war's window
// closes. Redis keyspace notifications then prompt the housekeeping
// sweep to finish the war.
func (c *Client) SetWarTimer(ctx context.Context, warID string, endsAt time.Time) error {
	ttl := time.Until(endsAt) + timerGracePeriod
	if ttl <= 0 {
		ttl = time.Second
	}
	return c.rdb.Set(ctx, warTimerKey(warID), endsAt.Unix(), ttl).Err()
}

// ClearWarTimer removes the timer for a war (on resolve or concede).
func (c *Client) ClearWarTimer(ctx context.Context, warID string) error {
	return c.rdb.Del(ctx, warTimerKey(warID)).Err()
}

// WarIDFromTimerKey extracts the war ID from an expired timer key, or ""
// if the key is not a war timer.
func WarIDFromTimerKey(key string) string {
	if !strings.HasPrefix(key, "war:") || !strings.HasSuffix(key, ":timer") {
		return ""
	}
	parts := strings.SplitN(key, ":", 3)
	if len(parts) != 3 {
		return ""
	}
	return parts[1]
}

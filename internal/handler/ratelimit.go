package handler

import (
	"net/http"
	"strconv"

	"github.com/kalleeh/monarchygame-sub001/internal/ratelimit"
)

// allowAction gates an action on the shared limiter, writing the
// RATE_LIMITED failure with a Retry-After hint when the bucket is dry.
func allowAction(w http.ResponseWriter, limiter *ratelimit.Limiter, action string) bool {
	if limiter == nil || limiter.TryConsume(action) {
		return true
	}
	wait := limiter.TimeUntilAvailable(action)
	secs := int(wait.Seconds())
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	writeFail(w, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded for "+action)
	return false
}

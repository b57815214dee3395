package publisher

import "sync"

// health tracks a rolling count of consecutive delivery failures and
// exposes whether the publisher has crossed the unhealthy threshold.
type health struct {
	mu               sync.Mutex
	consecutiveFails int
	unhealthyAt      int
	unhealthy        bool
}

func newHealth(unhealthyAt int) *health {
	return &health{unhealthyAt: unhealthyAt}
}

func (h *health) recordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.consecutiveFails = 0
	h.unhealthy = false
}

// recordFailure increments the streak and returns true the instant the
// streak first crosses the unhealthy threshold (so the caller logs the
// transition exactly once, not on every failure after it).
func (h *health) recordFailure() (justWentUnhealthy bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.consecutiveFails++
	if h.consecutiveFails >= h.unhealthyAt && !h.unhealthy {
		h.unhealthy = true
		return true
	}
	return false
}

func (h *health) isUnhealthy() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.unhealthy
}

func (h *health) streak() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.consecutiveFails
}

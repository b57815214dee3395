package tracker

import "time"

// pollInterval picks the sleep duration for the next poll based on the
// token's current phase: initial for the first InitialDuration, slow once
// the token is stuck, normal otherwise.
func (t *Tracker) pollInterval(entry *liveToken) time.Duration {
	entry.mu.Lock()
	defer entry.mu.Unlock()

	token := entry.token
	age := token.Age(time.Now())

	if age < t.cfg.InitialDuration {
		return t.cfg.InitialInterval
	}
	if token.ConsecutiveStuckPolls >= t.cfg.StuckThreshold {
		return t.cfg.SlowInterval
	}
	return t.cfg.NormalInterval
}

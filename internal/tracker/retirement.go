package tracker

import (
	"time"

	"github.com/sentinelsignal/sentinel/pkg/models"
)

// checkRetirement evaluates the any-of retirement rules against the
// token's current state. Returns a non-empty reason if the token should
// be retired. Caller holds entry.mu.
func (t *Tracker) checkRetirement(token *models.TrackedToken, now time.Time) string {
	age := token.Age(now)

	if age > t.cfg.MaxAge {
		return "max_age_exceeded"
	}

	if token.SignalPosted && now.Sub(token.SignalTime) > t.cfg.SignaledMaxAge {
		return "signaled_max_age_exceeded"
	}

	if token.LastScore < float64(t.cfg.LowScoreFloor) {
		if !token.LastNonzeroConvictionAt.IsZero() && now.Sub(token.LastNonzeroConvictionAt) >= t.cfg.LowScoreGrace {
			return "low_score_sustained"
		}
	}

	if token.Latest.BondingProgressPct >= t.cfg.EarlyKillBondingPct && earlyKillStarved(token, now, t.cfg.EarlyKillWindow, t.cfg.EarlyKillMinNewBuyers) {
		return "early_kill_stalled_buyers"
	}

	return ""
}

// earlyKillStarved reports whether fewer than minNewBuyers unique buyers
// have been observed within the trailing window.
func earlyKillStarved(token *models.TrackedToken, now time.Time, window time.Duration, minNewBuyers int) bool {
	cutoff := now.Add(-window)

	var baseline int
	found := false
	for i := len(token.BuyerTimeline) - 1; i >= 0; i-- {
		obs := token.BuyerTimeline[i]
		if obs.At.Before(cutoff) {
			baseline = obs.Count
			found = true
			break
		}
	}
	if !found {
		// No observation predates the window: not enough history to judge.
		return false
	}

	latest := token.UniqueBuyerCount
	return latest-baseline < minNewBuyers
}

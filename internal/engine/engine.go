// Package engine implements the conviction engine: a pure, six-phase
// scoring function that turns a tracked token's latest snapshot into a
// ScoreBreakdown. It performs no I/O itself — every external fact (holder
// distribution, rug score, narrative match, ML prediction) is either
// already present on the tracked token or supplied through a narrow
// callback the caller has already paid the fetch cost for.
package engine

import (
	"time"

	"github.com/sentinelsignal/sentinel/internal/config"
	"github.com/sentinelsignal/sentinel/pkg/models"
	"github.com/sentinelsignal/sentinel/pkg/providers"
)

// NarrativeMatcher returns a token's narrative score contribution.
type NarrativeMatcher interface {
	Match(text string) ([]string, int)
}

// HoldersFunc is called by Phase 3 once the interim score and bonding
// state make the expensive holder lookup worthwhile. ok=false means the
// lookup was skipped or failed; the phase then contributes nothing.
type HoldersFunc func() (providers.HolderDistribution, bool)

// RugFunc returns the token's cached rug-risk score, if any.
type RugFunc func() (providers.RugScore, bool)

// CallStats is the Telegram Call Index's contribution to one scoring
// pass: how many distinct groups, and how many total mentions, have
// called the token within the rolling window (§4.3).
type CallStats struct {
	DistinctGroups int
	TotalMentions  int
}

// Engine scores tracked tokens against the configured thresholds.
type Engine struct {
	cfg       config.EngineConfig
	narrative NarrativeMatcher
	predictor Predictor
}

// New builds an Engine. narrative and predictor may be nil; a nil
// narrative contributes zero bonus, and a nil predictor skips Phase 4.
func New(cfg config.EngineConfig, narrative NarrativeMatcher, predictor Predictor) *Engine {
	return &Engine{cfg: cfg, narrative: narrative, predictor: predictor}
}

// eligibleForHolders reports whether mid-score merits the Phase 3 holder
// lookup: the token must clear the interim floor and either be past 40%
// bonding progress or already graduated.
func eligibleForHolders(mid float64, snap models.TokenSnapshot) bool {
	if mid < 40 {
		return false
	}
	return snap.BondingProgressPct >= 40 || snap.Graduated
}

// Score runs all six phases against the token's current snapshot and
// tracked-token state, returning a deterministic ScoreBreakdown. now is
// passed in explicitly so the engine never reads the wall clock itself.
func (e *Engine) Score(token *models.TrackedToken, now time.Time, holders HoldersFunc, rug RugFunc, calls CallStats) models.ScoreBreakdown {
	snap := token.Latest
	breakdown := models.ScoreBreakdown{EvaluatedAt: now}

	if failed, reason := phase0DataQuality(snap); failed {
		breakdown.Add(reason, 0)
		breakdown.DataQualityFailed = true
		breakdown.Passed = false
		return breakdown
	}

	if stopped, reason := phase1EmergencyStop(snap, token, now); stopped {
		breakdown.Add(reason, 0)
		breakdown.EmergencyStopped = true
		breakdown.Passed = false
		return breakdown
	}

	phase2Score(&breakdown, snap, token, e.narrative, now, e.cfg, calls)
	phase2Total := breakdown.FinalScore

	uniqueBuyersBonus := uniqueBuyerBonus(token.UniqueBuyerCount)
	breakdown.Add("unique_buyers_bonus", float64(uniqueBuyersBonus))
	mid := phase2Total + float64(uniqueBuyersBonus)

	if eligibleForHolders(mid, snap) {
		if stop := phase3Holders(&breakdown, token, holders, rug); stop {
			breakdown.EmergencyStopped = true
			breakdown.Passed = false
			return breakdown
		}
	}

	if e.predictor != nil {
		phase4ML(&breakdown, e.predictor, token, snap)
	}

	phase5Thresholds(&breakdown, e.cfg, snap, token)

	if !breakdown.Passed {
		phase6WhyNoSignal(&breakdown, e.cfg, snap, token)
	}

	return breakdown
}

func uniqueBuyerBonus(count int) int {
	switch {
	case count >= 100:
		return 15
	case count >= 70:
		return 12
	case count >= 40:
		return 8
	case count >= 20:
		return 5
	default:
		return 0
	}
}

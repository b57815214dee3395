package engine

import (
	"github.com/sentinelsignal/sentinel/internal/config"
	"github.com/sentinelsignal/sentinel/pkg/models"
)

// phase5Thresholds applies the base threshold, the MCAP cap override, and
// the early-trigger rule, setting Passed/McapCapped/EarlyTriggered.
func phase5Thresholds(b *models.ScoreBreakdown, cfg config.EngineConfig, snap models.TokenSnapshot, token *models.TrackedToken) {
	threshold := float64(cfg.MinConvictionScore)
	if snap.Graduated {
		threshold = float64(cfg.PostGradThreshold)
	}

	maxMcap := cfg.MaxMcapPreGrad
	if snap.Graduated {
		maxMcap = cfg.MaxMcapPostGrad
	}
	if snap.MarketCap > maxMcap {
		b.McapCapped = true
		b.Passed = false
		return
	}

	if snap.BondingProgressPct >= cfg.EarlyTriggerBonding &&
		token.UniqueBuyerCount >= cfg.EarlyTriggerBuyers &&
		b.FinalScore >= threshold-float64(cfg.EarlyTriggerGrace) &&
		hasGatedSupport(b) {
		b.EarlyTriggered = true
		b.Passed = true
		return
	}

	b.Passed = b.FinalScore >= threshold && hasGatedSupport(b)
}

// hasGatedSupport enforces that a signal never passes purely on unguarded
// metrics (volume, momentum, buy/sell ratio): at least one of the
// smart-wallet, telegram-calls, or high-confidence ML contributions must
// be present.
func hasGatedSupport(b *models.ScoreBreakdown) bool {
	return b.ComponentValue("smart_wallets") > 0 ||
		b.ComponentValue("telegram_calls") > 0 ||
		b.ComponentValue("ml_prediction") >= 10
}

package engine

import (
	"time"

	"github.com/sentinelsignal/sentinel/pkg/models"
)

// phase0DataQuality rejects snapshots too thin to score at all.
func phase0DataQuality(snap models.TokenSnapshot) (bool, string) {
	if snap.PriceUSD == 0 {
		return true, "data_quality_zero_price"
	}
	if snap.Graduated && snap.LiquidityUSD < 1000 {
		return true, "data_quality_low_liquidity_graduated"
	}
	if snap.LiquidityUSD == 0 && snap.SourceError != "" {
		return true, "data_quality_missing_liquidity"
	}
	if snap.Graduated && snap.HolderCount == 0 {
		return true, "data_quality_zero_holders_post_grad"
	}
	if snap.Symbol == "" && snap.Name == "" {
		return true, "data_quality_no_identity"
	}
	return false, ""
}

// phase1EmergencyStop rejects tokens showing an immediate red flag that no
// amount of score can outweigh.
func phase1EmergencyStop(snap models.TokenSnapshot, token *models.TrackedToken, now time.Time) (bool, string) {
	if snap.HasHolders && snap.Top3Pct > 80 {
		return true, "emergency_top3_concentration"
	}
	if snap.LiquidityUSD < 5000 {
		return true, "emergency_liquidity_floor"
	}
	if !snap.Graduated && token.Age(now) < 2*time.Minute {
		return true, "emergency_too_young"
	}
	if snap.BondingProgressPct == 0 && token.PollCount > 3 {
		return true, "emergency_dead_launch"
	}
	return false, ""
}

package engine

import (
	"time"

	"github.com/sentinelsignal/sentinel/internal/config"
	"github.com/sentinelsignal/sentinel/pkg/models"
)

// tierWeight mirrors models.TierMultiplier. Only the sum is capped, in
// smartWalletScore; single contributions are not.
func tierWeight(tier models.WalletTier) float64 {
	return models.TierMultiplier(tier)
}

// phase2Score computes the free base score: smart-wallet weight, narrative
// match, telegram-calls convergence, buy/sell percentage, volume velocity,
// price momentum, volume/liquidity velocity, and the MCAP penalty.
func phase2Score(b *models.ScoreBreakdown, snap models.TokenSnapshot, token *models.TrackedToken, narrative NarrativeMatcher, now time.Time, cfg config.EngineConfig, calls CallStats) {
	b.Add("smart_wallets", smartWalletScore(token))

	if narrative != nil {
		_, bonus := narrative.Match(snap.Symbol + " " + snap.Name)
		if bonus > 25 {
			bonus = 25
		}
		b.Add("narrative", float64(bonus))
	} else {
		b.Add("narrative", 0)
	}

	b.Add("telegram_calls", telegramCallScore(calls.DistinctGroups, calls.TotalMentions))

	b.Add("buy_sell_percentage", buySellScore(snap.Buys24h, snap.Sells24h))
	b.Add("volume_velocity", volumeVelocityScore(snap.Volume24h, snap.MarketCap))
	b.Add("price_momentum", priceMomentumScore(snap.PriceChange1h))
	b.Add("volume_liquidity_velocity", volumeLiquidityVelocityScore(snap.Volume24h, snap.LiquidityUSD))
	b.Add("mcap_penalty", mcapPenalty(snap.MarketCap))

	if applyMultiKOLBonus(token, now, cfg) {
		b.Add("multi_kol_convergence", float64(cfg.MultiKOLBonus))
	}
}

// smartWalletScore sums each buyer's tier-weighted 10-point contribution,
// capped at 40.
func smartWalletScore(token *models.TrackedToken) float64 {
	var total float64
	for _, buy := range token.KOLBuys {
		total += 10.0 * tierWeight(buy.Tier)
	}
	if total > 40 {
		total = 40
	}
	return total
}

func buySellScore(buys, sells int) float64 {
	total := buys + sells
	if total < 20 {
		return 8
	}
	p := float64(buys) / float64(total) * 100

	switch {
	case p >= 80:
		return linearBand(p, 80, 100, 16, 20)
	case p >= 70:
		return linearBand(p, 70, 80, 12, 16)
	case p >= 50:
		return linearBand(p, 50, 70, 8, 12)
	case p >= 30:
		return linearBand(p, 30, 50, 4, 8)
	default:
		return linearBand(p, 0, 30, 0, 4)
	}
}

// linearBand linearly interpolates value's score between [loScore,hiScore]
// as it moves across [lo,hi], clamped to the band's edges.
func linearBand(value, lo, hi, loScore, hiScore float64) float64 {
	if hi == lo {
		return loScore
	}
	frac := (value - lo) / (hi - lo)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return loScore + frac*(hiScore-loScore)
}

func volumeVelocityScore(volume24h, marketCap float64) float64 {
	if marketCap <= 0 {
		return 0
	}
	r := volume24h / marketCap
	switch {
	case r > 2:
		return 10
	case r > 1.25:
		return 7
	case r > 1.0:
		return 3
	default:
		return 0
	}
}

func priceMomentumScore(priceChange1h float64) float64 {
	switch {
	case priceChange1h >= 50:
		return 10
	case priceChange1h >= 30:
		return 7
	case priceChange1h >= 10:
		return 3
	default:
		return 0
	}
}

func volumeLiquidityVelocityScore(volume24h, liquidityUSD float64) float64 {
	if liquidityUSD <= 0 {
		return 0
	}
	v := volume24h / liquidityUSD
	switch {
	case v > 30:
		return 10
	case v > 20:
		return 8
	case v > 10:
		return 5
	case v > 5:
		return 3
	case v > 2:
		return 1
	case v < 1:
		return -3
	default:
		return 0
	}
}

// telegramCallScore scores third-party group convergence on a token:
// tiered on distinct_groups (the harder signal to fake), with a small
// bonus when groups are re-calling rather than just a single mention
// each.
func telegramCallScore(distinctGroups, totalMentions int) float64 {
	if distinctGroups == 0 {
		return 0
	}

	var score float64
	switch {
	case distinctGroups >= 5:
		score = 18
	case distinctGroups >= 3:
		score = 12
	case distinctGroups >= 2:
		score = 7
	default:
		score = 3
	}

	if totalMentions > distinctGroups {
		score += 2
	}

	if score > 20 {
		score = 20
	}
	return score
}

func mcapPenalty(marketCap float64) float64 {
	switch {
	case marketCap > 25_000_000:
		return -20
	case marketCap > 5_000_000:
		return -10
	default:
		return 0
	}
}

// applyMultiKOLBonus reports whether the one-shot multi-KOL convergence
// bonus should fire on this pass: enough distinct KOLs bought within the
// trailing window, and the bonus hasn't already been applied.
func applyMultiKOLBonus(token *models.TrackedToken, now time.Time, cfg config.EngineConfig) bool {
	if token.MultiKOLBonusApplied {
		return false
	}
	cutoff := now.Add(-cfg.MultiKOLWindow)
	distinct := make(map[models.WalletAddress]bool)
	for _, buy := range token.KOLBuys {
		if buy.FirstSeen.After(cutoff) {
			distinct[buy.Wallet] = true
		}
	}
	if len(distinct) >= cfg.MultiKOLMinWallets {
		token.MultiKOLBonusApplied = true
		return true
	}
	return false
}

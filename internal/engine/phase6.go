package engine

import (
	"sort"

	"github.com/sentinelsignal/sentinel/internal/config"
	"github.com/sentinelsignal/sentinel/pkg/models"
)

var recommendationPool = []string{
	"wait for more distinct KOL buyers before re-evaluating",
	"re-check once bonding progress clears the early-trigger threshold",
	"watch for a narrative match on the next refresh",
	"watch for additional Telegram groups converging on this token",
	"re-check after volume picks up relative to market cap",
	"holder concentration needs to improve before this clears the bar",
}

// phase2Components names the components phase2Score can add.
var phase2Components = map[string]bool{
	"smart_wallets": true, "narrative": true, "telegram_calls": true,
	"buy_sell_percentage": true, "volume_velocity": true, "price_momentum": true,
	"volume_liquidity_velocity": true, "mcap_penalty": true, "multi_kol_convergence": true,
}

// phase6WhyNoSignal produces the near-miss diagnostic when a token fell
// short of the threshold by at most 5 points: the three lowest-scoring
// phase-2 components (biggest headroom), the negative components applied,
// and up to three fixed recommendation strings.
func phase6WhyNoSignal(b *models.ScoreBreakdown, cfg config.EngineConfig, snap models.TokenSnapshot, token *models.TrackedToken) {
	threshold := float64(cfg.MinConvictionScore)
	if snap.Graduated {
		threshold = float64(cfg.PostGradThreshold)
	}
	if b.FinalScore < threshold-5 {
		return
	}

	components := append([]models.ScoreComponent(nil), b.Components...)
	sort.Slice(components, func(i, j int) bool { return components[i].Value < components[j].Value })

	var headroom, penalties []models.ScoreComponent
	for _, c := range components {
		if c.Value < 0 {
			penalties = append(penalties, c)
		}
		if phase2Components[c.Name] && len(headroom) < 3 {
			headroom = append(headroom, c)
		}
	}

	recLimit := 3
	if len(recommendationPool) < recLimit {
		recLimit = len(recommendationPool)
	}

	b.WhyNoSignal = &models.WhyNoSignal{
		HeadroomComponents: headroom,
		AppliedPenalties:   penalties,
		Recommendations:    append([]string(nil), recommendationPool[:recLimit]...),
	}
}

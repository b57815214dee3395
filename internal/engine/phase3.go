package engine

import (
	"github.com/sentinelsignal/sentinel/pkg/models"
	"github.com/sentinelsignal/sentinel/pkg/providers"
)

// phase3Holders requests holder concentration once the mid-score and
// bonding state make it worthwhile, and layers in the cached rug score.
// It returns true if the result is an emergency stop (top10 concentration
// over 80%), in which case the caller discards everything else.
func phase3Holders(b *models.ScoreBreakdown, token *models.TrackedToken, holders HoldersFunc, rug RugFunc) bool {
	var dist providers.HolderDistribution
	var ok bool
	if holders != nil {
		dist, ok = holders()
	}
	if ok {
		switch {
		case dist.Top10Pct > 80:
			b.Add("holder_concentration", 0)
			return true
		case dist.Top10Pct > 70:
			b.Add("holder_concentration", -35)
		case dist.Top10Pct > 50:
			b.Add("holder_concentration", -20)
		case dist.Top10Pct > 40:
			b.Add("holder_concentration", -10)
		default:
			b.Add("holder_concentration", 0)
		}

		if token.HasPreviousTop10Pct && token.PreviousTop10Pct-dist.Top10Pct >= 5 {
			b.Add("holder_concentration_improving", 5)
		}
		token.PreviousTop10Pct = dist.Top10Pct
		token.HasPreviousTop10Pct = true
	}

	if rug != nil {
		if score, ok := rug(); ok {
			b.Add("rug_score", rugScorePenalty(score.Score))
		}
	}

	return false
}

// rugScorePenalty layers severity-tiered penalties on top of the flat −10
// applied once the normalized score clears 3.
func rugScorePenalty(score float64) float64 {
	if score <= 3 {
		return 0
	}
	penalty := -10.0
	switch {
	case score > 9:
		penalty += -40
	case score > 7:
		penalty += -25
	case score > 5:
		penalty += -15
	default:
		penalty += -5
	}
	return penalty
}

package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sentinelsignal/sentinel/internal/config"
	"github.com/sentinelsignal/sentinel/pkg/models"
)

func retirementCfg() config.TrackerConfig {
	return config.TrackerConfig{
		MaxAge:                2 * time.Hour,
		SignaledMaxAge:        30 * time.Minute,
		LowScoreFloor:         20,
		LowScoreGrace:         15 * time.Minute,
		EarlyKillMinNewBuyers: 5,
		EarlyKillWindow:       2 * time.Minute,
		EarlyKillBondingPct:   50,
	}
}

func TestCheckRetirementMaxAge(t *testing.T) {
	tr := &Tracker{cfg: retirementCfg()}
	now := time.Now()
	token := &models.TrackedToken{FirstSeenAt: now.Add(-3 * time.Hour)}

	assert.Equal(t, "max_age_exceeded", tr.checkRetirement(token, now))
}

func TestCheckRetirementSignaledMaxAge(t *testing.T) {
	tr := &Tracker{cfg: retirementCfg()}
	now := time.Now()
	token := &models.TrackedToken{
		FirstSeenAt:  now.Add(-10 * time.Minute),
		SignalPosted: true,
		SignalTime:   now.Add(-40 * time.Minute),
	}

	assert.Equal(t, "signaled_max_age_exceeded", tr.checkRetirement(token, now))
}

func TestCheckRetirementLowScoreSustained(t *testing.T) {
	tr := &Tracker{cfg: retirementCfg()}
	now := time.Now()
	token := &models.TrackedToken{
		FirstSeenAt:             now.Add(-20 * time.Minute),
		LastScore:               5,
		LastNonzeroConvictionAt: now.Add(-20 * time.Minute),
	}

	assert.Equal(t, "low_score_sustained", tr.checkRetirement(token, now))
}

func TestCheckRetirementLowScoreWithinGraceSurvives(t *testing.T) {
	tr := &Tracker{cfg: retirementCfg()}
	now := time.Now()
	token := &models.TrackedToken{
		FirstSeenAt:             now.Add(-20 * time.Minute),
		LastScore:               5,
		LastNonzeroConvictionAt: now.Add(-1 * time.Minute),
	}

	assert.Equal(t, "", tr.checkRetirement(token, now))
}

func TestCheckRetirementEarlyKillStalledBuyers(t *testing.T) {
	tr := &Tracker{cfg: retirementCfg()}
	now := time.Now()
	token := &models.TrackedToken{
		FirstSeenAt:      now.Add(-20 * time.Minute),
		LastScore:        50,
		Latest:           models.TokenSnapshot{BondingProgressPct: 60},
		UniqueBuyerCount: 12,
		BuyerTimeline: []models.BuyerObservation{
			{At: now.Add(-5 * time.Minute), Count: 10},
		},
	}

	assert.Equal(t, "early_kill_stalled_buyers", tr.checkRetirement(token, now))
}

func TestCheckRetirementHealthyTokenSurvives(t *testing.T) {
	tr := &Tracker{cfg: retirementCfg()}
	now := time.Now()
	token := &models.TrackedToken{
		FirstSeenAt:      now.Add(-20 * time.Minute),
		LastScore:        50,
		Latest:           models.TokenSnapshot{BondingProgressPct: 60},
		UniqueBuyerCount: 30,
		BuyerTimeline: []models.BuyerObservation{
			{At: now.Add(-5 * time.Minute), Count: 10},
		},
	}

	assert.Equal(t, "", tr.checkRetirement(token, now))
}

func TestEarlyKillStarvedNoHistoryIsNotStarved(t *testing.T) {
	tr := &Tracker{cfg: retirementCfg()}
	now := time.Now()
	token := &models.TrackedToken{
		FirstSeenAt:      now.Add(-20 * time.Minute),
		LastScore:        50,
		Latest:           models.TokenSnapshot{BondingProgressPct: 60},
		UniqueBuyerCount: 1,
	}

	assert.Equal(t, "", tr.checkRetirement(token, now))
}

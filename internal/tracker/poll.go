package tracker

import (
	"context"
	"time"

	"github.com/sentinelsignal/sentinel/internal/engine"
	"github.com/sentinelsignal/sentinel/pkg/models"
	"github.com/sentinelsignal/sentinel/pkg/providers"
)

// pollLoop is the per-token task: determine phase, sleep, fetch, score,
// check retirement, and on a pass, hand off to the publisher and monitor.
// It runs until the token retires or ctx is cancelled.
func (t *Tracker) pollLoop(ctx context.Context, entry *liveToken) {
	for {
		interval := t.pollInterval(entry)
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}

		now := time.Now()
		if t.pollOnce(ctx, entry, now) {
			return
		}
	}
}

// pollOnce runs a single poll: fetch, score, check retirement and
// publish. It returns true if the token's poll loop should stop (the
// token was retired); after a signal hand-off it returns false.
func (t *Tracker) pollOnce(ctx context.Context, entry *liveToken, now time.Time) bool {
	token := entry.token

	snap, fetchFailed := t.fetchSnapshot(ctx, token.Address, now)

	entry.mu.Lock()
	token.LastPollAt = now
	token.PollCount++
	token.Latest = snap
	if fetchFailed {
		token.ConsecutiveSourceFail++
	} else {
		token.ConsecutiveSourceFail = 0
	}

	if token.ConsecutiveSourceFail >= t.cfg.SourceFailureLimit {
		entry.mu.Unlock()
		t.retire(token.Address, "source_unavailable")
		return true
	}

	// Refresh is monotonic (invariant I3): a provider's count dipping on a
	// later poll (e.g. a cache-miss fallback) must never un-count buyers
	// the token has already earned credit for.
	if snap.UniqueBuyers > token.UniqueBuyerCount {
		token.UniqueBuyerCount = snap.UniqueBuyers
	}

	distinctGroups, totalMentions := t.calls.Stats(token.Address, now)
	holdersFn := t.holdersFunc(ctx, token)
	rugFn := t.rugFunc(ctx, token)
	breakdown := t.engine.Score(token, now, holdersFn, rugFn, engine.CallStats{
		DistinctGroups: distinctGroups,
		TotalMentions:  totalMentions,
	})

	token.LastScore = breakdown.FinalScore
	token.LastBreakdown = &breakdown
	if breakdown.FinalScore > 0 {
		token.LastNonzeroConvictionAt = now
	}
	bucket := scoreBucket(breakdown.FinalScore)
	if bucket == token.LastScoreBucket && token.UniqueBuyerCount == lastBuyerCount(token) {
		token.ConsecutiveStuckPolls++
	} else {
		token.ConsecutiveStuckPolls = 0
	}
	token.LastScoreBucket = bucket
	token.BuyerTimeline = append(token.BuyerTimeline, models.BuyerObservation{At: now, Count: token.UniqueBuyerCount})

	passed := breakdown.Passed
	retireReason := t.checkRetirement(token, now)
	entry.mu.Unlock()

	if retireReason != "" {
		t.retire(token.Address, retireReason)
		return true
	}

	if passed {
		t.handleSignal(ctx, entry, breakdown, now)
	}

	return false
}

func lastBuyerCount(token *models.TrackedToken) int {
	if len(token.BuyerTimeline) == 0 {
		return -1
	}
	return token.BuyerTimeline[len(token.BuyerTimeline)-1].Count
}

// scoreBucket groups a score into a coarse bucket for stuck-poll detection.
func scoreBucket(score float64) int {
	return int(score) / 5
}

// fetchSnapshot builds a TokenSnapshot from the fetcher's market-data and
// bonding-curve calls. Holder and rug data are deliberately left absent
// here for pre-graduation tokens — the engine's Phase 3 fetches them
// conditionally through holdersFunc/rugFunc. holdersFunc folds its result
// back into token.Latest; the rug score is not stored on the snapshot.
func (t *Tracker) fetchSnapshot(ctx context.Context, address models.TokenAddress, now time.Time) (models.TokenSnapshot, bool) {
	fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	data, err := t.fetcher.GetTokenData(fetchCtx, address)
	snap := models.TokenSnapshot{
		Address:        address,
		Symbol:         data.Symbol,
		Name:           data.Name,
		PriceUSD:       data.PriceUSD,
		MarketCap:      data.MarketCap,
		LiquidityUSD:   data.LiquidityUSD,
		Volume24h:      data.Volume24h,
		Buys24h:        data.Buys24h,
		Sells24h:       data.Sells24h,
		UniqueBuyers:   data.UniqueBuyers,
		PriceChange1h:  data.PriceChange1h,
		PriceChange6h:  data.PriceChange6h,
		PriceChange24h: data.PriceChange24h,
		FetchedAt:      now,
	}
	failed := err != nil
	if failed {
		snap.SourceError = err.Error()
	}

	curve, curveErr := t.fetcher.GetBondingCurve(fetchCtx, address)
	if curveErr == nil {
		snap.BondingProgressPct = curve.ProgressPct
		snap.Graduated = curve.Graduated
		snap.HasBondingCurve = true
	}

	if snap.Graduated {
		if holders, holdersErr := t.fetcher.GetHolders(fetchCtx, address); holdersErr == nil {
			snap.HolderCount = holders.HolderCount
			snap.Top10Pct = holders.Top10Pct
			snap.Top3Pct = holders.Top3Pct
			snap.Top1Pct = holders.Top1Pct
			snap.HasHolders = true
		}
	}

	return snap, failed
}

// holdersFunc returns the Phase 3 holder-lookup closure, backfilling the
// token's snapshot so a later poll in the same pass sees consistent data.
func (t *Tracker) holdersFunc(ctx context.Context, token *models.TrackedToken) engine.HoldersFunc {
	return func() (providers.HolderDistribution, bool) {
		if token.Latest.HasHolders {
			return providers.HolderDistribution{
				HolderCount: token.Latest.HolderCount,
				Top10Pct:    token.Latest.Top10Pct,
				Top3Pct:     token.Latest.Top3Pct,
				Top1Pct:     token.Latest.Top1Pct,
			}, true
		}
		fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		dist, err := t.fetcher.GetHolders(fetchCtx, token.Address)
		if err != nil {
			return providers.HolderDistribution{}, false
		}
		token.Latest.HolderCount = dist.HolderCount
		token.Latest.Top10Pct = dist.Top10Pct
		token.Latest.Top3Pct = dist.Top3Pct
		token.Latest.Top1Pct = dist.Top1Pct
		token.Latest.HasHolders = true
		return dist, true
	}
}

// rugFunc returns the Phase 3 rug-score lookup closure.
func (t *Tracker) rugFunc(ctx context.Context, token *models.TrackedToken) engine.RugFunc {
	return func() (providers.RugScore, bool) {
		fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		score, err := t.fetcher.GetRugCheck(fetchCtx, token.Address)
		if err != nil {
			return providers.RugScore{}, false
		}
		return score, true
	}
}

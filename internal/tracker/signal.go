package tracker

import (
	"context"
	"time"

	"github.com/sentinelsignal/sentinel/pkg/models"
)

// handleSignal builds and posts a Signal for a token that just passed the
// conviction engine, starting the post-call monitor on success. The poll
// loop keeps running afterward — SignalPosted guards against a repeat
// post, and the signaled-max-age retirement rule eventually retires the
// token once its post-signal window has elapsed.
func (t *Tracker) handleSignal(ctx context.Context, entry *liveToken, breakdown models.ScoreBreakdown, now time.Time) {
	entry.mu.Lock()
	token := entry.token
	if token.SignalPosted {
		entry.mu.Unlock()
		return
	}

	wallets := append([]models.KOLBuyRecord(nil), token.KOLBuys...)
	buyPct := 0.0
	if total := token.Latest.Buys24h + token.Latest.Sells24h; total > 0 {
		buyPct = float64(token.Latest.Buys24h) / float64(total) * 100
	}

	signal := models.Signal{
		Token:          token.Address,
		Symbol:         token.Latest.Symbol,
		Score:          breakdown.FinalScore,
		Breakdown:      &breakdown,
		PostedAt:       now,
		EntryPrice:     token.Latest.PriceUSD,
		EntryLiquidity: token.Latest.LiquidityUSD,
		BuyPercentage:  buyPct,
		KOLWallets:     wallets,
	}
	entry.mu.Unlock()

	posted, err := t.publisher.Post(ctx, signal)

	entry.mu.Lock()
	token.SignalPosted = true
	token.SignalTime = now
	token.SignalPrice = signal.EntryPrice
	token.State = models.StateSignaled
	if err == nil {
		token.SignalMessageID = posted.MessageID
	}
	entry.mu.Unlock()

	if err == nil {
		t.monitor.Start(token.Address, signal.EntryPrice)
		entry.mu.Lock()
		token.State = models.StateMonitored
		entry.mu.Unlock()
	}
}

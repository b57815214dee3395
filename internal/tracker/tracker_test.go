package tracker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sentinelsignal/sentinel/internal/config"
	"github.com/sentinelsignal/sentinel/internal/engine"
	"github.com/sentinelsignal/sentinel/internal/logger"
	"github.com/sentinelsignal/sentinel/pkg/models"
	"github.com/sentinelsignal/sentinel/pkg/providers"
)

type fakeFetcher struct {
	price        float64
	uniqueBuyers int32
}

func (f *fakeFetcher) GetTokenData(ctx context.Context, token models.TokenAddress) (providers.TokenData, error) {
	return providers.TokenData{
		Symbol: "DOG", Name: "Dogwifcap",
		PriceUSD: f.price, MarketCap: 18000, LiquidityUSD: 12500,
		Volume24h: 85000, Buys24h: 180, Sells24h: 40, PriceChange1h: 46,
		UniqueBuyers: int(atomic.LoadInt32(&f.uniqueBuyers)),
	}, nil
}

func (f *fakeFetcher) GetBondingCurve(ctx context.Context, token models.TokenAddress) (providers.BondingCurve, error) {
	return providers.BondingCurve{ProgressPct: 62}, nil
}

func (f *fakeFetcher) GetHolders(ctx context.Context, token models.TokenAddress) (providers.HolderDistribution, error) {
	return providers.HolderDistribution{Top10Pct: 20}, nil
}

func (f *fakeFetcher) GetRugCheck(ctx context.Context, token models.TokenAddress) (providers.RugScore, error) {
	return providers.RugScore{Score: 1}, nil
}

type fakeRegistry struct{}

func (fakeRegistry) Lookup(addr models.WalletAddress) models.WalletInfo {
	return models.WalletInfo{Address: addr, Tier: models.TierElite, Known: true}
}

type fakeCallIndex struct {
	distinctGroups int
	totalMentions  int
}

func (f fakeCallIndex) Stats(token models.TokenAddress, now time.Time) (int, int) {
	return f.distinctGroups, f.totalMentions
}

type fakePublisher struct {
	posts int32
}

func (p *fakePublisher) Post(ctx context.Context, signal models.Signal) (models.Signal, error) {
	atomic.AddInt32(&p.posts, 1)
	signal.MessageID = "1"
	return signal, nil
}

type fakeMonitor struct {
	starts  int32
	cancels int32
}

func (m *fakeMonitor) Start(token models.TokenAddress, entryPrice float64) {
	atomic.AddInt32(&m.starts, 1)
}

func (m *fakeMonitor) Cancel(token models.TokenAddress) {
	atomic.AddInt32(&m.cancels, 1)
}

func fastTrackerCfg() config.TrackerConfig {
	return config.TrackerConfig{
		InitialInterval:       5 * time.Millisecond,
		InitialDuration:       time.Hour,
		NormalInterval:        5 * time.Millisecond,
		SlowInterval:          20 * time.Millisecond,
		StuckThreshold:        5,
		MaxAge:                time.Hour,
		SignaledMaxAge:        time.Hour,
		LowScoreFloor:         -1000, // never trips during the test
		LowScoreGrace:         time.Hour,
		EarlyKillMinNewBuyers: 0,
		EarlyKillWindow:       time.Hour,
		EarlyKillBondingPct:   1000, // never eligible
		SourceFailureLimit:    1000,
	}
}

func testEngine() *engine.Engine {
	return engine.New(config.EngineConfig{
		MinConvictionScore:  45,
		PostGradThreshold:   75,
		MaxMcapPreGrad:      25000,
		MaxMcapPostGrad:     50000,
		EarlyTriggerBonding: 1000, // disabled — force the normal threshold path
		EarlyTriggerBuyers:  1_000_000,
		EarlyTriggerGrace:   0,
		MultiKOLWindow:      5 * time.Minute,
		MultiKOLMinWallets:  3,
		MultiKOLBonus:       15,
	}, nil, nil)
}

func TestAdmitKOLBuyTracksAndSignals(t *testing.T) {
	fetcher := &fakeFetcher{price: 0.00018}
	pub := &fakePublisher{}
	mon := &fakeMonitor{}
	tr := New(fastTrackerCfg(), logger.NewLogger("error"), fetcher, testEngine(), fakeRegistry{}, fakeCallIndex{}, pub, mon)
	defer tr.Stop()

	// Backdated so the first poll already clears the emergency "too young"
	// gate (phase1EmergencyStop requires age >= 2 minutes pre-graduation).
	now := time.Now().Add(-3 * time.Minute)
	tr.AdmitKOLBuy(context.Background(), models.KOLBuyEvent{
		Token: "tok1", Wallet: "wallet1", SolAmount: 5, Timestamp: now,
	}, now)

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&pub.posts) == 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&mon.starts) == 1 }, time.Second, 5*time.Millisecond)

	snap := tr.Snapshot("tok1")
	if assert.NotNil(t, snap) {
		assert.True(t, snap.SignalPosted)
		assert.Equal(t, models.StateMonitored, snap.State)
	}
}

func TestAdmitKOLBuyDeduplicatesWallet(t *testing.T) {
	fetcher := &fakeFetcher{price: 0.00018}
	tr := New(fastTrackerCfg(), logger.NewLogger("error"), fetcher, testEngine(), fakeRegistry{}, fakeCallIndex{}, &fakePublisher{}, &fakeMonitor{})
	defer tr.Stop()

	now := time.Now()
	event := models.KOLBuyEvent{Token: "tok2", Wallet: "wallet1", SolAmount: 1, Timestamp: now}
	tr.AdmitKOLBuy(context.Background(), event, now)
	tr.AdmitKOLBuy(context.Background(), event, now)

	snap := tr.Snapshot("tok2")
	if assert.NotNil(t, snap) {
		assert.Len(t, snap.KOLBuys, 1)
	}
}

func TestAdmitTelegramCallCreatesOneEntry(t *testing.T) {
	fetcher := &fakeFetcher{price: 0.0002}
	tr := New(fastTrackerCfg(), logger.NewLogger("error"), fetcher, testEngine(), fakeRegistry{}, fakeCallIndex{}, &fakePublisher{}, &fakeMonitor{})
	defer tr.Stop()

	now := time.Now()
	event := models.TelegramCallEvent{Token: "tok3", GroupID: "g1", MessageID: "m1", Timestamp: now}
	tr.AdmitTelegramCall(context.Background(), event, now)
	tr.AdmitTelegramCall(context.Background(), event, now)

	assert.Len(t, tr.LiveTokens(), 1)
}

func TestAdmitKOLBuyRefreshesUniqueBuyersMonotonically(t *testing.T) {
	fetcher := &fakeFetcher{price: 0.00018, uniqueBuyers: 30}
	tr := New(fastTrackerCfg(), logger.NewLogger("error"), fetcher, testEngine(), fakeRegistry{}, fakeCallIndex{}, &fakePublisher{}, &fakeMonitor{})
	defer tr.Stop()

	now := time.Now()
	tr.AdmitKOLBuy(context.Background(), models.KOLBuyEvent{
		Token: "tok4", Wallet: "wallet1", SolAmount: 1, Timestamp: now,
	}, now)

	assert.Eventually(t, func() bool {
		snap := tr.Snapshot("tok4")
		return snap != nil && snap.UniqueBuyerCount >= 30
	}, time.Second, 5*time.Millisecond)

	// A later poll reporting fewer unique buyers must never decrease the
	// tracked count (invariant I3).
	atomic.StoreInt32(&fetcher.uniqueBuyers, 5)
	time.Sleep(30 * time.Millisecond)

	snap := tr.Snapshot("tok4")
	if assert.NotNil(t, snap) {
		assert.GreaterOrEqual(t, snap.UniqueBuyerCount, 30)
	}
}

func TestAdmitTelegramCallConvergenceCanSignalWithoutKOL(t *testing.T) {
	fetcher := &fakeFetcher{price: 0.00018}
	calls := fakeCallIndex{distinctGroups: 5, totalMentions: 9}
	pub := &fakePublisher{}
	tr := New(fastTrackerCfg(), logger.NewLogger("error"), fetcher, testEngine(), fakeRegistry{}, calls, pub, &fakeMonitor{})
	defer tr.Stop()

	now := time.Now().Add(-3 * time.Minute)
	tr.AdmitTelegramCall(context.Background(), models.TelegramCallEvent{
		Token: "tok5", GroupID: "g1", MessageID: "m1", Timestamp: now,
	}, now)

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&pub.posts) == 1 }, time.Second, 5*time.Millisecond)

	snap := tr.Snapshot("tok5")
	if assert.NotNil(t, snap) {
		assert.True(t, snap.SignalPosted)
		assert.Empty(t, snap.KOLBuys)
	}
}

func TestLiveTokensAndSnapshotMissing(t *testing.T) {
	tr := New(fastTrackerCfg(), logger.NewLogger("error"), &fakeFetcher{}, testEngine(), fakeRegistry{}, fakeCallIndex{}, &fakePublisher{}, &fakeMonitor{})
	defer tr.Stop()

	assert.Nil(t, tr.Snapshot("nonexistent"))
	assert.Empty(t, tr.LiveTokens())
}

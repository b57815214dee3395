// Package tracker owns the life of every token from admission to
// retirement: one goroutine per live token, adaptive polling, the
// conviction-engine gate, and the handoff to the publisher and post-call
// monitor once a token signals.
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/sentinelsignal/sentinel/internal/config"
	"github.com/sentinelsignal/sentinel/internal/engine"
	"github.com/sentinelsignal/sentinel/internal/logger"
	"github.com/sentinelsignal/sentinel/pkg/models"
	"github.com/sentinelsignal/sentinel/pkg/providers"
)

// Fetcher is the subset of the fetcher layer the tracker's poll loop
// drives directly.
type Fetcher interface {
	GetTokenData(ctx context.Context, token models.TokenAddress) (providers.TokenData, error)
	GetBondingCurve(ctx context.Context, token models.TokenAddress) (providers.BondingCurve, error)
	GetHolders(ctx context.Context, token models.TokenAddress) (providers.HolderDistribution, error)
	GetRugCheck(ctx context.Context, token models.TokenAddress) (providers.RugScore, error)
}

// Registry resolves a wallet's curated tier.
type Registry interface {
	Lookup(address models.WalletAddress) models.WalletInfo
}

// CallIndex answers how many distinct Telegram groups, and how many total
// mentions, recently called a token — fed into the conviction engine's
// telegram-calls score component every poll.
type CallIndex interface {
	Stats(token models.TokenAddress, now time.Time) (distinctGroups, totalMentions int)
}

// Publisher posts one signal and reports back its delivery outcome.
type Publisher interface {
	Post(ctx context.Context, signal models.Signal) (models.Signal, error)
}

// Monitor starts the post-call price-drop watch for a freshly signaled
// token.
type Monitor interface {
	Start(token models.TokenAddress, entryPrice float64)
	Cancel(token models.TokenAddress)
}

// Tracker is the single writer of every live TrackedToken. External
// readers only ever see Clone()d copies.
type Tracker struct {
	cfg       config.TrackerConfig
	logger    *logger.Logger
	fetcher   Fetcher
	engine    *engine.Engine
	registry  Registry
	calls     CallIndex
	publisher Publisher
	monitor   Monitor

	mu    sync.RWMutex
	live  map[models.TokenAddress]*liveToken
	runWg sync.WaitGroup
}

// liveToken pairs a TrackedToken with the goroutine-local bookkeeping
// needed to cancel its poll loop.
type liveToken struct {
	mu     sync.Mutex
	token  *models.TrackedToken
	cancel context.CancelFunc
}

// New builds a Tracker with an empty live-token set.
func New(cfg config.TrackerConfig, log *logger.Logger, fetcher Fetcher, eng *engine.Engine, registry Registry, calls CallIndex, publisher Publisher, monitor Monitor) *Tracker {
	return &Tracker{
		cfg:       cfg,
		logger:    log,
		fetcher:   fetcher,
		engine:    eng,
		registry:  registry,
		calls:     calls,
		publisher: publisher,
		monitor:   monitor,
		live:      make(map[models.TokenAddress]*liveToken),
	}
}

// AdmitKOLBuy records a curated-wallet buy, creating a tracked token and
// spawning its poll loop if this is the first time the token has been seen.
func (t *Tracker) AdmitKOLBuy(ctx context.Context, event models.KOLBuyEvent, now time.Time) {
	entry := t.getOrCreate(event.Token, models.SourceKOLBuy, event.Wallet, "", now)

	entry.mu.Lock()
	info := t.registry.Lookup(event.Wallet)
	if !entry.token.HasWallet(event.Wallet) {
		entry.token.KOLBuys = append(entry.token.KOLBuys, models.KOLBuyRecord{
			Wallet:    event.Wallet,
			Tier:      info.Tier,
			SolAmount: event.SolAmount,
			FirstSeen: event.Timestamp,
		})
	}
	entry.mu.Unlock()
}

// AdmitTelegramCall creates a tracked token if absent; the call itself is
// recorded in the call index by the ingress layer, not here.
func (t *Tracker) AdmitTelegramCall(ctx context.Context, event models.TelegramCallEvent, now time.Time) {
	t.getOrCreate(event.Token, models.SourceTelegramCall, "", event.GroupID, now)
}

// getOrCreate returns the live entry for token, creating and starting its
// poll loop if this is the first admission.
func (t *Tracker) getOrCreate(token models.TokenAddress, source models.TokenSource, wallet models.WalletAddress, group string, now time.Time) *liveToken {
	t.mu.Lock()
	defer t.mu.Unlock()

	if entry, ok := t.live[token]; ok {
		return entry
	}

	ctx, cancel := context.WithCancel(context.Background())
	tracked := &models.TrackedToken{
		Address:      token,
		Source:       source,
		SourceWallet: wallet,
		SourceGroup:  group,
		FirstSeenAt:  now,
		State:        models.StateTracking,
	}
	entry := &liveToken{token: tracked, cancel: cancel}
	t.live[token] = entry

	t.runWg.Add(1)
	go func() {
		defer t.runWg.Done()
		t.pollLoop(ctx, entry)
	}()

	return entry
}

// Snapshot returns a read-only copy of a live token's current state, or
// nil if the token is not currently tracked.
func (t *Tracker) Snapshot(token models.TokenAddress) *models.TrackedToken {
	t.mu.RLock()
	entry, ok := t.live[token]
	t.mu.RUnlock()
	if !ok {
		return nil
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.token.Clone()
}

// LiveTokens returns the addresses of every currently tracked token.
func (t *Tracker) LiveTokens() []models.TokenAddress {
	t.mu.RLock()
	defer t.mu.RUnlock()
	addrs := make([]models.TokenAddress, 0, len(t.live))
	for addr := range t.live {
		addrs = append(addrs, addr)
	}
	return addrs
}

// retire cancels a token's poll loop, cancels any in-flight monitor, and
// removes it from the live set.
func (t *Tracker) retire(token models.TokenAddress, reason string) {
	t.mu.Lock()
	entry, ok := t.live[token]
	if ok {
		delete(t.live, token)
	}
	t.mu.Unlock()
	if !ok {
		return
	}

	entry.cancel()
	t.monitor.Cancel(token)
	t.logger.Info("token_retired", map[string]interface{}{
		"token":  string(token),
		"reason": reason,
	})
}

// Stop cancels every live poll loop and waits for them to exit.
func (t *Tracker) Stop() {
	t.mu.RLock()
	entries := make([]*liveToken, 0, len(t.live))
	for _, e := range t.live {
		entries = append(entries, e)
	}
	t.mu.RUnlock()

	for _, e := range entries {
		e.cancel()
	}
	t.runWg.Wait()
}

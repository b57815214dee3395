// Package registry is the curated wallet registry: a small, rarely-changing
// set of known KOL, whale, and emerging-trader addresses with a tier and a
// win rate. It is read on nearly every KOL buy event, so a full in-memory
// mirror is kept alongside the durable Postgres-backed table and refreshed
// periodically rather than queried per lookup.
package registry

import (
	"context"
	"sync"
	"time"

	"github.com/sentinelsignal/sentinel/internal/logger"
	"github.com/sentinelsignal/sentinel/internal/storage/db"
	"github.com/sentinelsignal/sentinel/pkg/models"
)

// Registry answers wallet-tier lookups from an in-memory mirror backed by
// Postgres, refreshed on a fixed interval.
type Registry struct {
	conn   *db.Connection
	logger *logger.Logger

	mu      sync.RWMutex
	wallets map[models.WalletAddress]models.WalletInfo

	refreshInterval time.Duration
	stopCh          chan struct{}
	wg              sync.WaitGroup
}

// New builds a Registry backed by conn, with an empty mirror until Start
// performs its first load.
func New(conn *db.Connection, log *logger.Logger, refreshInterval time.Duration) *Registry {
	return &Registry{
		conn:            conn,
		logger:          log,
		wallets:         make(map[models.WalletAddress]models.WalletInfo),
		refreshInterval: refreshInterval,
		stopCh:          make(chan struct{}),
	}
}

// Start loads the registry once synchronously, then refreshes it on the
// configured interval until the context is cancelled or Stop is called.
func (r *Registry) Start(ctx context.Context) error {
	if err := r.reload(ctx); err != nil {
		return err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := r.reload(ctx); err != nil {
					r.logger.Warning("registry_reload_failed", map[string]interface{}{
						"error": err.Error(),
					})
				}
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop halts the refresh loop and waits for it to exit.
func (r *Registry) Stop() {
	close(r.stopCh)
	r.wg.Wait()
}

func (r *Registry) reload(ctx context.Context) error {
	wallets, err := r.conn.ListWallets(ctx)
	if err != nil {
		return err
	}

	mirror := make(map[models.WalletAddress]models.WalletInfo, len(wallets))
	for _, w := range wallets {
		mirror[w.Address] = w
	}

	r.mu.Lock()
	r.wallets = mirror
	r.mu.Unlock()

	r.logger.Debug("registry_reloaded", map[string]interface{}{"count": len(mirror)})
	return nil
}

// Lookup returns the registry's view of a wallet. Unknown addresses return
// a WalletInfo with Known=false and TierUnknown rather than an error: an
// unrecognized wallet is an expected, common case, not a failure.
func (r *Registry) Lookup(address models.WalletAddress) models.WalletInfo {
	r.mu.RLock()
	info, ok := r.wallets[address]
	r.mu.RUnlock()
	if !ok {
		return models.WalletInfo{Address: address, Tier: models.TierUnknown, Known: false}
	}
	return info
}

// RecordActivity persists a curated wallet's buy to the durable activity
// log. The in-memory tier mirror is not mutated here; tier changes flow
// through the next scheduled reload.
func (r *Registry) RecordActivity(ctx context.Context, event models.KOLBuyEvent) error {
	info := r.Lookup(event.Wallet)
	return r.conn.RecordKOLActivity(ctx, event, info.Tier)
}

// Size returns the number of wallets currently mirrored in memory.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.wallets)
}

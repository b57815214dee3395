// Package monitor implements the post-call monitor: once a signal posts,
// sample price on an interval for a bounded window and emit at most one
// exit alert if the price drops past the configured threshold.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/sentinelsignal/sentinel/internal/config"
	"github.com/sentinelsignal/sentinel/internal/logger"
	"github.com/sentinelsignal/sentinel/pkg/models"
	"github.com/sentinelsignal/sentinel/pkg/providers"
)

// Fetcher is the subset of the fetcher layer the monitor needs to sample
// the current price.
type Fetcher interface {
	GetTokenData(ctx context.Context, token models.TokenAddress) (providers.TokenData, error)
}

// Publisher delivers the monitor's single possible exit alert.
type Publisher interface {
	PostExitAlert(ctx context.Context, alert models.ExitAlert) error
}

// Monitor tracks one watch per signaled token.
type Monitor struct {
	cfg       config.MonitorConfig
	logger    *logger.Logger
	fetcher   Fetcher
	publisher Publisher

	mu      sync.Mutex
	watches map[models.TokenAddress]context.CancelFunc
	wg      sync.WaitGroup
}

// New builds a Monitor with an empty watch set.
func New(cfg config.MonitorConfig, log *logger.Logger, fetcher Fetcher, publisher Publisher) *Monitor {
	return &Monitor{
		cfg:       cfg,
		logger:    log,
		fetcher:   fetcher,
		publisher: publisher,
		watches:   make(map[models.TokenAddress]context.CancelFunc),
	}
}

// Start begins sampling token's price at entryPrice. A second Start for a
// token already under watch is a no-op — the tracker only signals a token
// once per process, so this should never happen in practice.
func (m *Monitor) Start(token models.TokenAddress, entryPrice float64) {
	m.mu.Lock()
	if _, exists := m.watches[token]; exists {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.watches[token] = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.watch(ctx, token, entryPrice)
		m.clear(token)
	}()
}

// Cancel stops token's watch without emitting an alert, used when the
// tracker retires a token out from under an active monitor.
func (m *Monitor) Cancel(token models.TokenAddress) {
	m.mu.Lock()
	cancel, exists := m.watches[token]
	if exists {
		delete(m.watches, token)
	}
	m.mu.Unlock()
	if exists {
		cancel()
	}
}

func (m *Monitor) clear(token models.TokenAddress) {
	m.mu.Lock()
	delete(m.watches, token)
	m.mu.Unlock()
}

// watch samples price every cfg.Interval until the window expires, the
// drop threshold is crossed, or ctx is cancelled.
func (m *Monitor) watch(ctx context.Context, token models.TokenAddress, entryPrice float64) {
	start := time.Now()
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		elapsed := time.Since(start)
		if elapsed >= m.cfg.Window {
			return
		}

		fetchCtx, cancel := context.WithTimeout(ctx, m.cfg.FetchTimeout)
		data, err := m.fetcher.GetTokenData(fetchCtx, token)
		cancel()
		if err != nil {
			m.logger.Warning("monitor_fetch_failed", map[string]interface{}{
				"token": string(token),
				"error": err.Error(),
			})
			continue
		}

		if entryPrice <= 0 {
			continue
		}
		drop := (data.PriceUSD - entryPrice) / entryPrice
		if drop*100 <= m.cfg.ExitAlertThreshold {
			alert := models.ExitAlert{
				Token:          token,
				SignalPrice:    entryPrice,
				ObservedPrice:  data.PriceUSD,
				DropPct:        drop,
				ElapsedSeconds: elapsed.Seconds(),
				AlertedAt:      time.Now(),
			}
			if err := m.publisher.PostExitAlert(ctx, alert); err != nil {
				m.logger.Error("exit_alert_failed", err, map[string]interface{}{"token": string(token)})
			}
			return
		}
	}
}

// Stop cancels every active watch and waits for them to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(m.watches))
	for _, c := range m.watches {
		cancels = append(cancels, c)
	}
	m.mu.Unlock()
	for _, c := range cancels {
		c()
	}
	m.wg.Wait()
}

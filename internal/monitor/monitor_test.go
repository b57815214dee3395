package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sentinelsignal/sentinel/internal/config"
	"github.com/sentinelsignal/sentinel/internal/logger"
	"github.com/sentinelsignal/sentinel/pkg/models"
	"github.com/sentinelsignal/sentinel/pkg/providers"
)

type fakeFetcher struct {
	mu    sync.Mutex
	price float64
}

func (f *fakeFetcher) setPrice(p float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.price = p
}

func (f *fakeFetcher) GetTokenData(ctx context.Context, token models.TokenAddress) (providers.TokenData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return providers.TokenData{PriceUSD: f.price}, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	alerts []models.ExitAlert
}

func (p *fakePublisher) PostExitAlert(ctx context.Context, alert models.ExitAlert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, alert)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.alerts)
}

func testCfg() config.MonitorConfig {
	return config.MonitorConfig{
		Window:             200 * time.Millisecond,
		Interval:           10 * time.Millisecond,
		ExitAlertThreshold: -15, // percent
		FetchTimeout:       50 * time.Millisecond,
	}
}

func TestMonitorFiresExitAlertOnDrop(t *testing.T) {
	fetcher := &fakeFetcher{price: 1.0}
	pub := &fakePublisher{}
	m := New(testCfg(), logger.NewLogger("error"), fetcher, pub)

	m.Start(models.TokenAddress("tok"), 1.0)
	// Price drops 20%, past the -15% threshold.
	fetcher.setPrice(0.80)

	assert.Eventually(t, func() bool { return pub.count() == 1 }, 500*time.Millisecond, 5*time.Millisecond)

	m.Stop()
	assert.Equal(t, 1, pub.count())
	assert.InDelta(t, -0.20, pub.alerts[0].DropPct, 0.01)
}

func TestMonitorNoAlertWithoutDrop(t *testing.T) {
	fetcher := &fakeFetcher{price: 1.0}
	pub := &fakePublisher{}
	m := New(testCfg(), logger.NewLogger("error"), fetcher, pub)

	m.Start(models.TokenAddress("tok"), 1.0)
	// Flat price the whole window: never crosses the threshold.
	time.Sleep(300 * time.Millisecond)
	m.Stop()

	assert.Equal(t, 0, pub.count())
}

func TestMonitorCancelSuppressesAlert(t *testing.T) {
	fetcher := &fakeFetcher{price: 1.0}
	pub := &fakePublisher{}
	m := New(testCfg(), logger.NewLogger("error"), fetcher, pub)

	m.Start(models.TokenAddress("tok"), 1.0)
	fetcher.setPrice(0.50)
	m.Cancel(models.TokenAddress("tok"))
	m.Stop()

	assert.Equal(t, 0, pub.count())
}

func TestMonitorSecondStartIsNoOp(t *testing.T) {
	fetcher := &fakeFetcher{price: 1.0}
	pub := &fakePublisher{}
	m := New(testCfg(), logger.NewLogger("error"), fetcher, pub)

	m.Start(models.TokenAddress("tok"), 1.0)
	m.Start(models.TokenAddress("tok"), 1.0) // no-op: already watched
	m.Stop()
}

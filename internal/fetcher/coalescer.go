package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sentinelsignal/sentinel/pkg/models"
	"github.com/sentinelsignal/sentinel/pkg/providers"
)

func errMetadataMissing(token models.TokenAddress) error {
	return fmt.Errorf("metadata batch response omitted token %s", token)
}

// metadataBatchLimit caps how many addresses ride in a single coalesced
// metadata request, even if more arrive within the batch window.
const metadataBatchLimit = 100

// metadataRequest is one caller's pending ask, parked until the window
// closes or the batch fills.
type metadataRequest struct {
	token models.TokenAddress
	resCh chan metadataResult
}

type metadataResult struct {
	meta providers.Metadata
	err  error
}

// metadataCoalescer batches individual GetMetadata callers into a single
// upstream request per window, trading a small fixed latency for a large
// reduction in per-token credit spend.
type metadataCoalescer struct {
	mu       sync.Mutex
	pending  []metadataRequest
	window   time.Duration
	timer    *time.Timer
	fetchAll func(ctx context.Context, tokens []models.TokenAddress) (map[models.TokenAddress]providers.Metadata, error)
}

func newMetadataCoalescer(window time.Duration, fetchAll func(ctx context.Context, tokens []models.TokenAddress) (map[models.TokenAddress]providers.Metadata, error)) *metadataCoalescer {
	return &metadataCoalescer{
		window:   window,
		fetchAll: fetchAll,
	}
}

// Request enqueues token for the next batch window and blocks until the
// batch resolves or ctx is cancelled.
func (m *metadataCoalescer) Request(ctx context.Context, token models.TokenAddress) (providers.Metadata, error) {
	resCh := make(chan metadataResult, 1)

	m.mu.Lock()
	m.pending = append(m.pending, metadataRequest{token: token, resCh: resCh})
	shouldFlushNow := len(m.pending) >= metadataBatchLimit
	if m.timer == nil && !shouldFlushNow {
		m.timer = time.AfterFunc(m.window, m.flush)
	}
	m.mu.Unlock()

	if shouldFlushNow {
		m.flush()
	}

	select {
	case res := <-resCh:
		return res.meta, res.err
	case <-ctx.Done():
		return providers.Metadata{}, ctx.Err()
	}
}

func (m *metadataCoalescer) flush() {
	m.mu.Lock()
	batch := m.pending
	m.pending = nil
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	tokens := make([]models.TokenAddress, len(batch))
	seen := make(map[models.TokenAddress]bool, len(batch))
	unique := tokens[:0]
	for _, req := range batch {
		if !seen[req.token] {
			seen[req.token] = true
			unique = append(unique, req.token)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	fetched, err := m.fetchAll(ctx, unique)

	for _, req := range batch {
		if err != nil {
			req.resCh <- metadataResult{err: err}
			continue
		}
		meta, ok := fetched[req.token]
		if !ok {
			req.resCh <- metadataResult{err: errMetadataMissing(req.token)}
			continue
		}
		req.resCh <- metadataResult{meta: meta}
	}
}

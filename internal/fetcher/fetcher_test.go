package fetcher

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sentinelsignal/sentinel/internal/config"
	"github.com/sentinelsignal/sentinel/internal/logger"
	"github.com/sentinelsignal/sentinel/pkg/models"
	"github.com/sentinelsignal/sentinel/pkg/providers"
)

type fakeDex struct{}

func (fakeDex) TokenData(ctx context.Context, token models.TokenAddress) (providers.TokenData, error) {
	return providers.TokenData{Symbol: "DOG", PriceUSD: 1}, nil
}

type fakeChain struct {
	metadataCalls int32
}

func (fakeChain) TokenData(ctx context.Context, token models.TokenAddress) (providers.TokenData, error) {
	return providers.TokenData{}, nil
}

func (f *fakeChain) Metadata(ctx context.Context, tokens []models.TokenAddress) (map[models.TokenAddress]providers.Metadata, error) {
	atomic.AddInt32(&f.metadataCalls, 1)
	out := make(map[models.TokenAddress]providers.Metadata, len(tokens))
	for _, tok := range tokens {
		out[tok] = providers.Metadata{Symbol: "DOG", Name: string(tok)}
	}
	return out, nil
}

type fakeCurve struct{}

func (fakeCurve) BondingCurve(ctx context.Context, token models.TokenAddress) (providers.BondingCurve, error) {
	return providers.BondingCurve{ProgressPct: 50}, nil
}

type fakeSecurity struct{}

func (fakeSecurity) Holders(ctx context.Context, token models.TokenAddress) (providers.HolderDistribution, error) {
	return providers.HolderDistribution{Top10Pct: 30}, nil
}

func (fakeSecurity) RugCheck(ctx context.Context, token models.TokenAddress) (providers.RugScore, error) {
	return providers.RugScore{Score: 2}, nil
}

func testFetcherCfg() config.FetcherConfig {
	return config.FetcherConfig{
		MetadataTTL:        time.Hour,
		HoldersTTL:         time.Hour,
		BondingCurveTTL:    time.Second,
		RequestTimeout:     time.Second,
		BatchWindow:        5 * time.Millisecond,
		MetadataBatchLimit: 100,
		HoldersCreditCost:  3,
		MetadataCreditCost: 1,
	}
}

func TestGetMetadataCachesAfterFirstFetch(t *testing.T) {
	chain := &fakeChain{}
	f := New(testFetcherCfg(), logger.NewLogger("error"), fakeDex{}, chain, fakeCurve{}, fakeSecurity{})

	tok := models.TokenAddress("tok1")
	meta, err := f.GetMetadata(context.Background(), tok)
	assert.NoError(t, err)
	assert.Equal(t, "DOG", meta.Symbol)
	assert.Equal(t, int32(1), atomic.LoadInt32(&chain.metadataCalls))
	assert.Equal(t, int64(1), f.CreditsUsed(ProviderMetadata))

	// Second call within TTL must be served from cache: no new upstream
	// call, no additional credit charge.
	_, err = f.GetMetadata(context.Background(), tok)
	assert.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&chain.metadataCalls))
	assert.Equal(t, int64(1), f.CreditsUsed(ProviderMetadata))
}

func TestGetMetadataCoalescesConcurrentMisses(t *testing.T) {
	chain := &fakeChain{}
	f := New(testFetcherCfg(), logger.NewLogger("error"), fakeDex{}, chain, fakeCurve{}, fakeSecurity{})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.GetMetadata(context.Background(), models.TokenAddress("shared"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&chain.metadataCalls))
	assert.Equal(t, int64(1), f.CreditsUsed(ProviderMetadata))
}

func TestGetMetadataBatchServesHitsForFree(t *testing.T) {
	chain := &fakeChain{}
	f := New(testFetcherCfg(), logger.NewLogger("error"), fakeDex{}, chain, fakeCurve{}, fakeSecurity{})

	_, err := f.GetMetadata(context.Background(), models.TokenAddress("warm"))
	assert.NoError(t, err)
	assert.Equal(t, int64(1), f.CreditsUsed(ProviderMetadata))

	result, err := f.GetMetadataBatch(context.Background(), []models.TokenAddress{"warm", "cold"})
	assert.NoError(t, err)
	assert.Len(t, result, 2)
	// Only "cold" was an actual miss.
	assert.Equal(t, int64(2), f.CreditsUsed(ProviderMetadata))
	assert.Equal(t, int32(2), atomic.LoadInt32(&chain.metadataCalls))
}

func TestGetHoldersCachesAndCharges(t *testing.T) {
	f := New(testFetcherCfg(), logger.NewLogger("error"), fakeDex{}, &fakeChain{}, fakeCurve{}, fakeSecurity{})

	_, err := f.GetHolders(context.Background(), models.TokenAddress("tok"))
	assert.NoError(t, err)
	assert.Equal(t, int64(3), f.CreditsUsed(ProviderHolders))

	_, err = f.GetHolders(context.Background(), models.TokenAddress("tok"))
	assert.NoError(t, err)
	assert.Equal(t, int64(3), f.CreditsUsed(ProviderHolders)) // still 3: second call hit cache
}

func TestGetTokenDataMergesOnGap(t *testing.T) {
	f := New(testFetcherCfg(), logger.NewLogger("error"), fakeDex{}, &fakeChain{}, fakeCurve{}, fakeSecurity{})

	data, err := f.GetTokenData(context.Background(), models.TokenAddress("tok"))
	assert.NoError(t, err)
	assert.Equal(t, "DOG", data.Symbol) // from the primary DEX aggregator
	assert.Equal(t, 1.0, data.PriceUSD)
}

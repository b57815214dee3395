package fetcher

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sentinelsignal/sentinel/internal/config"
	"github.com/sentinelsignal/sentinel/internal/logger"
	"github.com/sentinelsignal/sentinel/pkg/models"
	"github.com/sentinelsignal/sentinel/pkg/providers"
)

// Fetcher is the single entry point external components use to read a
// token's market, metadata, bonding-curve, and security state. It hides
// four independent upstream providers behind per-kind TTL caches, collapses
// concurrent misses for the same key with singleflight, and meters every
// upstream call against a credit ledger.
type Fetcher struct {
	cfg    config.FetcherConfig
	log    *logger.Logger
	dex    DexAggregator
	chain  OnChainProvider
	curve  BondingCurveAPI
	secure SecurityScoreAPI

	metadataCache *ttlCache[providers.Metadata]
	holdersCache  *ttlCache[providers.HolderDistribution]
	curveCache    *ttlCache[providers.BondingCurve]
	rugCache      *ttlCache[providers.RugScore]

	holdersFlight singleflight.Group
	curveFlight   singleflight.Group
	rugFlight     singleflight.Group
	tokenFlight   singleflight.Group

	coalescer *metadataCoalescer
	credits   *creditLedger
}

// New builds a Fetcher wired to the four concrete provider clients.
func New(cfg config.FetcherConfig, log *logger.Logger, dex DexAggregator, chain OnChainProvider, curve BondingCurveAPI, secure SecurityScoreAPI) *Fetcher {
	f := &Fetcher{
		cfg:           cfg,
		log:           log,
		dex:           dex,
		chain:         chain,
		curve:         curve,
		secure:        secure,
		metadataCache: newTTLCache[providers.Metadata](cfg.MetadataTTL),
		holdersCache:  newTTLCache[providers.HolderDistribution](cfg.HoldersTTL),
		curveCache:    newTTLCache[providers.BondingCurve](cfg.BondingCurveTTL),
		rugCache:      newTTLCache[providers.RugScore](0),
		credits:       newCreditLedger(),
	}
	f.coalescer = newMetadataCoalescer(cfg.BatchWindow, f.fetchMetadataBatch)
	return f
}

// CreditsUsed reports the total credits charged to the named provider,
// surfaced on the diagnostics API.
func (f *Fetcher) CreditsUsed(provider string) int64 {
	return f.credits.Used(provider)
}

// TotalCreditsUsed reports credits charged across every provider.
func (f *Fetcher) TotalCreditsUsed() int64 {
	return f.credits.Total()
}

// GetTokenData returns the merged market-data view for a token: the DEX
// aggregator's response filled in with the on-chain provider wherever the
// primary source reports a gap. A DEX aggregator failure is not fatal; the
// on-chain provider's data is returned alone in that case.
func (f *Fetcher) GetTokenData(ctx context.Context, token models.TokenAddress) (providers.TokenData, error) {
	v, err, _ := f.tokenFlight.Do(string(token), func() (interface{}, error) {
		primary, dexErr := f.dex.TokenData(ctx, token)
		f.credits.charge(ProviderDex, 1)
		if dexErr != nil {
			f.log.Warning("dex_aggregator_failed", map[string]interface{}{
				"token": string(token),
				"error": dexErr.Error(),
			})
			primary.SourceError = dexErr.Error()
		}

		secondary, chainErr := f.chain.TokenData(ctx, token)
		f.credits.charge(ProviderOnChain, 1)
		if chainErr != nil {
			if dexErr != nil {
				return providers.TokenData{}, chainErr
			}
			return primary, nil
		}
		if dexErr != nil {
			return secondary, nil
		}

		return mergeTokenData(primary, secondary), nil
	})
	if err != nil {
		return providers.TokenData{}, err
	}
	return v.(providers.TokenData), nil
}

// mergeTokenData fills zero-valued fields in primary from secondary. The
// DEX aggregator is authoritative whenever it reports a non-zero value.
func mergeTokenData(primary, secondary providers.TokenData) providers.TokenData {
	merged := primary
	if merged.Symbol == "" {
		merged.Symbol = secondary.Symbol
	}
	if merged.Name == "" {
		merged.Name = secondary.Name
	}
	if merged.PriceUSD == 0 {
		merged.PriceUSD = secondary.PriceUSD
	}
	if merged.MarketCap == 0 {
		merged.MarketCap = secondary.MarketCap
	}
	if merged.LiquidityUSD == 0 {
		merged.LiquidityUSD = secondary.LiquidityUSD
	}
	if merged.Volume24h == 0 {
		merged.Volume24h = secondary.Volume24h
	}
	if merged.UniqueBuyers == 0 {
		merged.UniqueBuyers = secondary.UniqueBuyers
	}
	merged.SourceError = ""
	return merged
}

// GetMetadata returns one token's descriptive record. A cache hit costs no
// credits; a miss is coalesced with any other concurrent misses that land
// within the same batch window before a single upstream call is issued.
func (f *Fetcher) GetMetadata(ctx context.Context, token models.TokenAddress) (providers.Metadata, error) {
	if cached, ok := f.metadataCache.Get(string(token)); ok {
		return cached, nil
	}
	return f.coalescer.Request(ctx, token)
}

// GetMetadataBatch fetches descriptive records for many tokens directly,
// bypassing the coalescing window (used by callers that already hold a
// natural batch, e.g. a tracker sweep). Cache hits are served for free.
func (f *Fetcher) GetMetadataBatch(ctx context.Context, tokens []models.TokenAddress) (map[models.TokenAddress]providers.Metadata, error) {
	if len(tokens) > metadataBatchLimit {
		tokens = tokens[:metadataBatchLimit]
	}
	return f.fetchMetadataBatch(ctx, tokens)
}

// fetchMetadataBatch serves whatever it can from cache and issues a single
// upstream call for the remainder, charging one credit per token actually
// fetched rather than per call.
func (f *Fetcher) fetchMetadataBatch(ctx context.Context, tokens []models.TokenAddress) (map[models.TokenAddress]providers.Metadata, error) {
	result := make(map[models.TokenAddress]providers.Metadata, len(tokens))
	var misses []models.TokenAddress
	for _, tok := range tokens {
		if cached, ok := f.metadataCache.Get(string(tok)); ok {
			result[tok] = cached
			continue
		}
		misses = append(misses, tok)
	}
	if len(misses) == 0 {
		return result, nil
	}

	fetched, err := f.chain.Metadata(ctx, misses)
	if err != nil {
		return nil, err
	}
	for tok, meta := range fetched {
		f.credits.charge(ProviderMetadata, f.cfg.MetadataCreditCost)
		f.metadataCache.Set(string(tok), meta)
		result[tok] = meta
	}
	return result, nil
}

// GetBondingCurve returns pre-graduation launchpad curve state, cached
// with a short TTL since the curve moves quickly near graduation.
func (f *Fetcher) GetBondingCurve(ctx context.Context, token models.TokenAddress) (providers.BondingCurve, error) {
	if cached, ok := f.curveCache.Get(string(token)); ok {
		return cached, nil
	}

	v, err, _ := f.curveFlight.Do(string(token), func() (interface{}, error) {
		curve, err := f.curve.BondingCurve(ctx, token)
		if err != nil {
			return providers.BondingCurve{}, err
		}
		f.credits.charge(ProviderBondingCurve, 1)
		f.curveCache.Set(string(token), curve)
		return curve, nil
	})
	if err != nil {
		return providers.BondingCurve{}, err
	}
	return v.(providers.BondingCurve), nil
}

// GetHolders returns the token's holder-concentration snapshot. This is
// the most expensive call per miss, so callers are expected to gate it
// behind an eligibility check before requesting it.
func (f *Fetcher) GetHolders(ctx context.Context, token models.TokenAddress) (providers.HolderDistribution, error) {
	if cached, ok := f.holdersCache.Get(string(token)); ok {
		return cached, nil
	}

	v, err, _ := f.holdersFlight.Do(string(token), func() (interface{}, error) {
		holders, err := f.secure.Holders(ctx, token)
		if err != nil {
			return providers.HolderDistribution{}, err
		}
		f.credits.charge(ProviderHolders, f.cfg.HoldersCreditCost)
		f.holdersCache.Set(string(token), holders)
		return holders, nil
	})
	if err != nil {
		return providers.HolderDistribution{}, err
	}
	return v.(providers.HolderDistribution), nil
}

// GetRugCheck returns the token's security score. Cached for the process
// lifetime: rug-risk scores rarely improve once assigned, so a fresh miss
// is only ever paid once per token per process.
func (f *Fetcher) GetRugCheck(ctx context.Context, token models.TokenAddress) (providers.RugScore, error) {
	if cached, ok := f.rugCache.Get(string(token)); ok {
		return cached, nil
	}

	v, err, _ := f.rugFlight.Do(string(token), func() (interface{}, error) {
		score, err := f.secure.RugCheck(ctx, token)
		if err != nil {
			return providers.RugScore{}, err
		}
		f.credits.charge(ProviderRugCheck, 1)
		score.FetchedAt = time.Now()
		f.rugCache.Set(string(token), score)
		return score, nil
	})
	if err != nil {
		return providers.RugScore{}, err
	}
	return v.(providers.RugScore), nil
}

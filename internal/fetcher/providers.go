package fetcher

import (
	"context"

	"github.com/sentinelsignal/sentinel/pkg/models"
	"github.com/sentinelsignal/sentinel/pkg/providers"
)

// DexAggregator is the primary market-data source.
type DexAggregator interface {
	TokenData(ctx context.Context, token models.TokenAddress) (providers.TokenData, error)
}

// OnChainProvider is the secondary market-data source, used to fill gaps
// left by the DEX aggregator.
type OnChainProvider interface {
	TokenData(ctx context.Context, token models.TokenAddress) (providers.TokenData, error)
	Metadata(ctx context.Context, tokens []models.TokenAddress) (map[models.TokenAddress]providers.Metadata, error)
}

// BondingCurveAPI exposes pre-graduation launchpad curve state.
type BondingCurveAPI interface {
	BondingCurve(ctx context.Context, token models.TokenAddress) (providers.BondingCurve, error)
}

// SecurityScoreAPI exposes holder concentration and rug-risk scoring.
type SecurityScoreAPI interface {
	Holders(ctx context.Context, token models.TokenAddress) (providers.HolderDistribution, error)
	RugCheck(ctx context.Context, token models.TokenAddress) (providers.RugScore, error)
}

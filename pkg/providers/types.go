// Package providers declares the wire-level response shapes returned by
// SENTINEL's four upstream data sources: the DEX aggregator, the on-chain
// data provider, the bonding-curve API, and the security-score API.
package providers

import "time"

// TokenData aggregates price/market/volume data for a token, combining the
// DEX aggregator (primary) and the on-chain provider (secondary).
type TokenData struct {
	Symbol         string
	Name           string
	PriceUSD       float64
	MarketCap      float64
	LiquidityUSD   float64
	Volume24h      float64
	Buys24h        int
	Sells24h       int
	UniqueBuyers   int // distinct buying wallets the aggregator counted in its window
	PriceChange1h  float64
	PriceChange6h  float64
	PriceChange24h float64
	Socials        Socials
	SourceError    string
}

// Socials holds a token's social links as the DEX aggregator reports them;
// they are not filled in from any other source.
type Socials struct {
	Twitter  string
	Website  string
	Telegram string
}

// Metadata is a token's descriptive record.
type Metadata struct {
	Symbol      string
	Name        string
	Description string
	SourceError string
}

// BondingCurve is a pre-graduation token's launchpad curve state.
type BondingCurve struct {
	ProgressPct float64
	Reserves    float64
	Graduated   bool
	SourceError string
}

// HolderDistribution is a token's holder-concentration snapshot. This is
// the most expensive upstream call. For pre-graduation tokens it is gated
// by the engine's eligibility predicate; the tracker requests it on every
// poll of a graduated token.
type HolderDistribution struct {
	HolderCount int
	Top10Pct    float64
	Top3Pct     float64
	Top1Pct     float64
	SourceError string
}

// RugScore is a normalized [0,10] risk score. Cached for the process
// lifetime once obtained, since rug-risk rarely improves.
type RugScore struct {
	Score       float64
	FetchedAt   time.Time
	SourceError string
}

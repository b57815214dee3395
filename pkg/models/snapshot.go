package models

import "time"

// TokenSnapshot is the tagged, explicit-presence record the fetcher layer
// produces for a single poll, using HasX flags instead of a dict of
// optionals. Every sensor output is either present (HasX=true, filled) or
// absent, so the data-quality gate becomes a pattern match on presence
// rather than a missing-key lookup.
type TokenSnapshot struct {
	Address TokenAddress
	Symbol  string
	Name    string

	PriceUSD          float64
	MarketCap         float64
	LiquidityUSD      float64
	Volume24h         float64
	Buys24h           int
	Sells24h          int
	UniqueBuyers      int
	PriceChange1h     float64
	PriceChange6h     float64
	PriceChange24h    float64

	HolderCount int
	HasHolders  bool
	Top10Pct    float64
	Top3Pct     float64
	Top1Pct     float64

	BondingProgressPct float64
	Graduated          bool
	HasBondingCurve    bool

	RugScore    float64 // normalized [0,10]
	HasRugScore bool

	// SourceError is set when an upstream provider failed; the snapshot is
	// still returned (never an error) so the engine's data-quality gate can
	// reject it explicitly (a partial result is returned rather than raising).
	SourceError string

	FetchedAt time.Time
}

// Missing reports whether any sensor group the gates rely on never arrived.
func (s TokenSnapshot) Missing() bool {
	return s.SourceError != ""
}
